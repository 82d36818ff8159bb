package rag

import (
	"context"

	"github.com/rs/zerolog/log"

	"notes-rag/internal/models"
)

const (
	SeedSubjectID    = "physics_001"
	SeedFileName     = "physics_notes.txt"
	seedChunkSize    = 300
	seedChunkOverlap = 50
	seedCheckQuery   = "What is F=ma?"
)

const physicsNotes = `Physics: Classical Mechanics

Force equals mass times acceleration (F=ma). This is Newton's Second Law of Motion.
The unit of force is the Newton (N). One Newton is the force needed to accelerate
one kilogram of mass at the rate of one metre per second squared.

Newton's First Law states that an object at rest stays at rest, and an object in
motion stays in motion unless acted upon by an external force. This is also known
as the Law of Inertia.

Newton's Third Law states that for every action, there is an equal and opposite
reaction. When you push on a wall, the wall pushes back on you with equal force.

Work is done when a force acts upon an object to cause a displacement.
Work = Force x Distance x cos(theta). The SI unit of work is the Joule (J).

Power is the rate at which work is done. Power = Work / Time.
The SI unit of power is the Watt (W).

Energy is the capacity to do work. There are two main types:
- Kinetic Energy (KE) = 1/2 * m * v^2 (energy of motion)
- Potential Energy (PE) = m * g * h (energy of position)

The Law of Conservation of Energy states that energy cannot be created or destroyed,
only transformed from one form to another. The total energy in a closed system
remains constant.

Momentum is the product of mass and velocity: p = m * v.
The Law of Conservation of Momentum states that in a closed system, the total
momentum before a collision equals the total momentum after the collision.
`

// Seed indexes the sample physics notes. Chunks from an earlier seed are
// replaced rather than duplicated.
func (r *RAG) Seed(ctx context.Context) (models.IngestResult, error) {
	res, err := r.ingest(ctx, SeedSubjectID, []models.UploadedFile{{Name: SeedFileName, Data: []byte(physicsNotes)}}, seedChunkSize, seedChunkOverlap)
	if err != nil {
		return models.IngestResult{}, err
	}

	hits := r.store.Search(SeedSubjectID, seedCheckQuery, 0)
	ev := log.Info().Str("subject_id", SeedSubjectID).Int("chunks", r.store.Len(SeedSubjectID)).Int("check_results", len(hits))
	if len(hits) > 0 {
		ev = ev.Str("top_chunk", hits[0].Metadata.ChunkID)
	}
	ev.Msg("Seeded sample notes")
	return res, nil
}
