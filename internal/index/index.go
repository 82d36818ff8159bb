package index

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"notes-rag/internal/models"
	"notes-rag/internal/ranker"
)

// ErrPersist wraps any failure to write the index to durable storage. The
// in-memory state is rolled back before it is returned.
var ErrPersist = errors.New("persist index")

// Store holds one append-only partition of chunks per subject and writes
// the whole mapping through to its Snapshotter on every mutation.
//
// The snapshot model assumes a single writer process. The mutex only keeps
// readers in this process from seeing a partition mid-update.
type Store struct {
	mu    sync.RWMutex
	parts Partitions
	snap  Snapshotter
	opts  ranker.Options
}

// Open loads the persisted index once
func Open(ctx context.Context, snap Snapshotter, opts ranker.Options) (*Store, error) {
	parts, err := snap.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if parts == nil {
		parts = Partitions{}
	}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	log.Debug().Int("subjects", len(parts)).Int("chunks", total).Msg("Loaded index")
	return &Store{parts: parts, snap: snap, opts: opts}, nil
}

// Replace swaps every chunk of filename in the subject for chunks, creating
// the partition on first use, and persists before returning. It reports how
// many earlier chunks of the file were dropped. On a failed save the
// previous chunks stay in place.
func (s *Store) Replace(ctx context.Context, subjectID string, chunks []models.Chunk, filename string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.parts[subjectID]
	next := make([]models.IndexedChunk, 0, len(prev)+len(chunks))
	for _, c := range prev {
		if c.Metadata.Filename != filename {
			next = append(next, c)
		}
	}
	replaced := len(prev) - len(next)
	for _, c := range chunks {
		next = append(next, models.IndexedChunk{
			Content: c.Content,
			Metadata: models.ChunkMetadata{
				Filename:  filename,
				Page:      c.PageNumber,
				ChunkID:   c.ChunkID,
				SubjectID: subjectID,
			},
		})
	}
	s.parts[subjectID] = next

	if err := s.snap.Save(ctx, s.parts); err != nil {
		if existed {
			s.parts[subjectID] = prev
		} else {
			delete(s.parts, subjectID)
		}
		return 0, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	log.Info().Str("subject_id", subjectID).Str("file", filename).Int("chunks", len(chunks)).Int("replaced", replaced).Msg("Indexed chunks")
	return replaced, nil
}

// Remove drops every chunk of filename from the subject and returns how
// many were removed. Unknown subjects and files remove nothing.
func (s *Store) Remove(ctx context.Context, subjectID, filename string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.parts[subjectID]
	if !ok {
		return 0, nil
	}
	next := make([]models.IndexedChunk, 0, len(prev))
	for _, c := range prev {
		if c.Metadata.Filename != filename {
			next = append(next, c)
		}
	}
	removed := len(prev) - len(next)
	if removed == 0 {
		return 0, nil
	}

	s.parts[subjectID] = next
	if err := s.snap.Save(ctx, s.parts); err != nil {
		s.parts[subjectID] = prev
		return 0, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	log.Info().Str("subject_id", subjectID).Str("file", filename).Int("chunks", removed).Msg("Removed chunks")
	return removed, nil
}

// Search ranks a copy of the subject's partition against the query
func (s *Store) Search(subjectID, query string, n int) []models.ScoredChunk {
	part := s.Partition(subjectID)
	if len(part) == 0 {
		return nil
	}
	return ranker.Rank(part, query, n, s.opts)
}

// Partition returns a copy of the subject's chunks
func (s *Store) Partition(subjectID string) []models.IndexedChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.parts[subjectID])
}

func (s *Store) Len(subjectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.parts[subjectID])
}

// Subjects lists subject ids in sorted order
func (s *Store) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.parts))
	for id := range s.parts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Files lists the files indexed under a subject in the order they were added
func (s *Store) Files(subjectID string) []models.FileSummary {
	part := s.Partition(subjectID)
	var out []models.FileSummary
	pos := map[string]int{}
	pages := map[string]map[int]struct{}{}
	for _, c := range part {
		name := c.Metadata.Filename
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, models.FileSummary{Filename: name})
			pages[name] = map[int]struct{}{}
		}
		out[i].Chunks++
		pages[name][c.Metadata.Page] = struct{}{}
	}
	for i := range out {
		out[i].Pages = len(pages[out[i].Filename])
	}
	return out
}
