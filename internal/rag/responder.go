package rag

import (
	"context"
	"fmt"
	"strings"

	"notes-rag/internal/helper"
	"notes-rag/internal/models"
)

// Responder answers questions strictly from ranked chunks
type Responder struct {
	gen Generator
}

func NewResponder(gen Generator) *Responder {
	return &Responder{gen: gen}
}

// Answer never fails. With no chunks it returns the not-found sentinel; when
// generation is unavailable or unusable it answers from the chunks directly.
func (r *Responder) Answer(ctx context.Context, query string, chunks []models.ScoredChunk, subjectName string, history []models.Turn) models.GroundedAnswer {
	logger := loggerFrom(ctx)
	if subjectName == "" {
		subjectName = models.DefaultSubjectName
	}
	if len(chunks) == 0 {
		return models.GroundedAnswer{
			Content:    models.NotFoundAnswer(subjectName),
			Confidence: models.ConfidenceLow,
			Citations:  []models.Citation{},
		}
	}
	if r.gen == nil {
		return contextAnswer(chunks, subjectName)
	}

	text, err := r.gen.Generate(ctx, answerPrompt(query, chunks, subjectName, history))
	if err != nil {
		logger.Warn().Err(err).Msg("Generation failed, answering from notes")
		return contextAnswer(chunks, subjectName)
	}

	parsed, outcome := parseAnswer(text)
	logger.Debug().Stringer("outcome", outcome).Int("chars", len(text)).Msg("Parsed answer")
	switch outcome {
	case OutcomeParsed:
		return groundAnswer(parsed, chunks, subjectName)
	case OutcomeMalformed:
		return models.GroundedAnswer{
			Content:    strings.TrimSpace(text),
			Confidence: models.ConfidenceMedium,
			Citations:  []models.Citation{chunkCitation(chunks[0], chunks[0].Metadata.ChunkID, models.EvidenceChars)},
		}
	default:
		return contextAnswer(chunks, subjectName)
	}
}

// contextAnswer echoes the top ranked chunk
func contextAnswer(chunks []models.ScoredChunk, subjectName string) models.GroundedAnswer {
	top := chunks[0]
	return models.GroundedAnswer{
		Content:    fmt.Sprintf("Based on your %s notes: %s", subjectName, strings.TrimSpace(top.Content)),
		Confidence: models.ConfidenceMedium,
		Citations:  []models.Citation{chunkCitation(top, top.Metadata.ChunkID, models.EvidenceChars)},
	}
}

// groundAnswer keeps only citations that point at a ranked chunk. A parsed
// not-found answer carries no citations.
func groundAnswer(p parsedAnswer, chunks []models.ScoredChunk, subjectName string) models.GroundedAnswer {
	if strings.HasPrefix(p.Content, models.NotFoundPrefix) {
		return models.GroundedAnswer{
			Content:    models.NotFoundAnswer(subjectName),
			Confidence: models.ConfidenceLow,
			Citations:  []models.Citation{},
		}
	}

	type source struct {
		file string
		page int
	}
	bySource := make(map[source]models.ScoredChunk, len(chunks))
	for _, c := range chunks {
		k := source{c.Metadata.Filename, c.Metadata.Page}
		if _, ok := bySource[k]; !ok {
			bySource[k] = c
		}
	}

	citations := []models.Citation{}
	seen := map[source]bool{}
	for _, c := range p.Citations {
		k := source{c.FileName, c.Page}
		chunk, ok := bySource[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		cite := chunkCitation(chunk, chunk.Metadata.ChunkID, models.EvidenceChars)
		if ev := strings.TrimSpace(c.Evidence); ev != "" {
			cite.Evidence = helper.Truncate(ev, models.EvidenceChars)
		}
		citations = append(citations, cite)
	}
	if len(citations) == 0 {
		citations = append(citations, chunkCitation(chunks[0], chunks[0].Metadata.ChunkID, models.EvidenceChars))
	}
	return models.GroundedAnswer{
		Content:    p.Content,
		Confidence: p.Confidence,
		Citations:  citations,
	}
}

func chunkCitation(c models.ScoredChunk, label string, evidence int) models.Citation {
	return models.Citation{
		FileName: c.Metadata.Filename,
		Page:     c.Metadata.Page,
		Chunk:    label,
		Evidence: helper.Truncate(c.Content, evidence),
	}
}
