package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"notes-rag/internal/config"
	"notes-rag/internal/helper"
	"notes-rag/internal/index"
	"notes-rag/internal/models"
	"notes-rag/internal/parser"
)

// Generator turns a prompt into raw model text. Any error sends the caller
// down its fallback path.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RAG ties the index to the responder and the synthesizer
type RAG struct {
	store     *index.Store
	responder *Responder
	synth     *Synthesizer
	cfg       *config.Config
}

// NewRAG wires the service. gen may be nil, in which case every answer and
// study set is built from the notes alone.
func NewRAG(store *index.Store, gen Generator, cfg *config.Config) *RAG {
	return &RAG{
		store:     store,
		responder: NewResponder(gen),
		synth:     NewSynthesizer(gen),
		cfg:       cfg,
	}
}

func (r *RAG) Store() *index.Store {
	return r.store
}

// Ingest chunks and indexes every .pdf and .txt file under subjectID. Other
// extensions are skipped so a mixed upload still succeeds. If storing fails
// part way, the result lists the files already committed.
func (r *RAG) Ingest(ctx context.Context, subjectID string, files []models.UploadedFile) (models.IngestResult, error) {
	return r.ingest(ctx, subjectID, files, r.cfg.RAG.ChunkSize, r.cfg.RAG.ChunkOverlap)
}

func (r *RAG) ingest(ctx context.Context, subjectID string, files []models.UploadedFile, size, overlap int) (models.IngestResult, error) {
	if err := parser.ValidateChunking(size, overlap); err != nil {
		return models.IngestResult{}, err
	}
	ctx, logger := withRequestID(ctx)

	// extract and chunk the whole batch before anything is stored, so a bad
	// file leaves the index untouched
	type prepared struct {
		file   models.UploadedFile
		pages  int
		chunks []models.Chunk
	}
	var batch []prepared
	for _, f := range files {
		if !parser.Supported(f.Name) {
			logger.Debug().Str("file", f.Name).Msg("Skipping unsupported file")
			continue
		}
		pages, err := parser.Extract(f.Name, f.Data)
		if err != nil {
			return models.IngestResult{}, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		chunks, err := parser.ChunkPages(pages, size, overlap)
		if err != nil {
			return models.IngestResult{}, fmt.Errorf("chunk %s: %w", f.Name, err)
		}
		batch = append(batch, prepared{file: f, pages: len(pages), chunks: chunks})
	}

	result := models.IngestResult{SubjectID: subjectID, Files: []models.FileInfo{}}
	for _, p := range batch {
		// re-uploading a file replaces its chunks so chunk ids stay unique per file
		replaced, err := r.store.Replace(ctx, subjectID, p.chunks, p.file.Name)
		if err != nil {
			result.Status = models.StatusPartial
			return result, fmt.Errorf("store %s: %w", p.file.Name, err)
		}
		logger.Info().Str("subject_id", subjectID).Str("file", p.file.Name).Int("pages", p.pages).Int("chunks", len(p.chunks)).Int("replaced", replaced).Msg("Ingested file")
		result.Files = append(result.Files, models.FileInfo{
			Name: p.file.Name,
			Size: int64(len(p.file.Data)),
			Type: parser.Ext(p.file.Name),
		})
	}
	result.Status = models.StatusSuccess
	return result, nil
}

// RemoveFile drops every chunk of filename from the subject
func (r *RAG) RemoveFile(ctx context.Context, subjectID, filename string) (models.RemoveResult, error) {
	n, err := r.store.Remove(ctx, subjectID, filename)
	if err != nil {
		return models.RemoveResult{}, err
	}
	return models.RemoveResult{
		Status:        models.StatusSuccess,
		Message:       fmt.Sprintf("Deleted %d chunks for %s", n, filename),
		ChunksRemoved: n,
	}, nil
}

// Chat answers a question from the subject's notes
func (r *RAG) Chat(ctx context.Context, req models.ChatRequest) models.GroundedAnswer {
	ctx, logger := withRequestID(ctx)
	name := subjectName(req.SubjectName)
	history := ParseHistory(req.History)

	chunks := r.store.Search(req.SubjectID, req.Message, r.cfg.RAG.ChatResults)
	logger.Debug().Str("subject_id", req.SubjectID).Int("results", len(chunks)).Int("history", len(history)).Msg("Ranked chunks for question")
	return r.responder.Answer(ctx, req.Message, chunks, name, history)
}

// Study builds a quiz for a topic from the subject's notes
func (r *RAG) Study(ctx context.Context, req models.StudyRequest) models.StudySet {
	ctx, logger := withRequestID(ctx)
	chunks := r.store.Search(req.SubjectID, req.Topic, r.cfg.RAG.StudyResults)
	logger.Debug().Str("subject_id", req.SubjectID).Str("topic", req.Topic).Int("results", len(chunks)).Msg("Ranked chunks for topic")
	return r.synth.Synthesize(ctx, req.Topic, chunks, subjectName(req.SubjectName))
}

// ParseHistory decodes prior turns sent as a JSON array of {role, content}.
// Anything that does not decode is treated as no history.
func ParseHistory(serialized string) []models.Turn {
	if strings.TrimSpace(serialized) == "" {
		return nil
	}
	var turns []models.Turn
	if err := json.Unmarshal([]byte(serialized), &turns); err != nil {
		log.Debug().Err(err).Msg("Ignoring malformed history")
		return nil
	}
	return turns
}

func subjectName(name string) string {
	if strings.TrimSpace(name) == "" {
		return models.DefaultSubjectName
	}
	return name
}

// withRequestID attaches a request scoped logger to ctx unless one is
// already there.
func withRequestID(ctx context.Context) (context.Context, *zerolog.Logger) {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return ctx, l
	}
	id, err := helper.GenerateUUID()
	if err != nil {
		return ctx, &log.Logger
	}
	logger := log.With().Str("request_id", id).Logger()
	return logger.WithContext(ctx), &logger
}

// loggerFrom returns the request logger in ctx or the global one
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
