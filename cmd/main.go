package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"notes-rag/internal/config"
	"notes-rag/internal/db"
	"notes-rag/internal/helper"
	"notes-rag/internal/index"
	"notes-rag/internal/llmservice"
	"notes-rag/internal/models"
	"notes-rag/internal/rag"
	"notes-rag/internal/ranker"
)

const (
	configFilePath = "./configs/config.yaml"
	snapshotKey    = "default"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	subjectID := flag.String("subject", "", "Subject id to work on")
	subjectName := flag.String("name", "", "Subject display name")
	files := flag.String("file", "", "Comma separated .pdf/.txt files to ingest into the subject")
	remove := flag.String("remove", "", "File name to remove from the subject")
	query := flag.String("query", "", "Question to answer from the subject's notes")
	history := flag.String("history", "", "Prior turns as a JSON array of {role, content}")
	topic := flag.String("topic", "", "Topic to build a study set for")
	seed := flag.Bool("seed", false, "Index the sample physics notes")
	list := flag.Bool("list", false, "List subjects and their files")
	reset := flag.Bool("reset", false, "Clear the stored index before running")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setLogLevel(cfg.LogLevel)
	log.Debug().Str("store", cfg.RAG.Store).Str("provider", cfg.LLM.Provider).Int("chunk_size", cfg.RAG.ChunkSize).Int("chunk_overlap", cfg.RAG.ChunkOverlap).Msg("Loaded config")

	ctx := context.Background()

	snap, closeStore, err := openSnapshot(ctx, cfg, *reset)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening index storage")
	}
	defer closeStore()

	store, err := index.Open(ctx, snap, ranker.FromConfig(cfg.RAG.Ranker))
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading index")
	}

	var gen rag.Generator
	client, err := llmservice.New(ctx, &cfg.LLM)
	switch {
	case errors.Is(err, llmservice.ErrNoProvider):
		log.Info().Msg("No generation provider configured, answering from notes only")
	case err != nil:
		log.Warn().Err(err).Msg("Generation client unavailable, answering from notes only")
	default:
		gen = client
		defer client.Close()
	}

	svc := rag.NewRAG(store, gen, cfg)

	if *seed {
		res, err := svc.Seed(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error seeding sample notes")
		}
		helper.PrettyPrint(res)
	}

	needSubject := *files != "" || *remove != "" || *query != "" || *topic != ""
	if needSubject && *subjectID == "" {
		log.Fatal().Msg("Please provide a subject id using the -subject flag")
	}

	if *files != "" {
		uploads, err := readFiles(*files)
		if err != nil {
			log.Fatal().Err(err).Msg("Error reading files")
		}
		res, err := svc.Ingest(ctx, *subjectID, uploads)
		if err != nil {
			log.Fatal().Err(err).Msg("Error ingesting files")
		}
		helper.PrettyPrint(res)
	}

	if *remove != "" {
		res, err := svc.RemoveFile(ctx, *subjectID, *remove)
		if err != nil {
			log.Fatal().Err(err).Msg("Error removing file")
		}
		helper.PrettyPrint(res)
	}

	if *query != "" {
		answer := svc.Chat(ctx, models.ChatRequest{
			SubjectID:   *subjectID,
			SubjectName: *subjectName,
			Message:     *query,
			History:     *history,
		})
		log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", *query)
		log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		helper.PrettyPrint(answer)
	}

	if *topic != "" {
		set := svc.Study(ctx, models.StudyRequest{
			SubjectID:   *subjectID,
			SubjectName: *subjectName,
			Topic:       *topic,
		})
		helper.PrettyPrint(set)
	}

	if *list {
		listSubjects(store, *subjectID)
	}

	if !*seed && !*list && !needSubject && !*reset {
		flag.Usage()
		os.Exit(2)
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// openSnapshot picks the file or postgres backend. reset clears whatever is
// stored before the index is loaded.
func openSnapshot(ctx context.Context, cfg *config.Config, reset bool) (index.Snapshotter, func(), error) {
	if cfg.RAG.Store == config.StorePostgres {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		bdb := db.NewDB(sqldb, cfg.Database.Debug)
		closeFn := func() { closeDB(bdb) }
		if reset {
			if err := db.DropIndex(ctx, bdb); err != nil {
				closeFn()
				return nil, nil, err
			}
		}
		if err := db.InitDB(ctx, bdb); err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Debug().Str("key", snapshotKey).Msg("Using postgres index storage")
		return db.NewSnapshot(bdb, snapshotKey), closeFn, nil
	}

	snap := index.NewFileSnapshot(cfg.RAG.IndexPath)
	if reset {
		if err := os.Remove(snap.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("remove index file: %w", err)
		}
	}
	log.Debug().Str("path", snap.Path()).Msg("Using file index storage")
	return snap, func() {}, nil
}

func closeDB(bdb *bun.DB) {
	if err := bdb.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing database")
	}
}

func readFiles(list string) ([]models.UploadedFile, error) {
	var out []models.UploadedFile
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, models.UploadedFile{Name: filepath.Base(p), Data: data})
	}
	return out, nil
}

func listSubjects(store *index.Store, subjectID string) {
	subjects := store.Subjects()
	if subjectID != "" {
		subjects = []string{subjectID}
	}
	out := make(map[string][]models.FileSummary, len(subjects))
	for _, s := range subjects {
		out[s] = store.Files(s)
	}
	helper.PrettyPrint(out)
}
