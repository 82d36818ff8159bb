package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"notes-rag/internal/models"
)

// Partitions maps a subject id to its chunks in insertion order
type Partitions map[string][]models.IndexedChunk

// Snapshotter loads and stores the whole index. Save always receives the
// complete mapping; there is no incremental log.
type Snapshotter interface {
	Load(ctx context.Context) (Partitions, error)
	Save(ctx context.Context, parts Partitions) error
}

// FileSnapshot keeps the index as one JSON document on disk
type FileSnapshot struct {
	path string
}

func NewFileSnapshot(path string) *FileSnapshot {
	return &FileSnapshot{path: path}
}

func (f *FileSnapshot) Path() string { return f.path }

// Load returns an empty mapping when the file does not exist yet
func (f *FileSnapshot) Load(ctx context.Context) (Partitions, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Partitions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", f.path, err)
	}
	parts := Partitions{}
	if len(data) == 0 {
		return parts, nil
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", f.path, err)
	}
	return parts, nil
}

// Save writes to a temp file next to the target and renames it over
func (f *FileSnapshot) Save(ctx context.Context, parts Partitions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}
