package index

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"notes-rag/internal/models"
	"notes-rag/internal/ranker"
)

type memorySnapshot struct {
	saved Partitions
	saves int
	err   error
}

func (m *memorySnapshot) Load(ctx context.Context) (Partitions, error) { return nil, nil }

func (m *memorySnapshot) Save(ctx context.Context, parts Partitions) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.saved = Partitions{}
	for k, v := range parts {
		m.saved[k] = append([]models.IndexedChunk(nil), v...)
	}
	return nil
}

func chunks(contents ...string) []models.Chunk {
	out := make([]models.Chunk, len(contents))
	for i, c := range contents {
		out[i] = models.Chunk{Content: c, PageNumber: 1, ChunkID: "p1_c" + string(rune('0'+i))}
	}
	return out
}

func openStore(t *testing.T, snap Snapshotter) *Store {
	t.Helper()
	s, err := Open(context.Background(), snap, ranker.DefaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestReplaceRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshot{}
	s := openStore(t, snap)

	in := chunks("photosynthesis converts light", "chlorophyll absorbs light", "leaves hold chlorophyll")
	if _, err := s.Replace(ctx, "bio", in, "plants.txt"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if _, err := s.Replace(ctx, "bio", chunks("mitochondria produce energy"), "cells.txt"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if snap.saves != 2 || len(snap.saved["bio"]) != 4 {
		t.Fatalf("write-through not applied: saves=%d chunks=%d", snap.saves, len(snap.saved["bio"]))
	}
	for _, c := range s.Partition("bio") {
		if c.Metadata.SubjectID != "bio" || c.Metadata.Page < 1 {
			t.Fatalf("bad metadata: %+v", c.Metadata)
		}
	}

	removed, err := s.Remove(ctx, "bio", "plants.txt")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed != len(in) {
		t.Fatalf("removed %d, want %d", removed, len(in))
	}
	for _, r := range s.Search("bio", "chlorophyll light photosynthesis", 8) {
		if r.Metadata.Filename == "plants.txt" {
			t.Fatalf("search still returns removed file: %+v", r)
		}
	}
	if got := s.Len("bio"); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestRemoveUnknown(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshot{}
	s := openStore(t, snap)
	if n, err := s.Remove(ctx, "nope", "a.txt"); n != 0 || err != nil {
		t.Fatalf("Remove(unknown subject) = %d, %v", n, err)
	}
	if _, err := s.Replace(ctx, "bio", chunks("cells"), "cells.txt"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if n, err := s.Remove(ctx, "bio", "missing.txt"); n != 0 || err != nil {
		t.Fatalf("Remove(unknown file) = %d, %v", n, err)
	}
	if snap.saves != 1 {
		t.Fatalf("no-op remove should not persist, saves=%d", snap.saves)
	}
}

func TestReplaceSwapsFileChunks(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshot{}
	s := openStore(t, snap)
	if _, err := s.Replace(ctx, "bio", chunks("old cells", "old tissue"), "cells.txt"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if _, err := s.Replace(ctx, "bio", chunks("roots"), "roots.txt"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	n, err := s.Replace(ctx, "bio", chunks("new cells", "new tissue"), "cells.txt")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("replaced %d, want 2", n)
	}
	if got := s.Len("bio"); got != 3 {
		t.Fatalf("Len = %d, want 3", got)
	}
	seen := map[string]bool{}
	for _, c := range s.Partition("bio") {
		key := c.Metadata.Filename + "/" + c.Metadata.ChunkID
		if seen[key] {
			t.Fatalf("duplicate chunk %s", key)
		}
		seen[key] = true
		if strings.HasPrefix(c.Content, "old") {
			t.Fatalf("stale chunk kept: %+v", c)
		}
	}

	snap.err = errors.New("disk full")
	if _, err := s.Replace(ctx, "bio", chunks("broken"), "cells.txt"); !errors.Is(err, ErrPersist) {
		t.Fatalf("Replace error = %v, want ErrPersist", err)
	}
	got := s.Search("bio", "new cells tissue", 8)
	if len(got) != 2 {
		t.Fatalf("failed Replace lost the previous chunks: %+v", got)
	}
}

func TestSearchEmptySubject(t *testing.T) {
	s := openStore(t, &memorySnapshot{})
	if got := s.Search("ghost", "anything at all", 8); len(got) != 0 {
		t.Fatalf("Search(unknown) returned %d results", len(got))
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	snap := &memorySnapshot{}
	s := openStore(t, snap)
	if _, err := s.Replace(ctx, "bio", chunks("cells divide"), "cells.txt"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	snap.err = errors.New("disk full")
	if _, err := s.Replace(ctx, "bio", chunks("more cells"), "more.txt"); !errors.Is(err, ErrPersist) {
		t.Fatalf("Replace error = %v, want ErrPersist", err)
	}
	if _, err := s.Replace(ctx, "chem", chunks("atoms"), "atoms.txt"); !errors.Is(err, ErrPersist) {
		t.Fatalf("Replace error = %v, want ErrPersist", err)
	}
	if _, err := s.Remove(ctx, "bio", "cells.txt"); !errors.Is(err, ErrPersist) {
		t.Fatalf("Remove error = %v, want ErrPersist", err)
	}

	if got := s.Len("bio"); got != 1 {
		t.Fatalf("bio partition = %d chunks after failed writes, want 1", got)
	}
	for _, id := range s.Subjects() {
		if id == "chem" {
			t.Fatalf("failed Replace left a new partition behind")
		}
	}
}

func TestFileSnapshotReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "index.json")

	s := openStore(t, NewFileSnapshot(path))
	if _, err := s.Replace(ctx, "physics", chunks("force equals mass times acceleration", "momentum is conserved"), "mech.txt"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	reopened := openStore(t, NewFileSnapshot(path))
	part := reopened.Partition("physics")
	if len(part) != 2 {
		t.Fatalf("reloaded %d chunks, want 2", len(part))
	}
	if part[0].Metadata.ChunkID != "p1_c0" || part[1].Metadata.Filename != "mech.txt" {
		t.Fatalf("reloaded metadata wrong: %+v", part)
	}
	got := reopened.Search("physics", "momentum", 8)
	if len(got) != 1 || !strings.Contains(got[0].Content, "momentum") {
		t.Fatalf("search after reload = %+v", got)
	}
}

func TestFileSnapshotMissingFile(t *testing.T) {
	parts, err := NewFileSnapshot(filepath.Join(t.TempDir(), "none.json")).Load(context.Background())
	if err != nil || len(parts) != 0 {
		t.Fatalf("Load(missing) = %v, %v", parts, err)
	}
}

func TestFiles(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, &memorySnapshot{})
	_, _ = s.Replace(ctx, "bio", []models.Chunk{
		{Content: "a", PageNumber: 1, ChunkID: "p1_c0"},
		{Content: "b", PageNumber: 2, ChunkID: "p2_c1"},
	}, "b.pdf")
	_, _ = s.Replace(ctx, "bio", chunks("c"), "a.txt")

	files := s.Files("bio")
	if len(files) != 2 || files[0].Filename != "b.pdf" || files[0].Chunks != 2 || files[0].Pages != 2 || files[1].Chunks != 1 {
		t.Fatalf("Files = %+v", files)
	}
}
