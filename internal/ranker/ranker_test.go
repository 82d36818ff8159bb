package ranker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"notes-rag/internal/config"
	"notes-rag/internal/models"
)

func partition(contents ...string) []models.IndexedChunk {
	out := make([]models.IndexedChunk, len(contents))
	for i, c := range contents {
		out[i] = models.IndexedChunk{
			Content: c,
			Metadata: models.ChunkMetadata{
				Filename:  "notes.txt",
				Page:      1,
				ChunkID:   fmt.Sprintf("p1_c%d", i),
				SubjectID: "s1",
			},
		}
	}
	return out
}

func TestTokenize(t *testing.T) {
	got := Tokenize("What is the Force, F=ma? Also 2 x 10 kg")
	want := []string{"force", "ma", "10", "kg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestRankEmptyInputs(t *testing.T) {
	opts := DefaultOptions()
	if got := Rank(nil, "force", 8, opts); len(got) != 0 {
		t.Fatalf("empty partition returned %d results", len(got))
	}
	p := partition("force equals mass times acceleration")
	if got := Rank(p, "what is it and how", 8, opts); len(got) != 0 {
		t.Fatalf("stop-word query returned %d results", len(got))
	}
	if got := Rank(p, "photosynthesis", 8, opts); len(got) != 0 {
		t.Fatalf("unmatched query returned %d results", len(got))
	}
}

func TestRankSingleChunk(t *testing.T) {
	p := partition("force equals mass times acceleration")
	got := Rank(p, "mass", 8, DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Score <= 0 {
		t.Fatalf("score = %v, want > 0", got[0].Score)
	}
}

func TestRankDeterministic(t *testing.T) {
	p := partition(
		"energy is the capacity to do work",
		"kinetic energy is energy of motion",
		"potential energy is energy of position",
		"work equals force times distance",
	)
	first := Rank(p, "energy work motion", 8, DefaultOptions())
	for i := 0; i < 20; i++ {
		if got := Rank(p, "energy work motion", 8, DefaultOptions()); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	p := partition("momentum is conserved", "momentum is conserved", "momentum is conserved")
	got := Rank(p, "momentum", 8, DefaultOptions())
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	for i, r := range got {
		if want := fmt.Sprintf("p1_c%d", i); r.Metadata.ChunkID != want {
			t.Fatalf("result %d = %s, want %s", i, r.Metadata.ChunkID, want)
		}
	}
}

func TestRankCoverage(t *testing.T) {
	p := partition("alpha beta gamma", "alpha zzzz yyyy")
	got := Rank(p, "alpha beta gamma", 8, DefaultOptions())
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Metadata.ChunkID != "p1_c0" || got[0].Score <= got[1].Score {
		t.Fatalf("full-coverage chunk should rank strictly first: %+v", got)
	}
}

func TestRankImportantWordsBoost(t *testing.T) {
	p := partition(
		"photosynthesis needs chlorophyll in leaves",
		"photosynthesis happens during daylight hours",
		"plants absorb water through roots",
		"cells divide through mitosis",
		"animals breathe oxygen constantly",
		"rivers carry sediment downstream",
	)
	opts := DefaultOptions()
	got := Rank(p, "photosynthesis chlorophyll", 8, opts)
	if len(got) == 0 || got[0].Metadata.ChunkID != "p1_c0" {
		t.Fatalf("chunk with every rare term should rank first: %+v", got)
	}

	noBoost := opts
	noBoost.AllImportantBoost = 1
	plain := Rank(p, "photosynthesis chlorophyll", 8, noBoost)
	if got[0].Score <= plain[0].Score {
		t.Fatalf("boost did not raise the score: %v vs %v", got[0].Score, plain[0].Score)
	}
}

func TestRankStemBonus(t *testing.T) {
	p := partition("we compute results quickly", "rivers carry sediment")
	got := Rank(p, "computing", 8, DefaultOptions())
	if len(got) != 1 || got[0].Metadata.ChunkID != "p1_c0" {
		t.Fatalf("stem variant should match: %+v", got)
	}
}

func TestRankTruncatesAndDistance(t *testing.T) {
	var contents []string
	for i := 0; i < 12; i++ {
		contents = append(contents, fmt.Sprintf("newton law number %d", i))
	}
	got := Rank(partition(contents...), "newton", 5, DefaultOptions())
	if len(got) != 5 {
		t.Fatalf("got %d results, want 5", len(got))
	}
	for i, r := range got {
		if r.Distance != Distance(r.Score) {
			t.Fatalf("distance mismatch: %v vs %v", r.Distance, Distance(r.Score))
		}
		if i > 0 && got[i-1].Score < r.Score {
			t.Fatalf("results not in descending order")
		}
	}
	if Distance(0) != 1 || Distance(1) != 0.5 || Distance(2) != 0.3333 {
		t.Fatalf("Distance rounding wrong: %v %v %v", Distance(0), Distance(1), Distance(2))
	}
}

func TestRankNewtonExample(t *testing.T) {
	text := "Newton's Second Law: F=ma. The unit of force is the Newton."
	p := partition(text[:40], text[30:])
	got := Rank(p, "What is F=ma?", 8, DefaultOptions())
	if len(got) == 0 || !strings.Contains(got[0].Content, "F=ma") {
		t.Fatalf("F=ma chunk should rank first: %+v", got)
	}
}

func TestFromConfigKeepsDefaults(t *testing.T) {
	got := FromConfig(config.RankerConfig{ImportantIDF: 1.5})
	want := DefaultOptions()
	want.ImportantIDF = 1.5
	if got != want {
		t.Fatalf("FromConfig = %+v, want %+v", got, want)
	}
}
