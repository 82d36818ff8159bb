package ranker

import (
	"math"
	"sort"
	"strings"

	"notes-rag/internal/config"
	"notes-rag/internal/models"
)

// DefaultChatResults is used when Rank is asked for n <= 0
const DefaultChatResults = 8

// Options are the tuned scoring constants. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	// ImportantIDF is the idf above which a query term counts as discriminative
	ImportantIDF float64
	// AllImportantBoost multiplies the score when every discriminative term
	// appears in the chunk text
	AllImportantBoost float64
	// CoverageWeight scales the distinct-term coverage multiplier
	CoverageWeight float64
	// StemPrefix is the shared prefix length for the crude stem bonus
	StemPrefix int
	// StemWeight multiplies the chunk term idf for each stem match
	StemWeight float64
}

func DefaultOptions() Options {
	return Options{
		ImportantIDF:      2.0,
		AllImportantBoost: 3.0,
		CoverageWeight:    2.0,
		StemPrefix:        4,
		StemWeight:        0.5,
	}
}

// FromConfig maps the ranker section of the config onto Options, keeping
// the default for any unset value.
func FromConfig(c config.RankerConfig) Options {
	o := DefaultOptions()
	if c.ImportantIDF > 0 {
		o.ImportantIDF = c.ImportantIDF
	}
	if c.AllImportantBoost > 0 {
		o.AllImportantBoost = c.AllImportantBoost
	}
	if c.CoverageWeight > 0 {
		o.CoverageWeight = c.CoverageWeight
	}
	if c.StemPrefix > 0 {
		o.StemPrefix = c.StemPrefix
	}
	if c.StemWeight > 0 {
		o.StemWeight = c.StemWeight
	}
	return o
}

type document struct {
	tokens []string
	terms  []string // distinct, in order of first appearance
	tf     map[string]int
	lower  string
}

// Rank scores every chunk of the partition against the query and returns
// the top n by descending score. Ties keep partition order. Chunks scoring
// zero are dropped.
func Rank(partition []models.IndexedChunk, query string, n int, opts Options) []models.ScoredChunk {
	if len(partition) == 0 {
		return nil
	}
	queryTerms := distinct(Tokenize(query))
	if len(queryTerms) == 0 {
		return nil
	}
	if n <= 0 {
		n = DefaultChatResults
	}

	docs := make([]document, len(partition))
	for i, c := range partition {
		tokens := Tokenize(c.Content)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		docs[i] = document{
			tokens: tokens,
			terms:  distinct(tokens),
			tf:     tf,
			lower:  strings.ToLower(c.Content),
		}
	}
	idf := computeIDF(docs)

	var important []string
	for _, qt := range queryTerms {
		if idf[qt] > opts.ImportantIDF {
			important = append(important, qt)
		}
	}

	type hit struct {
		idx   int
		score float64
	}
	hits := make([]hit, 0, len(docs))
	for i := range docs {
		s := score(queryTerms, important, &docs[i], idf, opts)
		if s > 0 {
			hits = append(hits, hit{i, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if n > len(hits) {
		n = len(hits)
	}

	out := make([]models.ScoredChunk, 0, n)
	for _, h := range hits[:n] {
		c := partition[h.idx]
		out = append(out, models.ScoredChunk{
			Content:  c.Content,
			Metadata: c.Metadata,
			Score:    h.score,
			Distance: Distance(h.score),
		})
	}
	return out
}

// Distance maps a score onto (0, 1] for display. It is not a metric.
func Distance(score float64) float64 {
	return math.Round(1/(1+score)*1e4) / 1e4
}

// computeIDF uses ln((N+1)/(df+1)) + 1 over the partition. Terms that
// appear in no chunk have no entry.
func computeIDF(docs []document) map[string]float64 {
	df := make(map[string]int)
	for _, d := range docs {
		for _, t := range d.terms {
			df[t]++
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, freq := range df {
		idf[term] = math.Log((n+1)/(float64(freq)+1)) + 1
	}
	return idf
}

func score(queryTerms, important []string, d *document, idf map[string]float64, opts Options) float64 {
	if len(d.tokens) == 0 {
		return 0
	}

	docLen := float64(len(d.tokens))
	s := 0.0
	matched := 0
	for _, qt := range queryTerms {
		count := d.tf[qt]
		if count == 0 {
			continue
		}
		matched++
		s += float64(count) / docLen * idf[qt]
	}

	coverage := float64(matched) / float64(len(queryTerms))
	s *= 1 + opts.CoverageWeight*coverage

	if len(important) > 0 {
		all := true
		for _, w := range important {
			if !strings.Contains(d.lower, w) {
				all = false
				break
			}
		}
		if all {
			s *= opts.AllImportantBoost
		}
	}

	p := opts.StemPrefix
	for _, qt := range queryTerms {
		if len(qt) < p {
			continue
		}
		for _, dt := range d.terms {
			if len(dt) >= p && dt[:p] == qt[:p] {
				s += opts.StemWeight * idf[dt]
			}
		}
	}
	return s
}
