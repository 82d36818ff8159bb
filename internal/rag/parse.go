package rag

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"notes-rag/internal/models"
)

// Outcome classifies raw model text before it is trusted
type Outcome int

const (
	OutcomeEmpty Outcome = iota
	OutcomeParsed
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeParsed:
		return "parsed"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "empty"
	}
}

var (
	wrapped = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	fenced  = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
)

// decodeJSON decodes the reply as it is, then the body of a fence wrapping
// the whole reply, then the first fenced block inside surrounding prose.
// A fence in a string value never hides a reply that decodes on its own.
func decodeJSON[T any](text string) (T, Outcome) {
	var zero T
	text = strings.TrimSpace(text)
	if text == "" {
		return zero, OutcomeEmpty
	}
	var v T
	if json.Unmarshal([]byte(text), &v) == nil {
		return v, OutcomeParsed
	}

	var body string
	if m := wrapped.FindStringSubmatch(text); m != nil {
		body = m[1]
	} else if m := fenced.FindStringSubmatch(text); m != nil {
		body = m[1]
	} else {
		return zero, OutcomeMalformed
	}
	if strings.TrimSpace(body) == "" {
		return zero, OutcomeEmpty
	}
	var inner T
	if json.Unmarshal([]byte(body), &inner) != nil {
		return zero, OutcomeMalformed
	}
	return inner, OutcomeParsed
}

type rawAnswer struct {
	Answer     *string           `json:"answer"`
	Content    *string           `json:"content"`
	Confidence any               `json:"confidence"`
	Citations  []json.RawMessage `json:"citations"`
}

type rawCitation struct {
	FileName *string `json:"fileName"`
	Page     any     `json:"page"`
	Evidence *string `json:"evidence"`
}

// parsedAnswer is model output that passed the shape check. Citations are
// defaulted but not yet matched against the ranked chunks.
type parsedAnswer struct {
	Content    string
	Confidence models.Confidence
	Citations  []models.Citation
}

func parseAnswer(text string) (parsedAnswer, Outcome) {
	raw, outcome := decodeJSON[rawAnswer](text)
	if outcome != OutcomeParsed {
		return parsedAnswer{}, outcome
	}
	content := firstNonEmpty(raw.Answer, raw.Content)
	if content == "" {
		return parsedAnswer{}, OutcomeMalformed
	}

	out := parsedAnswer{
		Content:    content,
		Confidence: models.ParseConfidence(stringOf(raw.Confidence)),
	}
	for _, msg := range raw.Citations {
		var rc rawCitation
		if err := json.Unmarshal(msg, &rc); err != nil {
			continue
		}
		c := models.Citation{FileName: "unknown", Page: pageOf(rc.Page)}
		if rc.FileName != nil && strings.TrimSpace(*rc.FileName) != "" {
			c.FileName = strings.TrimSpace(*rc.FileName)
		}
		if rc.Evidence != nil {
			c.Evidence = *rc.Evidence
		}
		out.Citations = append(out.Citations, c)
	}
	return out, OutcomeParsed
}

type rawStudy struct {
	Explanation    string            `json:"explanation"`
	MCQs           []json.RawMessage `json:"mcqs"`
	ShortQuestions []json.RawMessage `json:"shortQuestions"`
}

type rawMCQ struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex"`
	Answer       *int     `json:"answer"`
	Explanation  string   `json:"explanation"`
	FileName     any      `json:"fileName"`
	Page         any      `json:"page"`
}

type rawShort struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	FileName any    `json:"fileName"`
	Page     any    `json:"page"`
}

// itemSource is the file and page a generated question claims to come from.
// It is checked against the ranked chunks before it becomes a citation.
type itemSource struct {
	file string
	page int
}

// parsedStudy keeps the claimed source of each item alongside the set
type parsedStudy struct {
	models.StudySet
	mcqSources   []itemSource
	shortSources []itemSource
}

// parseStudy keeps the well formed items of a generated study set, capped at
// the requested counts. A set with no usable items is malformed.
func parseStudy(text string) (parsedStudy, Outcome) {
	raw, outcome := decodeJSON[rawStudy](text)
	if outcome != OutcomeParsed {
		return parsedStudy{}, outcome
	}

	set := parsedStudy{StudySet: models.StudySet{
		Explanation:    strings.TrimSpace(raw.Explanation),
		MCQs:           []models.MCQ{},
		ShortQuestions: []models.ShortQuestion{},
	}}
	for _, msg := range raw.MCQs {
		if len(set.MCQs) == models.MaxMCQs {
			break
		}
		var m rawMCQ
		if err := json.Unmarshal(msg, &m); err != nil {
			continue
		}
		if mcq, ok := m.valid(); ok {
			set.MCQs = append(set.MCQs, mcq)
			set.mcqSources = append(set.mcqSources, itemSource{strings.TrimSpace(stringOf(m.FileName)), pageOf(m.Page)})
		}
	}
	for _, msg := range raw.ShortQuestions {
		if len(set.ShortQuestions) == models.MaxShortQuestions {
			break
		}
		var s rawShort
		if err := json.Unmarshal(msg, &s); err != nil {
			continue
		}
		q, a := strings.TrimSpace(s.Question), strings.TrimSpace(s.Answer)
		if q == "" || a == "" {
			continue
		}
		set.ShortQuestions = append(set.ShortQuestions, models.ShortQuestion{Question: q, Answer: a})
		set.shortSources = append(set.shortSources, itemSource{strings.TrimSpace(stringOf(s.FileName)), pageOf(s.Page)})
	}
	if len(set.MCQs) == 0 && len(set.ShortQuestions) == 0 {
		return parsedStudy{}, OutcomeMalformed
	}
	return set, OutcomeParsed
}

func (m rawMCQ) valid() (models.MCQ, bool) {
	q := strings.TrimSpace(m.Question)
	if q == "" || len(m.Options) != models.MCQOptionCount {
		return models.MCQ{}, false
	}
	idx := m.CorrectIndex
	if idx == nil {
		idx = m.Answer
	}
	if idx == nil || *idx < 0 || *idx >= models.MCQOptionCount {
		return models.MCQ{}, false
	}
	out := models.MCQ{Question: q, CorrectIndex: *idx, Explanation: strings.TrimSpace(m.Explanation)}
	copy(out.Options[:], m.Options)
	return out, true
}

func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return ""
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// pageOf accepts a page as a JSON number or a numeric string. Anything else,
// including pages below 1, becomes page 1.
func pageOf(v any) int {
	var p int
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			p = int(t)
		}
	case string:
		p, _ = strconv.Atoi(strings.TrimSpace(t))
	}
	if p < 1 {
		return 1
	}
	return p
}
