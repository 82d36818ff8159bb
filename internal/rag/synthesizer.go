package rag

import (
	"context"
	"fmt"
	"strings"

	"notes-rag/internal/helper"
	"notes-rag/internal/models"
)

const (
	keySentenceChars = 120
	shortAnswerChars = 200
	explanationChars = 100
	explainedChunks  = 3
)

// fillerOptions pad fallback MCQs when the notes do not offer enough
// distinct statements to use as distractors.
var fillerOptions = []string{
	"It is not described anywhere in these notes.",
	"The notes state the opposite of this.",
	"It only applies outside the topic covered here.",
	"None of these statements come from the notes.",
}

// Synthesizer builds study sets from ranked chunks
type Synthesizer struct {
	gen Generator
}

func NewSynthesizer(gen Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Synthesize never fails and never returns more than five MCQs or three
// short questions. Citations list the first ranked chunks on every path.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, chunks []models.ScoredChunk, subjectName string) models.StudySet {
	logger := loggerFrom(ctx)
	if subjectName == "" {
		subjectName = models.DefaultSubjectName
	}
	if len(chunks) == 0 {
		return models.StudySet{
			Topic:          topic,
			Explanation:    fmt.Sprintf(models.NoStudyNotesFormat, topic),
			MCQs:           []models.MCQ{},
			ShortQuestions: []models.ShortQuestion{},
			Citations:      []models.Citation{},
		}
	}

	if s.gen != nil {
		text, err := s.gen.Generate(ctx, studyPrompt(topic, chunks, subjectName))
		if err != nil {
			logger.Warn().Err(err).Msg("Generation failed, building study set from notes")
		} else {
			set, outcome := parseStudy(text)
			logger.Debug().Stringer("outcome", outcome).Int("mcqs", len(set.MCQs)).Int("short", len(set.ShortQuestions)).Msg("Parsed study set")
			if outcome == OutcomeParsed {
				set.Topic = topic
				if set.Explanation == "" {
					set.Explanation = fallbackExplanation(topic, chunks, subjectName)
				}
				set.Citations = studyCitations(chunks)
				citeItems(&set, chunks)
				return set.StudySet
			}
		}
	}
	return fallbackStudySet(topic, chunks, subjectName)
}

// fallbackStudySet cycles through the chunks so that even a single chunk
// yields the full set of questions.
func fallbackStudySet(topic string, chunks []models.ScoredChunk, subjectName string) models.StudySet {
	set := models.StudySet{
		Topic:          topic,
		Explanation:    fallbackExplanation(topic, chunks, subjectName),
		MCQs:           make([]models.MCQ, 0, models.MaxMCQs),
		ShortQuestions: make([]models.ShortQuestion, 0, models.MaxShortQuestions),
		Citations:      studyCitations(chunks),
	}
	for i := 0; i < models.MaxMCQs; i++ {
		set.MCQs = append(set.MCQs, fallbackMCQ(i, topic, chunks))
	}
	for i := 0; i < models.MaxShortQuestions; i++ {
		c := chunks[(i+2)%len(chunks)]
		set.ShortQuestions = append(set.ShortQuestions, models.ShortQuestion{
			Question: fmt.Sprintf("Explain the importance of %s as mentioned in %s.", topic, c.Metadata.Filename),
			Answer:   "According to the notes: " + helper.Truncate(helper.CollapseSpace(c.Content), shortAnswerChars),
			Citation: itemCitation(c),
		})
	}
	return set
}

func fallbackExplanation(topic string, chunks []models.ScoredChunk, subjectName string) string {
	n := min(len(chunks), explainedChunks)
	parts := make([]string, 0, n)
	for _, c := range chunks[:n] {
		parts = append(parts, helper.Truncate(helper.CollapseSpace(c.Content), explanationChars))
	}
	return fmt.Sprintf("Based on your %s notes, %s is discussed in %d section(s). %s", subjectName, topic, len(chunks), strings.Join(parts, " "))
}

// fallbackMCQ uses the key sentence of chunk i as the correct option and the
// key sentences of the following chunks as distractors. The correct option
// rotates through the four positions.
func fallbackMCQ(i int, topic string, chunks []models.ScoredChunk) models.MCQ {
	c := chunks[i%len(chunks)]
	correct := keySentence(c.Content)

	used := map[string]bool{correct: true}
	distractors := make([]string, 0, models.MCQOptionCount-1)
	for k := 1; k < len(chunks) && len(distractors) < models.MCQOptionCount-1; k++ {
		d := keySentence(chunks[(i+k)%len(chunks)].Content)
		if d == "" || used[d] {
			continue
		}
		used[d] = true
		distractors = append(distractors, d)
	}
	for _, f := range fillerOptions {
		if len(distractors) == models.MCQOptionCount-1 {
			break
		}
		if !used[f] {
			used[f] = true
			distractors = append(distractors, f)
		}
	}

	answer := i % models.MCQOptionCount
	var opts [models.MCQOptionCount]string
	for pos, d := 0, 0; pos < models.MCQOptionCount; pos++ {
		if pos == answer {
			opts[pos] = correct
			continue
		}
		opts[pos] = distractors[d]
		d++
	}
	return models.MCQ{
		Question:     fmt.Sprintf("According to %s (page %d), which statement about %s appears in your notes?", c.Metadata.Filename, c.Metadata.Page, topic),
		Options:      opts,
		CorrectIndex: answer,
		Explanation:  fmt.Sprintf("This is stated on page %d of %s.", c.Metadata.Page, c.Metadata.Filename),
		Citation:     itemCitation(c),
	}
}

// keySentence is the first sentence of a chunk, whitespace collapsed and
// capped in length.
func keySentence(content string) string {
	text := helper.CollapseSpace(content)
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		text = text[:i+1]
	}
	return helper.Truncate(text, keySentenceChars)
}

func studyCitations(chunks []models.ScoredChunk) []models.Citation {
	n := min(len(chunks), models.MaxStudyCitations)
	out := make([]models.Citation, 0, n)
	for i, c := range chunks[:n] {
		out = append(out, chunkCitation(c, fmt.Sprintf(models.CitationLabelFormat, i+1), models.StudyEvidenceChars))
	}
	return out
}

// citeItems gives every parsed question a citation. A claimed source that
// matches a ranked chunk is kept; otherwise the item is attributed the same
// way as fallback items, MCQ i to chunk i and short question i to chunk i+2.
func citeItems(set *parsedStudy, chunks []models.ScoredChunk) {
	byPage := make(map[itemSource]models.ScoredChunk, len(chunks))
	for _, c := range chunks {
		k := itemSource{c.Metadata.Filename, c.Metadata.Page}
		if _, ok := byPage[k]; !ok {
			byPage[k] = c
		}
	}
	pick := func(src itemSource, fallback int) string {
		if c, ok := byPage[src]; ok {
			return itemCitation(c)
		}
		return itemCitation(chunks[fallback%len(chunks)])
	}
	for i := range set.MCQs {
		set.MCQs[i].Citation = pick(set.mcqSources[i], i)
	}
	for i := range set.ShortQuestions {
		set.ShortQuestions[i].Citation = pick(set.shortSources[i], i+2)
	}
}

func itemCitation(c models.ScoredChunk) string {
	return fmt.Sprintf("%s — Page %d", c.Metadata.Filename, c.Metadata.Page)
}
