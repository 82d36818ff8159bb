package models

import "strings"

// Confidence is how well the context covers the answer
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence maps free text onto one of the three levels. Anything it
// does not recognise becomes Medium.
func ParseConfidence(s string) Confidence {
	switch normalizeWord(s) {
	case "high":
		return ConfidenceHigh
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), `."'`))
}

// Citation points at a ranked chunk used to ground a response
type Citation struct {
	FileName string `json:"fileName"`
	Page     int    `json:"page"`
	Chunk    string `json:"chunk"`
	Evidence string `json:"evidence"`
}

// GroundedAnswer is the response to a question about a subject's notes
type GroundedAnswer struct {
	Content    string     `json:"content"`
	Confidence Confidence `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

// Turn is one message of a prior conversation
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	SubjectID   string
	SubjectName string
	Message     string
	// History is the serialized list of prior turns as sent by the client
	History string
}

type StudyRequest struct {
	SubjectID   string
	SubjectName string
	Topic       string
}

type MCQ struct {
	Question     string    `json:"question"`
	Options      [4]string `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
	Explanation  string    `json:"explanation"`
	Citation     string    `json:"citation,omitempty"`
}

type ShortQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Citation string `json:"citation,omitempty"`
}

// StudySet is a quiz generated for a topic
type StudySet struct {
	Topic          string          `json:"topic"`
	Explanation    string          `json:"explanation"`
	MCQs           []MCQ           `json:"mcqs"`
	ShortQuestions []ShortQuestion `json:"shortQuestions"`
	Citations      []Citation      `json:"citations"`
}
