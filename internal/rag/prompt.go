package rag

import (
	"fmt"
	"strings"
	"unicode"

	"notes-rag/internal/models"
)

// buildContext renders ranked chunks with their source so the model can cite
// them by file name and page.
func buildContext(chunks []models.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("Source: %s (Page %d)\nContent: %s", c.Metadata.Filename, c.Metadata.Page, c.Content))
	}
	return strings.Join(parts, models.ContextSeparator)
}

// buildHistory keeps the last few turns, labelled by role
func buildHistory(history []models.Turn) string {
	if len(history) > models.HistoryTurns {
		history = history[len(history)-models.HistoryTurns:]
	}
	var b strings.Builder
	for _, t := range history {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("\nConversation so far:\n")
		}
		fmt.Fprintf(&b, "%s: %s\n", roleLabel(t.Role), content)
	}
	return b.String()
}

func roleLabel(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "human":
		return "User"
	case "assistant", "ai", "bot":
		return "Assistant"
	case "":
		return "Unknown"
	default:
		r := []rune(strings.TrimSpace(role))
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
}

func answerPrompt(query string, chunks []models.ScoredChunk, subject string, history []models.Turn) string {
	return fmt.Sprintf(models.AnswerPromptTemplate, subject, subject, buildHistory(history), buildContext(chunks), query)
}

func studyPrompt(topic string, chunks []models.ScoredChunk, subject string) string {
	return fmt.Sprintf(models.StudyPromptTemplate, subject, topic, buildContext(chunks), topic)
}
