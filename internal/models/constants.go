package models

const (
	// NotFoundPrefix is followed by the subject name. Callers match on the
	// full string, so do not reword it.
	NotFoundPrefix      = "Not found in your notes for "
	NoStudyNotesFormat  = "No notes found to generate study material for %s."
	DefaultSubjectName  = "this subject"
	StatusSuccess       = "success"
	StatusPartial       = "partial"
	ContextSeparator    = "\n\n"
	HistoryTurns        = 6
	MaxMCQs             = 5
	MaxShortQuestions   = 3
	MaxStudyCitations   = 5
	MCQOptionCount      = 4
	EvidenceChars       = 150
	StudyEvidenceChars  = 100
	CitationLabelFormat = "Snippet %d"
)

// NotFoundAnswer is the exact content returned when nothing relevant was found
func NotFoundAnswer(subjectName string) string {
	return NotFoundPrefix + subjectName
}

var (
	// AnswerPromptTemplate args: subject, subject, history block, context, question
	AnswerPromptTemplate = `You are an AI Study Assistant for the subject "%s".
Answer the user's question STRICTLY using only the provided context snippets.
Earlier conversation is given only to resolve follow-up questions; do not use it as a source.
If the answer is not contained within the context, respond EXACTLY with: "Not found in your notes for %s"
%s
Context:
%s

Question: %s

Instructions:
1. Provide a clear, grounded answer.
2. Cite only sources listed in the context, using their exact file name and page.
3. Assess your confidence (High/Medium/Low) based on how well the context covers the question.

Respond with a single JSON object and nothing else:
{
  "answer": "Your answer...",
  "confidence": "High|Medium|Low",
  "citations": [{ "fileName": "...", "page": 1, "evidence": "short quote from the context" }]
}
`

	// StudyPromptTemplate args: subject, topic, context, topic
	StudyPromptTemplate = `You are an AI Study Assistant for the subject "%s".
Create study material about "%s" using ONLY the context snippets below.

Context:
%s

Produce:
- a short explanation of %s grounded in the context,
- exactly 5 multiple-choice questions, each with exactly 4 options and the zero-based index of the correct option,
- exactly 3 short-answer questions with answers.
Give each question the file name and page of the snippet it is based on.

Respond with a single JSON object and nothing else:
{
  "explanation": "...",
  "mcqs": [{ "question": "...", "options": ["...", "...", "...", "..."], "correctIndex": 0, "explanation": "...", "fileName": "...", "page": 1 }],
  "shortQuestions": [{ "question": "...", "answer": "...", "fileName": "...", "page": 1 }]
}
`
)
