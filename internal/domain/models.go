package domain

// Question models an MCQ question. CorrectOption holds the text of the right
// answer and must never be sent to a client during an active attempt.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
}

// Quiz is a timed collection of questions.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Subject      string     `json:"subject"`
	TimerMinutes int        `json:"timerMinutes"` // defaults to 10 if zero
	Questions    []Question `json:"questions"`
}

// AttemptResult is the terminal scoring outcome of one attempt.
type AttemptResult struct {
	Score      int     `json:"score"`
	MaxScore   int     `json:"maxScore"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

// AnswerSheet is the frozen answer snapshot sent for scoring. A nil entry
// means the question was skipped.
type AnswerSheet struct {
	QuizID    string    `json:"quizId"`
	StudentID string    `json:"studentId"`
	Answers   []*string `json:"answers"`
}
