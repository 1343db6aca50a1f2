package types

// Quiz definitions are transient: they are posted for validation or produced
// by generation, never persisted by this service. Field names follow the
// admin-client wire format.

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
	QuestionTypeTextAnswer     = "text_answer"
	QuestionTypeMultipleSelect = "multiple_select"
)

type QuizDefinition struct {
	Title     string         `json:"title,omitempty"`
	Questions []QuizQuestion `json:"questions"`
}

// QuizQuestion is a tagged variant: which fields matter depends on Type.
// Loose field types are deliberate; the validation engine reports shape
// problems instead of failing to decode them.
type QuizQuestion struct {
	Type               string            `json:"type"`
	Question           string            `json:"question,omitempty"`
	Statement          string            `json:"statement,omitempty"`
	Options            map[string]string `json:"options,omitempty"`
	CorrectAnswer      interface{}       `json:"correctAnswer,omitempty"`
	CorrectAnswers     interface{}       `json:"correctAnswers,omitempty"`
	AlternativeAnswers interface{}       `json:"alternativeAnswers,omitempty"`
	Points             interface{}       `json:"points,omitempty"`
}

type QuizValidationReport struct {
	Valid    bool        `json:"valid"`
	Errors   []string    `json:"errors"`
	Warnings []string    `json:"warnings"`
	Summary  QuizSummary `json:"summary"`
}

type QuizSummary struct {
	TotalQuestions int            `json:"totalQuestions"`
	TotalPoints    float64        `json:"totalPoints"`
	QuestionTypes  map[string]int `json:"questionTypes"`
}
