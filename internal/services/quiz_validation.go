package services

import (
	"fmt"
	"strings"

	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

// QuizValidationService checks a quiz definition against per-type structural
// rules. Validation is a pure function of its input: it never mutates the
// quiz and never persists anything.
type QuizValidationService interface {
	Validate(quiz types.QuizDefinition) types.QuizValidationReport
}

type quizValidationService struct {
	log    *logger.Logger
	checks map[string]questionCheck
}

// questionCheck validates one tagged variant. Index is 1-based for
// user-facing messages.
type questionCheck func(idx int, q types.QuizQuestion, r *quizReport)

func NewQuizValidationService(log *logger.Logger) QuizValidationService {
	s := &quizValidationService{
		log: log.With("service", "QuizValidationService"),
	}
	s.checks = map[string]questionCheck{
		types.QuestionTypeMultipleChoice: checkMultipleChoice,
		types.QuestionTypeTrueFalse:      checkTrueFalse,
		types.QuestionTypeTextAnswer:     checkTextAnswer,
		types.QuestionTypeMultipleSelect: checkMultipleSelect,
	}
	return s
}

type quizReport struct {
	errors   []string
	warnings []string
}

func (r *quizReport) errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *quizReport) warnf(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (s *quizValidationService) Validate(quiz types.QuizDefinition) types.QuizValidationReport {
	r := &quizReport{errors: []string{}, warnings: []string{}}

	if strings.TrimSpace(quiz.Title) == "" {
		r.warnf("Quiz has no title")
	}
	if len(quiz.Questions) == 0 {
		return types.QuizValidationReport{
			Valid:    false,
			Errors:   []string{"No questions found in quiz"},
			Warnings: r.warnings,
			Summary:  types.QuizSummary{QuestionTypes: map[string]int{}},
		}
	}

	summary := types.QuizSummary{
		TotalQuestions: len(quiz.Questions),
		QuestionTypes:  map[string]int{},
	}

	for i, q := range quiz.Questions {
		idx := i + 1

		if strings.TrimSpace(questionText(q)) == "" {
			r.errorf("Question %d: missing question text", idx)
		}

		qType := strings.TrimSpace(q.Type)
		if qType == "" {
			r.errorf("Question %d: missing question type", idx)
		} else {
			summary.QuestionTypes[qType]++
			if check, ok := s.checks[qType]; ok {
				check(idx, q, r)
			} else {
				// Unknown types pass structurally; new question types must not
				// break older validators.
				r.warnf("Question %d: unknown question type %q", idx, qType)
			}
		}

		summary.TotalPoints += questionPoints(idx, q, r)
	}

	return types.QuizValidationReport{
		Valid:    len(r.errors) == 0,
		Errors:   r.errors,
		Warnings: r.warnings,
		Summary:  summary,
	}
}

func questionText(q types.QuizQuestion) string {
	if q.Type == types.QuestionTypeTrueFalse {
		return q.Statement
	}
	if strings.TrimSpace(q.Question) != "" {
		return q.Question
	}
	return q.Statement
}

func questionPoints(idx int, q types.QuizQuestion, r *quizReport) float64 {
	pts, ok := q.Points.(float64)
	if !ok || pts <= 0 {
		r.warnf("Question %d: invalid points value, defaulting to 1", idx)
		return 1
	}
	return pts
}

func checkMultipleChoice(idx int, q types.QuizQuestion, r *quizReport) {
	if len(q.Options) < 2 {
		r.errorf("Question %d: multiple choice requires at least 2 options", idx)
		return
	}
	// The correct answer is stored as an option value, not a key.
	answer, _ := q.CorrectAnswer.(string)
	for _, label := range q.Options {
		if label == answer {
			return
		}
	}
	r.errorf("Question %d: Correct answer is not in options", idx)
}

func checkTrueFalse(idx int, q types.QuizQuestion, r *quizReport) {
	if _, ok := q.CorrectAnswer.(bool); !ok {
		r.warnf("Question %d: true/false answer should be a boolean", idx)
	}
}

func checkTextAnswer(idx int, q types.QuizQuestion, r *quizReport) {
	answer, _ := q.CorrectAnswer.(string)
	if strings.TrimSpace(answer) == "" {
		r.errorf("Question %d: missing correct answer", idx)
	}
	if q.AlternativeAnswers == nil {
		return
	}
	if _, ok := q.AlternativeAnswers.([]interface{}); !ok {
		r.warnf("Question %d: alternative answers should be a list", idx)
	}
}

func checkMultipleSelect(idx int, q types.QuizQuestion, r *quizReport) {
	if len(q.Options) < 3 {
		r.errorf("Question %d: multiple select requires at least 3 options", idx)
		return
	}
	answers, ok := q.CorrectAnswers.([]interface{})
	if !ok || len(answers) < 2 {
		r.errorf("Question %d: multiple select requires at least 2 correct answers", idx)
		return
	}
	// The correct answers reference option keys. Stop at the first bad
	// reference so one broken question doesn't flood the report.
	for _, a := range answers {
		key, _ := a.(string)
		if _, exists := q.Options[key]; !exists {
			r.errorf("Question %d: correct answer %q is not an option key", idx, key)
			return
		}
	}
}
