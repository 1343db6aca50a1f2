package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	errs "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

const quizGenConcurrency = 3

// QuizGenerationService asks the model for quiz questions and runs every
// result through the validation engine before handing it back. Invalid
// generations are returned with their report, not silently dropped.
type QuizGenerationService interface {
	GenerateQuiz(ctx context.Context, topic string, questionCount int) (*GeneratedQuiz, error)
	GenerateForOutline(ctx context.Context, outline types.CourseOutline, questionsPerSection int) ([]GeneratedQuiz, error)
}

type GeneratedQuiz struct {
	SectionTitle string                     `json:"section_title,omitempty"`
	Quiz         types.QuizDefinition       `json:"quiz"`
	Report       types.QuizValidationReport `json:"report"`
}

type quizGenerationService struct {
	log       *logger.Logger
	ai        AIClient
	validator QuizValidationService
}

func NewQuizGenerationService(baseLog *logger.Logger, ai AIClient, validator QuizValidationService) QuizGenerationService {
	return &quizGenerationService{
		log:       baseLog.With("service", "QuizGenerationService"),
		ai:        ai,
		validator: validator,
	}
}

func (s *quizGenerationService) GenerateQuiz(ctx context.Context, topic string, questionCount int) (*GeneratedQuiz, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", errs.ErrInvalidArgument)
	}
	if questionCount <= 0 {
		questionCount = 5
	}

	quiz, err := s.generate(ctx, topic, nil, questionCount)
	if err != nil {
		return nil, err
	}
	return &GeneratedQuiz{
		Quiz:   *quiz,
		Report: s.validator.Validate(*quiz),
	}, nil
}

func (s *quizGenerationService) GenerateForOutline(ctx context.Context, outline types.CourseOutline, questionsPerSection int) ([]GeneratedQuiz, error) {
	if strings.TrimSpace(outline.Title) == "" || len(outline.Sections) == 0 {
		return nil, fmt.Errorf("%w: outline with sections is required", errs.ErrInvalidArgument)
	}
	if questionsPerSection <= 0 {
		questionsPerSection = 3
	}

	out := make([]GeneratedQuiz, len(outline.Sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(quizGenConcurrency)

	for i, section := range outline.Sections {
		i, section := i, section
		g.Go(func() error {
			lessonTitles := make([]string, 0, len(section.Lessons))
			for _, l := range section.Lessons {
				lessonTitles = append(lessonTitles, l.Title)
			}
			quiz, err := s.generate(gctx, section.Title, lessonTitles, questionsPerSection)
			if err != nil {
				return fmt.Errorf("section %q: %w", section.Title, err)
			}
			out[i] = GeneratedQuiz{
				SectionTitle: section.Title,
				Quiz:         *quiz,
				Report:       s.validator.Validate(*quiz),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *quizGenerationService) generate(ctx context.Context, topic string, lessonTitles []string, count int) (*types.QuizDefinition, error) {
	prompt := buildQuizPrompt(topic, lessonTitles, count)
	completion, err := s.ai.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}

	raw := stripCodeFences(completion.Content)
	var quiz types.QuizDefinition
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return nil, fmt.Errorf("%w: model returned unparseable quiz: %v", errs.ErrUpstream, err)
	}
	if strings.TrimSpace(quiz.Title) == "" {
		quiz.Title = topic + " quiz"
	}
	return &quiz, nil
}

func buildQuizPrompt(topic string, lessonTitles []string, count int) string {
	var sb strings.Builder
	sb.WriteString("Write a quiz as a single JSON object with keys \"title\" and \"questions\".\n")
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	if len(lessonTitles) > 0 {
		fmt.Fprintf(&sb, "Lessons covered: %s\n", strings.Join(lessonTitles, "; "))
	}
	fmt.Fprintf(&sb, "Produce exactly %d questions. Each question has a \"type\" of multiple_choice, true_false, text_answer, or multiple_select.\n", count)
	sb.WriteString(`Field rules per type:
- multiple_choice: "question", "options" (object of key to label, at least 2), "correctAnswer" (one option label), "points"
- true_false: "statement", "correctAnswer" (true or false), "points"
- text_answer: "question", "correctAnswer", optional "alternativeAnswers" (array of strings), "points"
- multiple_select: "question", "options" (at least 3), "correctAnswers" (array of at least 2 option keys), "points"
Reply with only the JSON object, no prose.`)
	return sb.String()
}

// stripCodeFences drops a leading ```lang line and trailing ``` so fenced
// model output parses as plain JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
