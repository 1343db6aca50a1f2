package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/courseforge-backend/internal/data/repos/testutil"
	errs "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/types"
)

const fencedQuizJSON = "```json\n" + `{
  "title": "Soil Quiz",
  "questions": [
    {
      "type": "multiple_choice",
      "question": "Which soil drains fastest?",
      "options": {"a": "Clay", "b": "Sand"},
      "correctAnswer": "Sand",
      "points": 1
    }
  ]
}` + "\n```"

func newTestGenerator(t *testing.T, ai AIClient) QuizGenerationService {
	t.Helper()
	log := testutil.Logger(t)
	return NewQuizGenerationService(log, ai, NewQuizValidationService(log))
}

func TestGenerateQuiz_ParsesFencedResponseAndValidates(t *testing.T) {
	svc := newTestGenerator(t, &fakeAI{response: fencedQuizJSON})

	got, err := svc.GenerateQuiz(context.Background(), "soil", 1)
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if got.Quiz.Title != "Soil Quiz" {
		t.Fatalf("unexpected title %q", got.Quiz.Title)
	}
	if !got.Report.Valid {
		t.Fatalf("expected valid report, errors %v", got.Report.Errors)
	}
	if got.Report.Summary.TotalQuestions != 1 {
		t.Fatalf("unexpected summary %+v", got.Report.Summary)
	}
}

func TestGenerateQuiz_UntitledQuizGetsTopicTitle(t *testing.T) {
	svc := newTestGenerator(t, &fakeAI{response: `{"questions": [{"type": "text_answer", "question": "Q?", "correctAnswer": "A", "points": 1}]}`})

	got, err := svc.GenerateQuiz(context.Background(), "knots", 1)
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if got.Quiz.Title != "knots quiz" {
		t.Fatalf("unexpected fallback title %q", got.Quiz.Title)
	}
}

func TestGenerateQuiz_BlankTopicRejected(t *testing.T) {
	svc := newTestGenerator(t, &fakeAI{})

	_, err := svc.GenerateQuiz(context.Background(), "  ", 1)
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestGenerateQuiz_UnparseableResponseIsUpstreamError(t *testing.T) {
	svc := newTestGenerator(t, &fakeAI{response: "Sorry, I can't do that."})

	_, err := svc.GenerateQuiz(context.Background(), "soil", 1)
	if !errors.Is(err, errs.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestGenerateForOutline_OneQuizPerSectionInOrder(t *testing.T) {
	svc := newTestGenerator(t, &fakeAI{response: fencedQuizJSON})
	outline := types.CourseOutline{
		Title: "Gardening",
		Sections: []types.OutlineSection{
			{Title: "Soil"},
			{Title: "Watering"},
			{Title: "Pruning"},
			{Title: "Harvest"},
		},
	}

	got, err := svc.GenerateForOutline(context.Background(), outline, 1)
	if err != nil {
		t.Fatalf("GenerateForOutline: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 quizzes, got %d", len(got))
	}
	for i, want := range []string{"Soil", "Watering", "Pruning", "Harvest"} {
		if got[i].SectionTitle != want {
			t.Fatalf("expected section %q at index %d, got %q", want, i, got[i].SectionTitle)
		}
	}
}

func TestGenerateForOutline_SectionlessOutlineRejected(t *testing.T) {
	svc := newTestGenerator(t, &fakeAI{})

	_, err := svc.GenerateForOutline(context.Background(), types.CourseOutline{Title: "T"}, 1)
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"fenced json", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced plain", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"padded", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
