package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/yungbote/courseforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/types"
)

func newTestPromptBuilder(t *testing.T) *PromptBuilder {
	t.Helper()
	b, err := NewPromptBuilder(testutil.Logger(t))
	if err != nil {
		t.Fatalf("NewPromptBuilder: %v", err)
	}
	return b
}

func TestBuild_PlainQuestionOmitsInstruction(t *testing.T) {
	b := newTestPromptBuilder(t)
	prompt := b.Build("What makes a good beginner topic?", nil, nil)

	if strings.Contains(prompt, "Never reply with a partial structure") {
		t.Fatalf("expected no structured instruction for plain question:\n%s", prompt)
	}
	if !strings.Contains(prompt, "user: What makes a good beginner topic?") {
		t.Fatalf("expected user message in prompt:\n%s", prompt)
	}
}

func TestBuild_StructureKeywordTriggersInstruction(t *testing.T) {
	b := newTestPromptBuilder(t)
	prompt := b.Build("Please CREATE something about photography", nil, nil)

	if !strings.Contains(prompt, "Never reply with a partial structure") {
		t.Fatalf("expected structured instruction for keyword message:\n%s", prompt)
	}
}

func TestBuild_ExistingOutlineAlwaysTriggersInstruction(t *testing.T) {
	b := newTestPromptBuilder(t)
	outline := &types.CourseOutline{Title: "Photography 101"}
	prompt := b.Build("thanks, looks good", nil, outline)

	if !strings.Contains(prompt, "Never reply with a partial structure") {
		t.Fatalf("expected structured instruction when an outline exists:\n%s", prompt)
	}
}

func TestBuild_EmbedsFullOutlineJSON(t *testing.T) {
	b := newTestPromptBuilder(t)
	outline := &types.CourseOutline{
		Title: "Photography 101",
		Sections: []types.OutlineSection{
			{Title: "Exposure", Lessons: []types.OutlineLesson{{Title: "Aperture"}}},
		},
	}
	prompt := b.Build("rename the first section", nil, outline)

	if !strings.Contains(prompt, "Current course structure:") {
		t.Fatalf("expected outline header:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"Aperture"`) {
		t.Fatalf("expected nested lesson in embedded outline:\n%s", prompt)
	}
}

func TestBuild_UntitledOutlineIsNotEmbedded(t *testing.T) {
	b := newTestPromptBuilder(t)
	outline := &types.CourseOutline{Title: "  "}
	prompt := b.Build("hello", nil, outline)

	if strings.Contains(prompt, "Current course structure:") {
		t.Fatalf("expected no outline block for untitled outline:\n%s", prompt)
	}
}

func TestBuild_HistoryCappedAtFiveTurns(t *testing.T) {
	b := newTestPromptBuilder(t)
	var history []types.SessionMessage
	for i := 1; i <= 8; i++ {
		history = append(history, types.SessionMessage{
			Type:    types.MessageTypeUser,
			Content: fmt.Sprintf("turn %d", i),
		})
	}
	prompt := b.Build("next", history, nil)

	if strings.Contains(prompt, "turn 3") {
		t.Fatalf("expected older turns dropped:\n%s", prompt)
	}
	for i := 4; i <= 8; i++ {
		if !strings.Contains(prompt, fmt.Sprintf("turn %d", i)) {
			t.Fatalf("expected turn %d in prompt:\n%s", i, prompt)
		}
	}
}

func TestBuild_HistoryLinesUseRolePrefix(t *testing.T) {
	b := newTestPromptBuilder(t)
	history := []types.SessionMessage{
		{Type: types.MessageTypeUser, Content: "make a course"},
		{Type: types.MessageTypeAssistant, Content: "sure"},
	}
	prompt := b.Build("go on", history, nil)

	if !strings.Contains(prompt, "user: make a course\nassistant: sure\n") {
		t.Fatalf("expected role-prefixed history lines:\n%s", prompt)
	}
}
