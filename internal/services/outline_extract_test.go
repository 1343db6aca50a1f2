package services

import (
	"strings"
	"testing"

	"github.com/yungbote/courseforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/types"
)

const sampleOutlineJSON = `{
  "title": "Intro to Gardening",
  "description": "A beginner course.",
  "sections": [
    {
      "title": "Soil Basics",
      "description": "What soil is made of.",
      "lessons": [
        {"title": "Soil Types", "duration": "10 min", "content": "Clay, silt, sand."},
        {"title": "Composting", "duration": "15 min", "content": "Turning scraps into soil."}
      ]
    }
  ]
}`

func newTestExtractor(t *testing.T) *OutlineExtractor {
	t.Helper()
	return NewOutlineExtractor(testutil.Logger(t))
}

func TestExtract_FencedJSONWins(t *testing.T) {
	e := newTestExtractor(t)
	text := "Here is your course:\n```json\n" + sampleOutlineJSON + "\n```\nLet me know."

	out := e.Extract(text, nil)
	if out == nil {
		t.Fatalf("expected an outline")
	}
	if out.Title != "Intro to Gardening" {
		t.Fatalf("unexpected title %q", out.Title)
	}
	if len(out.Sections) != 1 || len(out.Sections[0].Lessons) != 2 {
		t.Fatalf("unexpected shape: %d sections", len(out.Sections))
	}
}

func TestExtract_FencedJSONCaseInsensitiveMarker(t *testing.T) {
	e := newTestExtractor(t)
	text := "```JSON\n" + sampleOutlineJSON + "\n```"

	out := e.Extract(text, nil)
	if out == nil || out.Title != "Intro to Gardening" {
		t.Fatalf("expected outline from upper-case fence marker, got %+v", out)
	}
}

func TestExtract_MultibyteProseBeforeDanglingFence(t *testing.T) {
	e := newTestExtractor(t)
	prior := &types.CourseOutline{Title: "Existing"}

	// Non-ASCII text whose lower-case mapping has a different byte length,
	// followed by a fence marker with no body.
	text := strings.Repeat("Ⱥ", 100) + "```json"
	out := e.Extract(text, prior)
	if out != prior {
		t.Fatalf("expected prior outline for dangling fence, got %+v", out)
	}
}

func TestExtract_MultibyteProseBeforeFencedOutline(t *testing.T) {
	e := newTestExtractor(t)
	text := strings.Repeat("Ⱥ", 40) + " voilà:\n```JSON\n" + sampleOutlineJSON + "\n```"

	out := e.Extract(text, nil)
	if out == nil || out.Title != "Intro to Gardening" {
		t.Fatalf("expected outline after multibyte prose, got %+v", out)
	}

	m := e.match(text)
	got := e.DisplayMessage(text, m, true)
	if strings.Contains(got, "```") {
		t.Fatalf("expected fenced span stripped from display text, got %q", got)
	}
}

func TestExtract_BareBraceSpan(t *testing.T) {
	e := newTestExtractor(t)
	text := "Sure thing. " + sampleOutlineJSON + " Anything else?"

	out := e.Extract(text, nil)
	if out == nil || out.Title != "Intro to Gardening" {
		t.Fatalf("expected outline from bare braces, got %+v", out)
	}
}

func TestExtract_MalformedJSONKeepsPrior(t *testing.T) {
	e := newTestExtractor(t)
	prior := &types.CourseOutline{Title: "Existing"}

	out := e.Extract("```json\n{\"title\": \"x\", \"sections\": [\n```", prior)
	if out != prior {
		t.Fatalf("expected prior outline on malformed JSON")
	}
}

func TestExtract_MissingTitleIsAMiss(t *testing.T) {
	e := newTestExtractor(t)
	out := e.Extract(`{"sections": []}`, nil)
	if out != nil {
		t.Fatalf("expected nil for outline without title, got %+v", out)
	}
}

func TestExtract_NonArraySectionsIsAMiss(t *testing.T) {
	e := newTestExtractor(t)
	out := e.Extract(`{"title": "T", "sections": "nope"}`, nil)
	if out != nil {
		t.Fatalf("expected nil for non-array sections, got %+v", out)
	}
}

func TestExtract_ProseOnlyKeepsPrior(t *testing.T) {
	e := newTestExtractor(t)
	prior := &types.CourseOutline{Title: "Existing"}

	out := e.Extract("Gardening is a great hobby to learn.", prior)
	if out != prior {
		t.Fatalf("expected prior outline for prose-only response")
	}
}

func TestExtract_TitlePresentButBlankIsAMiss(t *testing.T) {
	e := newTestExtractor(t)
	out := e.Extract(`{"title": "   ", "sections": []}`, nil)
	if out != nil {
		t.Fatalf("expected nil for blank title, got %+v", out)
	}
}

func TestDisplayMessage_StripsSpanKeepsProse(t *testing.T) {
	e := newTestExtractor(t)
	text := "Here is the plan.\n```json\n" + sampleOutlineJSON + "\n```"

	m := e.match(text)
	if m == nil {
		t.Fatalf("expected a match")
	}
	got := e.DisplayMessage(text, m, true)
	if got != "Here is the plan." {
		t.Fatalf("unexpected display text %q", got)
	}
}

func TestDisplayMessage_JSONOnlyNewOutlineGetsSummary(t *testing.T) {
	e := newTestExtractor(t)
	text := "```json\n" + sampleOutlineJSON + "\n```"

	m := e.match(text)
	got := e.DisplayMessage(text, m, true)
	if !strings.Contains(got, `"Intro to Gardening"`) {
		t.Fatalf("expected title in summary, got %q", got)
	}
	if !strings.Contains(got, "1 sections with 2 lessons") {
		t.Fatalf("expected section/lesson counts, got %q", got)
	}
}

func TestDisplayMessage_LeftoverBracesWithoutMatch(t *testing.T) {
	e := newTestExtractor(t)
	text := `{"title": broken json}`

	got := e.DisplayMessage(text, nil, false)
	if got != "I've updated the course structure based on your request." {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestDisplayMessage_EmptyResponse(t *testing.T) {
	e := newTestExtractor(t)
	got := e.DisplayMessage("", nil, false)
	if got != "Let me know how you'd like to adjust your course." {
		t.Fatalf("unexpected empty fallback %q", got)
	}
}
