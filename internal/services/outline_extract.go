package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

// OutlineExtractor pulls a structured course outline out of free-form model
// output. Models are inconsistent about fencing, so extraction runs an
// ordered chain of strategies and takes the first hit. A miss is a normal
// outcome: the caller keeps the prior outline.
type OutlineExtractor struct {
	log *logger.Logger
}

func NewOutlineExtractor(log *logger.Logger) *OutlineExtractor {
	return &OutlineExtractor{log: log.With("service", "OutlineExtractor")}
}

// outlineMatch carries the decoded outline plus the exact substring of the
// response it was decoded from, so the display text can strip it.
type outlineMatch struct {
	outline *types.CourseOutline
	span    string
}

type extractStrategy func(text string) *outlineMatch

func (e *OutlineExtractor) strategies() []extractStrategy {
	return []extractStrategy{
		matchFencedJSON,
		matchBraceSpan,
	}
}

// Extract returns the outline found in responseText, or prior when the text
// carries no valid structure. It never invents an outline and never errors
// on malformed JSON.
func (e *OutlineExtractor) Extract(responseText string, prior *types.CourseOutline) *types.CourseOutline {
	if m := e.match(responseText); m != nil {
		return m.outline
	}
	return prior
}

func (e *OutlineExtractor) match(responseText string) *outlineMatch {
	for _, strategy := range e.strategies() {
		if m := strategy(responseText); m != nil {
			return m
		}
	}
	return nil
}

// DisplayMessage derives the user-facing assistant text from a raw response:
// the JSON span is stripped, and canned text fills the gaps when stripping
// leaves nothing readable.
func (e *OutlineExtractor) DisplayMessage(responseText string, m *outlineMatch, outlineIsNew bool) string {
	display := responseText
	if m != nil && m.span != "" {
		display = strings.Replace(display, m.span, "", 1)
	}
	display = strings.TrimSpace(display)

	if display == "" && outlineIsNew && m != nil && m.outline != nil {
		return fmt.Sprintf(
			"I've created a course structure for %q. This course includes %d sections with %d lessons. Review the outline and tell me what you'd like to change.",
			m.outline.Title, len(m.outline.Sections), m.outline.LessonCount(),
		)
	}
	if m == nil && strings.Contains(display, "{") && strings.Contains(display, "}") {
		// Malformed structure the user should not see raw.
		return "I've updated the course structure based on your request."
	}
	if display == "" {
		return "Let me know how you'd like to adjust your course."
	}
	return display
}

// matchFencedJSON looks for a ```json fenced block and decodes its body.
func matchFencedJSON(text string) *outlineMatch {
	start := indexJSONFence(text)
	if start == -1 {
		return nil
	}
	bodyStart := start + len("```json")
	end := strings.Index(text[bodyStart:], "```")
	if end == -1 {
		return nil
	}
	body := text[bodyStart : bodyStart+end]
	outline := decodeOutline(body)
	if outline == nil {
		return nil
	}
	return &outlineMatch{
		outline: outline,
		span:    text[start : bodyStart+end+len("```")],
	}
}

// indexJSONFence finds the first ```json marker, folding only the marker
// itself. Lowercasing the whole response is not safe: case mapping can
// change byte length on non-ASCII text and shift every index after it.
func indexJSONFence(text string) int {
	for from := 0; ; {
		rel := strings.Index(text[from:], "```")
		if rel == -1 {
			return -1
		}
		at := from + rel
		rest := text[at+3:]
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			return at
		}
		from = at + 3
	}
}

// matchBraceSpan tries the widest brace span in the whole text, for models
// that emit bare JSON without fencing.
func matchBraceSpan(text string) *outlineMatch {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return nil
	}
	span := text[first : last+1]
	outline := decodeOutline(span)
	if outline == nil {
		return nil
	}
	return &outlineMatch{outline: outline, span: span}
}

// decodeOutline accepts only objects carrying a title and an array-typed
// sections key; anything else is a miss.
func decodeOutline(raw string) *types.CourseOutline {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var shape map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &shape); err != nil {
		return nil
	}
	title, ok := shape["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil
	}
	if _, ok := shape["sections"].([]interface{}); !ok {
		return nil
	}
	var outline types.CourseOutline
	if err := json.Unmarshal([]byte(raw), &outline); err != nil {
		return nil
	}
	if outline.Sections == nil {
		outline.Sections = []types.OutlineSection{}
	}
	return &outline
}
