package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

//go:embed prompts.yaml
var promptSpecRaw []byte

// historyWindow bounds how many past turns go into the prompt.
const historyWindow = 5

type promptSpec struct {
	Version               int      `yaml:"version"`
	Framing               string   `yaml:"framing"`
	StructureKeywords     []string `yaml:"structure_keywords"`
	StructuredInstruction string   `yaml:"structured_instruction"`
}

// PromptBuilder assembles the LLM prompt for one turn from the session
// history, the current outline, and the new user message. Template text and
// the trigger keyword list live in the embedded prompts.yaml.
type PromptBuilder struct {
	log  *logger.Logger
	spec promptSpec
}

func NewPromptBuilder(log *logger.Logger) (*PromptBuilder, error) {
	var spec promptSpec
	if err := yaml.Unmarshal(promptSpecRaw, &spec); err != nil {
		return nil, fmt.Errorf("parse prompts.yaml: %w", err)
	}
	if strings.TrimSpace(spec.Framing) == "" {
		return nil, fmt.Errorf("prompts.yaml: missing framing")
	}
	if len(spec.StructureKeywords) == 0 {
		return nil, fmt.Errorf("prompts.yaml: missing structure_keywords")
	}
	if strings.TrimSpace(spec.StructuredInstruction) == "" {
		return nil, fmt.Errorf("prompts.yaml: missing structured_instruction")
	}
	return &PromptBuilder{
		log:  log.With("service", "PromptBuilder"),
		spec: spec,
	}, nil
}

func (b *PromptBuilder) Build(userMessage string, history []types.SessionMessage, outline *types.CourseOutline) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(b.spec.Framing))
	sb.WriteString("\n\n")

	// The model must echo the complete structure on every edit, so embed the
	// whole outline, not just the title.
	hasOutline := outline != nil && strings.TrimSpace(outline.Title) != ""
	if hasOutline {
		pretty, err := json.MarshalIndent(outline, "", "  ")
		if err == nil {
			sb.WriteString("Current course structure:\n```json\n")
			sb.Write(pretty)
			sb.WriteString("\n```\n\n")
		}
	}

	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	if len(recent) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, m := range recent {
			sb.WriteString(m.Type)
			sb.WriteString(": ")
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("user: ")
	sb.WriteString(userMessage)
	sb.WriteString("\n")

	if hasOutline || b.wantsStructuredResponse(userMessage) {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(b.spec.StructuredInstruction))
		sb.WriteString("\n")
	}
	return sb.String()
}

// wantsStructuredResponse checks the user message against the fixed keyword
// set, case-insensitive substring match.
func (b *PromptBuilder) wantsStructuredResponse(userMessage string) bool {
	lower := strings.ToLower(userMessage)
	for _, kw := range b.spec.StructureKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
