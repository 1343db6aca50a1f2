package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MessageTypeUser      = "user"
	MessageTypeAssistant = "assistant"
	MessageTypeSystem    = "system"

	// DefaultSessionTitle is used until an outline title is known.
	DefaultSessionTitle = "Draft course"
)

// SessionMessage is one entry of a session's message history. The history is
// stored as a single JSON column and replaced wholesale when the client
// resubmits a full transcript.
type SessionMessage struct {
	Type      string                 `json:"type"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// AuthoringSession is one in-progress course-authoring conversation.
type AuthoringSession struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Messages  datatypes.JSON `gorm:"column:messages;type:jsonb" json:"messages"`
	Context   datatypes.JSON `gorm:"column:context;type:jsonb" json:"context"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AuthoringSession) TableName() string { return "authoring_session" }

func (s *AuthoringSession) DecodedMessages() []SessionMessage {
	if len(s.Messages) == 0 {
		return []SessionMessage{}
	}
	var out []SessionMessage
	if err := json.Unmarshal(s.Messages, &out); err != nil {
		return []SessionMessage{}
	}
	return out
}

func (s *AuthoringSession) SetMessages(msgs []SessionMessage) error {
	if msgs == nil {
		msgs = []SessionMessage{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	s.Messages = datatypes.JSON(raw)
	return nil
}

func (s *AuthoringSession) ContextMap() map[string]interface{} {
	if len(s.Context) == 0 {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(s.Context, &out); err != nil || out == nil {
		return map[string]interface{}{}
	}
	return out
}

func (s *AuthoringSession) SetContextMap(m map[string]interface{}) error {
	if m == nil {
		m = map[string]interface{}{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.Context = datatypes.JSON(raw)
	return nil
}

func (s *AuthoringSession) MetadataMap() map[string]interface{} {
	if len(s.Metadata) == 0 {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(s.Metadata, &out); err != nil || out == nil {
		return map[string]interface{}{}
	}
	return out
}

func (s *AuthoringSession) SetMetadataMap(m map[string]interface{}) error {
	if m == nil {
		m = map[string]interface{}{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.Metadata = datatypes.JSON(raw)
	return nil
}

// Outline decodes the current course outline from the session context, or
// returns nil when none has been captured yet.
func (s *AuthoringSession) Outline() *CourseOutline {
	ctx := s.ContextMap()
	raw, ok := ctx["course_structure"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var outline CourseOutline
	if err := json.Unmarshal(encoded, &outline); err != nil {
		return nil
	}
	if strings.TrimSpace(outline.Title) == "" {
		return nil
	}
	return &outline
}

// IsEmpty reports whether the session holds neither a user message nor an
// outline title. Empty sessions are never persisted; this keeps abandoned
// page loads from piling up rows.
func (s *AuthoringSession) IsEmpty() bool {
	for _, m := range s.DecodedMessages() {
		if m.Type == MessageTypeUser && strings.TrimSpace(m.Content) != "" {
			return false
		}
	}
	return s.Outline() == nil
}

// SessionView is the public shape of a session: internal bookkeeping columns
// stay out, publish metadata stays in.
type SessionView struct {
	ID        uuid.UUID              `json:"id"`
	Title     string                 `json:"title"`
	Messages  []ViewMessage          `json:"messages"`
	Context   map[string]interface{} `json:"context"`
	Outline   *CourseOutline         `json:"outline,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type ViewMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummary is the listing shape: enough to render a session picker.
type SessionSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	HasOutline   bool      `json:"has_outline"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
