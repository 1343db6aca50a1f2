package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/courseforge-backend/internal/data/repos"
	"github.com/yungbote/courseforge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/courseforge-backend/internal/pkg/dbctx"
	errs "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

// ConversationService coordinates one authoring chat turn: load the session,
// build the prompt, call the model, extract the outline, update and persist
// the session.
type ConversationService interface {
	StartConversation(dbc dbctx.Context, input StartConversationInput) (*StartConversationResult, error)
	ProcessTurn(dbc dbctx.Context, input TurnInput) (*TurnResult, error)
	GetSessionView(dbc dbctx.Context, sessionID uuid.UUID) (*types.SessionView, error)
	ListSessions(dbc dbctx.Context, limit int) ([]types.SessionSummary, error)
	DeleteSession(dbc dbctx.Context, sessionID uuid.UUID) (bool, error)
}

type StartConversationInput struct {
	SessionID *uuid.UUID             `json:"session_id,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

type StartConversationResult struct {
	SessionID uuid.UUID            `json:"session_id"`
	Title     string               `json:"title"`
	Outline   *types.CourseOutline `json:"outline,omitempty"`
	Saved     bool                 `json:"saved"`
}

// HistoryEntry is one client-submitted transcript row.
type HistoryEntry struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type TurnInput struct {
	SessionID      uuid.UUID
	Message        string
	History        []HistoryEntry
	Context        map[string]interface{}
	IdempotencyKey string
}

type TurnResult struct {
	SessionID      uuid.UUID            `json:"session_id"`
	DisplayMessage string               `json:"display_message"`
	Outline        *types.CourseOutline `json:"outline,omitempty"`
	Saved          bool                 `json:"saved"`
}

type conversationService struct {
	log       *logger.Logger
	sessions  repos.SessionRepo
	prompts   *PromptBuilder
	extractor *OutlineExtractor
	ai        AIClient
	cache     *SessionCache
}

func NewConversationService(
	baseLog *logger.Logger,
	sessionRepo repos.SessionRepo,
	prompts *PromptBuilder,
	extractor *OutlineExtractor,
	ai AIClient,
	cache *SessionCache,
) ConversationService {
	return &conversationService{
		log:       baseLog.With("service", "ConversationService"),
		sessions:  sessionRepo,
		prompts:   prompts,
		extractor: extractor,
		ai:        ai,
		cache:     cache,
	}
}

func (s *conversationService) StartConversation(dbc dbctx.Context, input StartConversationInput) (*StartConversationResult, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}

	id := uuid.New()
	if input.SessionID != nil && *input.SessionID != uuid.Nil {
		id = *input.SessionID
		existing, err := s.sessions.GetByID(dbc, id)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.UserID != rd.UserID {
			return nil, fmt.Errorf("%w: session belongs to another user", errs.ErrInvalidArgument)
		}
		if existing != nil {
			return &StartConversationResult{
				SessionID: existing.ID,
				Title:     existing.Title,
				Outline:   existing.Outline(),
				Saved:     true,
			}, nil
		}
	}

	session := newSession(id, rd.UserID, input.Context)
	// A fresh session usually has no user message yet; the save is expected
	// to be skipped until the first real turn.
	saved, err := s.sessions.Save(dbc, session)
	if err != nil {
		return nil, err
	}
	if saved {
		s.cache.InvalidateSessionList(dbc.Ctx, rd.UserID.String())
	}
	return &StartConversationResult{
		SessionID: session.ID,
		Title:     session.Title,
		Outline:   session.Outline(),
		Saved:     saved,
	}, nil
}

func (s *conversationService) ProcessTurn(dbc dbctx.Context, input TurnInput) (*TurnResult, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", errs.ErrInvalidArgument)
	}
	if input.SessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: session id is required", errs.ErrInvalidArgument)
	}

	if cached := s.cache.GetTurnResult(dbc.Ctx, rd.UserID.String(), input.SessionID.String(), input.IdempotencyKey); cached != nil {
		return cached, nil
	}

	session, err := s.sessions.GetByID(dbc, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		// Unknown ids are created lazily: the client may mint a session id on
		// page load and only present it on the first real turn.
		session = newSession(input.SessionID, rd.UserID, nil)
	}
	if session.UserID != rd.UserID {
		return nil, errs.ErrNotFound
	}

	if input.History != nil {
		if err := replaceMessages(session, input.History); err != nil {
			return nil, err
		}
	}
	if input.Context != nil {
		// Context is replaced wholesale, never merged: the last full context
		// submitted by the client wins.
		if err := session.SetContextMap(input.Context); err != nil {
			return nil, err
		}
	}

	prior := session.Outline()
	prompt := s.prompts.Build(input.Message, session.DecodedMessages(), prior)

	completion, err := s.ai.Complete(dbc.Ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}

	match := s.extractor.match(completion.Content)
	outline := prior
	if match != nil {
		outline = match.outline
	}
	display := s.extractor.DisplayMessage(completion.Content, match, match != nil)

	now := time.Now().UTC()
	messages := session.DecodedMessages()
	messages = append(messages,
		types.SessionMessage{Type: types.MessageTypeUser, Content: input.Message, Timestamp: now},
		types.SessionMessage{Type: types.MessageTypeAssistant, Content: display, Timestamp: now},
	)
	if err := session.SetMessages(messages); err != nil {
		return nil, err
	}

	if outline != nil {
		ctxMap := session.ContextMap()
		ctxMap["course_structure"] = outline
		if err := session.SetContextMap(ctxMap); err != nil {
			return nil, err
		}
	}
	applyTitleRule(session)

	saved, err := s.sessions.Save(dbc, session)
	if err != nil {
		return nil, err
	}
	if saved {
		s.cache.InvalidateSessionList(dbc.Ctx, rd.UserID.String())
	}

	result := &TurnResult{
		SessionID:      session.ID,
		DisplayMessage: display,
		Outline:        outline,
		Saved:          saved,
	}
	s.cache.StoreTurnResult(dbc.Ctx, rd.UserID.String(), input.SessionID.String(), input.IdempotencyKey, result)
	return result, nil
}

func (s *conversationService) GetSessionView(dbc dbctx.Context, sessionID uuid.UUID) (*types.SessionView, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != rd.UserID {
		return nil, errs.ErrNotFound
	}

	msgs := session.DecodedMessages()
	view := &types.SessionView{
		ID:        session.ID,
		Title:     session.Title,
		Messages:  make([]types.ViewMessage, 0, len(msgs)),
		Context:   session.ContextMap(),
		Outline:   session.Outline(),
		Metadata:  session.MetadataMap(),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
	for _, m := range msgs {
		view.Messages = append(view.Messages, types.ViewMessage{
			Role:      m.Type,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return view, nil
}

func (s *conversationService) ListSessions(dbc dbctx.Context, limit int) ([]types.SessionSummary, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}

	if raw := s.cache.GetSessionList(dbc.Ctx, rd.UserID.String()); raw != nil {
		var cached []types.SessionSummary
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.sessions.ListByUser(dbc, rd.UserID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.SessionSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.SessionSummary{
			ID:           row.ID,
			Title:        row.Title,
			MessageCount: len(row.DecodedMessages()),
			HasOutline:   row.Outline() != nil,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
		})
	}
	if payload, err := json.Marshal(out); err == nil {
		s.cache.StoreSessionList(dbc.Ctx, rd.UserID.String(), payload)
	}
	return out, nil
}

func (s *conversationService) DeleteSession(dbc dbctx.Context, sessionID uuid.UUID) (bool, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return false, errs.ErrUnauthorized
	}
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}
	if session.UserID != rd.UserID {
		return false, errs.ErrNotFound
	}
	found, err := s.sessions.Delete(dbc, sessionID)
	if err != nil {
		return false, err
	}
	if found {
		s.cache.InvalidateSessionList(dbc.Ctx, rd.UserID.String())
	}
	return found, nil
}

func newSession(id, userID uuid.UUID, initialContext map[string]interface{}) *types.AuthoringSession {
	now := time.Now().UTC()
	session := &types.AuthoringSession{
		ID:        id,
		UserID:    userID,
		Title:     types.DefaultSessionTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_ = session.SetMessages(nil)
	_ = session.SetContextMap(initialContext)
	_ = session.SetMetadataMap(nil)
	applyTitleRule(session)
	return session
}

// replaceMessages rebuilds the whole message sequence from a client-provided
// transcript. Roles map user->user and system->system; everything else is
// treated as assistant.
func replaceMessages(session *types.AuthoringSession, history []HistoryEntry) error {
	msgs := make([]types.SessionMessage, 0, len(history))
	for _, entry := range history {
		msgType := types.MessageTypeAssistant
		switch strings.ToLower(strings.TrimSpace(entry.Role)) {
		case "user":
			msgType = types.MessageTypeUser
		case "system":
			msgType = types.MessageTypeSystem
		}
		msg := types.SessionMessage{
			Type:    msgType,
			Content: entry.Content,
		}
		if entry.Timestamp != nil {
			msg.Timestamp = entry.Timestamp.UTC()
			msg.Metadata = map[string]interface{}{"timestamp": entry.Timestamp.UTC().Format(time.RFC3339)}
		}
		msgs = append(msgs, msg)
	}
	return session.SetMessages(msgs)
}

// applyTitleRule rewrites the session title to "Course: {title}" whenever the
// context carries an outline title that differs from the current one. The
// legacy course_data key is honored for older clients.
func applyTitleRule(session *types.AuthoringSession) {
	title := titleFromContext(session.ContextMap())
	if title == "" {
		return
	}
	derived := "Course: " + title
	if session.Title != derived {
		session.Title = derived
	}
}

func titleFromContext(ctxMap map[string]interface{}) string {
	for _, key := range []string{"course_structure", "course_data"} {
		raw, ok := ctxMap[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case map[string]interface{}:
			if title, ok := v["title"].(string); ok && strings.TrimSpace(title) != "" {
				return strings.TrimSpace(title)
			}
		case *types.CourseOutline:
			if v != nil && strings.TrimSpace(v.Title) != "" {
				return strings.TrimSpace(v.Title)
			}
		case types.CourseOutline:
			if strings.TrimSpace(v.Title) != "" {
				return strings.TrimSpace(v.Title)
			}
		}
	}
	return ""
}
