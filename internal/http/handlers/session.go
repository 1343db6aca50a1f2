package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/courseforge-backend/internal/http/response"
	"github.com/yungbote/courseforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/courseforge-backend/internal/services"
)

type SessionHandler struct {
	conversations services.ConversationService
	publisher     services.CoursePublishService
}

func NewSessionHandler(conversations services.ConversationService, publisher services.CoursePublishService) *SessionHandler {
	return &SessionHandler{conversations: conversations, publisher: publisher}
}

// POST /api/authoring/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req services.StartConversationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.conversations.StartConversation(dbc, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

type turnReq struct {
	Message string                  `json:"message"`
	History []services.HistoryEntry `json:"history,omitempty"`
	Context map[string]interface{}  `json:"context,omitempty"`
}

// POST /api/authoring/sessions/:id/turns
func (h *SessionHandler) ProcessTurn(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.conversations.ProcessTurn(dbc, services.TurnInput{
		SessionID:      sessionID,
		Message:        req.Message,
		History:        req.History,
		Context:        req.Context,
		IdempotencyKey: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// GET /api/authoring/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	view, err := h.conversations.GetSessionView(dbc, sessionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": view})
}

// GET /api/authoring/sessions?limit=50
func (h *SessionHandler) List(c *gin.Context) {
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	sessions, err := h.conversations.ListSessions(dbc, limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// DELETE /api/authoring/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	deleted, err := h.conversations.DeleteSession(dbc, sessionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": deleted})
}

// POST /api/authoring/sessions/:id/publish
func (h *SessionHandler) Publish(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.publisher.PublishSession(dbc, sessionID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}
