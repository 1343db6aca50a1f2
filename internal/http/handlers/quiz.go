package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseforge-backend/internal/http/response"
	"github.com/yungbote/courseforge-backend/internal/services"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type QuizHandler struct {
	validator services.QuizValidationService
	generator services.QuizGenerationService
}

func NewQuizHandler(validator services.QuizValidationService, generator services.QuizGenerationService) *QuizHandler {
	return &QuizHandler{validator: validator, generator: generator}
}

// POST /api/quizzes/validate
func (h *QuizHandler) Validate(c *gin.Context) {
	var quiz types.QuizDefinition
	if err := c.ShouldBindJSON(&quiz); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.validator.Validate(quiz))
}

type generateQuizReq struct {
	Topic               string               `json:"topic,omitempty"`
	QuestionCount       int                  `json:"question_count,omitempty"`
	Outline             *types.CourseOutline `json:"outline,omitempty"`
	QuestionsPerSection int                  `json:"questions_per_section,omitempty"`
}

// POST /api/quizzes/generate
func (h *QuizHandler) Generate(c *gin.Context) {
	var req generateQuizReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if req.Outline != nil {
		quizzes, err := h.generator.GenerateForOutline(c.Request.Context(), *req.Outline, req.QuestionsPerSection)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"quizzes": quizzes})
		return
	}

	quiz, err := h.generator.GenerateQuiz(c.Request.Context(), req.Topic, req.QuestionCount)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, quiz)
}
