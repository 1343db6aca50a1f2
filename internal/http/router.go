package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/courseforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/courseforge-backend/internal/http/middleware"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	SessionHandler *httpH.SessionHandler
	QuizHandler    *httpH.QuizHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware("courseforge-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// Authoring sessions
		if cfg.SessionHandler != nil {
			protected.POST("/authoring/sessions", cfg.SessionHandler.Start)
			protected.GET("/authoring/sessions", cfg.SessionHandler.List)
			protected.GET("/authoring/sessions/:id", cfg.SessionHandler.Get)
			protected.POST("/authoring/sessions/:id/turns", cfg.SessionHandler.ProcessTurn)
			protected.DELETE("/authoring/sessions/:id", cfg.SessionHandler.Delete)
			protected.POST("/authoring/sessions/:id/publish", cfg.SessionHandler.Publish)
		}

		// Quizzes
		if cfg.QuizHandler != nil {
			protected.POST("/quizzes/validate", cfg.QuizHandler.Validate)
			protected.POST("/quizzes/generate", cfg.QuizHandler.Generate)
		}
	}

	return r
}
