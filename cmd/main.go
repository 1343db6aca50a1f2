package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/courseforge-backend/internal/data/repos"
	"github.com/yungbote/courseforge-backend/internal/db"
	httpserver "github.com/yungbote/courseforge-backend/internal/http"
	"github.com/yungbote/courseforge-backend/internal/http/handlers"
	"github.com/yungbote/courseforge-backend/internal/http/middleware"
	"github.com/yungbote/courseforge-backend/internal/observability"
	"github.com/yungbote/courseforge-backend/internal/pkg/logger"
	"github.com/yungbote/courseforge-backend/internal/services"
	"github.com/yungbote/courseforge-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "courseforge-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Database
	dbService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	gormDB := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(gormDB, log)
	userTokenRepo := repos.NewUserTokenRepo(gormDB, log)
	sessionRepo := repos.NewSessionRepo(gormDB, log)
	courseRepo := repos.NewCourseRepo(gormDB, log)

	// Services
	log.Info("Setting up Services from main...")
	aiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	sessionCache, err := services.NewSessionCache(log)
	if err != nil {
		log.Warn("Session cache disabled", "error", err)
	}
	promptBuilder, err := services.NewPromptBuilder(log)
	if err != nil {
		log.Error("Could not init PromptBuilder", "error", err)
		os.Exit(1)
	}
	extractor := services.NewOutlineExtractor(log)
	authService := services.NewAuthService(gormDB, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	conversationService := services.NewConversationService(log, sessionRepo, promptBuilder, extractor, aiClient, sessionCache)
	publishService := services.NewCoursePublishService(gormDB, log, sessionRepo, courseRepo)
	quizValidation := services.NewQuizValidationService(log)
	quizGeneration := services.NewQuizGenerationService(log, aiClient, quizValidation)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewSessionHandler(conversationService, publishService)
	quizHandler := handlers.NewQuizHandler(quizValidation, quizGeneration)
	healthHandler := handlers.NewHealthHandler(gormDB)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:            log,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		SessionHandler: sessionHandler,
		QuizHandler:    quizHandler,
		HealthHandler:  healthHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Run(":" + port)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received, draining requests...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown incomplete", "error", err)
		}
		<-serveErr
	}
	_ = sessionCache.Close()
}
