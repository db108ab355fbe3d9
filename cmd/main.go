package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/draftdesk/draftdesk-backend/internal/clients/gcp"
	redisclient "github.com/draftdesk/draftdesk-backend/internal/clients/redis"
	"github.com/draftdesk/draftdesk-backend/internal/clients/studio"
	"github.com/draftdesk/draftdesk-backend/internal/db"
	"github.com/draftdesk/draftdesk-backend/internal/handlers"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/middleware"
	"github.com/draftdesk/draftdesk-backend/internal/observability"
	"github.com/draftdesk/draftdesk-backend/internal/repos"
	"github.com/draftdesk/draftdesk-backend/internal/server"
	"github.com/draftdesk/draftdesk-backend/internal/services"
	"github.com/draftdesk/draftdesk-backend/internal/sources"
	"github.com/draftdesk/draftdesk-backend/internal/sse"
	"github.com/draftdesk/draftdesk-backend/internal/utils"
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

	ctx := context.Background()

	// Tracing (no-op unless OTEL_ENABLED)
	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "draftdesk-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownTracing != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	pg := postgresService.DB()

	// Repos
	userRepo := repos.NewUserRepo(pg, log)
	userTokenRepo := repos.NewUserTokenRepo(pg, log)
	deskRepo := repos.NewDeskRepo(pg, log)
	contentRepo := repos.NewContentRepo(pg, log)
	topicRepo := repos.NewTopicRepo(pg, log)
	postRepo := repos.NewPostRepo(pg, log)
	knowledgeDocRepo := repos.NewKnowledgeDocRepo(pg, log)

	// Clients
	studioClient, err := studio.NewClient(log)
	if err != nil {
		log.Error("Could not init studio client", "error", err)
		os.Exit(1)
	}
	bucketClient, err := gcp.NewBucketClient(log)
	if err != nil {
		log.Warn("Could not init bucket client, knowledge base uploads disabled", "error", err)
	}

	// Status fan-out: in-process hub, plus Redis mirror when configured.
	hub := sse.NewHub(log)
	var statusBus redisclient.StatusBus
	if os.Getenv("REDIS_ADDR") != "" {
		statusBus, err = redisclient.NewStatusBus(log)
		if err != nil {
			log.Warn("Could not init redis status bus, running single-instance", "error", err)
		}
	}
	if statusBus != nil {
		defer statusBus.Close()
		if err := statusBus.StartForwarder(ctx, hub.Publish); err != nil {
			log.Warn("Could not start redis status forwarder", "error", err)
		}
	}

	// Services
	registry := sources.NewRegistry(log, studioClient)
	notifier := services.NewDeskNotifier(log, hub, statusBus)
	contentService := services.NewContentService(pg, log, registry, contentRepo)
	deskService := services.NewDeskService(pg, log, deskRepo, userRepo, contentService, notifier)
	authService := services.NewAuthService(pg, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(pg, log, userRepo)
	topicService := services.NewTopicService(pg, log, topicRepo)
	postService := services.NewPostService(pg, log, postRepo, topicRepo, deskRepo, contentRepo)
	knowledgeService := services.NewKnowledgeService(pg, log, knowledgeDocRepo, bucketClient)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		AuthMiddleware:     authMiddleware,
		HealthcheckHandler: handlers.NewHealthcheckHandler(),
		AuthHandler:        handlers.NewAuthHandler(authService),
		UserHandler:        handlers.NewUserHandler(userService),
		DeskHandler:        handlers.NewDeskHandler(deskService),
		SSEHandler:         handlers.NewSSEHandler(log, hub, deskService),
		TopicHandler:       handlers.NewTopicHandler(topicService),
		PostHandler:        handlers.NewPostHandler(postService),
		KnowledgeHandler:   handlers.NewKnowledgeHandler(knowledgeService),
		ConfigHandler:      handlers.NewConfigHandler(registry),
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
