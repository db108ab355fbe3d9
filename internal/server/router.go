package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/draftdesk/draftdesk-backend/internal/handlers"
	"github.com/draftdesk/draftdesk-backend/internal/logger"
	"github.com/draftdesk/draftdesk-backend/internal/middleware"
	"github.com/draftdesk/draftdesk-backend/internal/utils"
)

type RouterConfig struct {
	Log                *logger.Logger
	AuthMiddleware     *middleware.AuthMiddleware
	HealthcheckHandler *handlers.HealthcheckHandler
	AuthHandler        *handlers.AuthHandler
	UserHandler        *handlers.UserHandler
	DeskHandler        *handlers.DeskHandler
	SSEHandler         *handlers.SSEHandler
	TopicHandler       *handlers.TopicHandler
	PostHandler        *handlers.PostHandler
	KnowledgeHandler   *handlers.KnowledgeHandler
	ConfigHandler      *handlers.ConfigHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("draftdesk-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg.Log),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthz", cfg.HealthcheckHandler.Healthcheck)
	router.POST("/auth/register", cfg.AuthHandler.Register)
	router.POST("/auth/login", cfg.AuthHandler.Login)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/auth/logout", cfg.AuthHandler.Logout)

	protected.GET("/users/me", cfg.UserHandler.GetMe)
	protected.PUT("/users/me/studio-key", cfg.UserHandler.SetStudioAPIKey)

	protected.POST("/desk", cfg.DeskHandler.Create)
	protected.GET("/desk", cfg.DeskHandler.List)
	protected.GET("/desk/:id", cfg.DeskHandler.Get)
	protected.PUT("/desk/:id", cfg.DeskHandler.Update)
	protected.DELETE("/desk/:id", cfg.DeskHandler.Delete)
	protected.GET("/desk/:id/content", cfg.DeskHandler.GetContent)
	protected.GET("/desk/:id/status", cfg.DeskHandler.GetStatus)
	protected.POST("/desk/:id/run", cfg.DeskHandler.Run)
	protected.POST("/desk/:id/run/content", cfg.DeskHandler.RunContentPhase)

	protected.GET("/sse/:id/stream", cfg.SSEHandler.StreamDeskStatus)

	protected.POST("/topic", cfg.TopicHandler.Create)
	protected.GET("/topic", cfg.TopicHandler.List)
	protected.GET("/topic/:id", cfg.TopicHandler.Get)
	protected.PUT("/topic/:id", cfg.TopicHandler.Update)
	protected.DELETE("/topic/:id", cfg.TopicHandler.Delete)

	protected.POST("/post/submit", cfg.PostHandler.Submit)
	protected.GET("/post", cfg.PostHandler.List)
	protected.GET("/post/:id", cfg.PostHandler.Get)
	protected.POST("/post/:id/approve", cfg.PostHandler.Approve)
	protected.POST("/post/:id/reject", cfg.PostHandler.Reject)
	protected.DELETE("/post/:id", cfg.PostHandler.Delete)

	protected.POST("/kb/text", cfg.KnowledgeHandler.AddText)
	protected.POST("/kb/file", cfg.KnowledgeHandler.AddFile)
	protected.POST("/kb/website", cfg.KnowledgeHandler.AddWebsite)
	protected.GET("/kb", cfg.KnowledgeHandler.List)
	protected.DELETE("/kb/:id", cfg.KnowledgeHandler.Delete)

	protected.GET("/config/content-types", cfg.ConfigHandler.ContentTypes)
	protected.GET("/config/platforms", cfg.ConfigHandler.Platforms)

	return router
}

func allowedOrigins(log *logger.Logger) []string {
	raw := utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000", log)
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
