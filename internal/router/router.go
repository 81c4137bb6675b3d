package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-attempt/internal/config"
	"github.com/stemsi/exstem-attempt/internal/handler"
	"github.com/stemsi/exstem-attempt/internal/middleware"
	"github.com/stemsi/exstem-attempt/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session  *handler.SessionHandler
	Platform *handler.PlatformWSHandler
}

// SetupRouter configures the agent's route groups.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.HeaderAgentKey, "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Event streams and WebSocket upgrades are skipped inside the middleware.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Session Group (Agent Key) ──────────────────────────────────
	sessionAPI := router.Group("/api/v1/session")
	sessionAPI.Use(middleware.RequireAgentKey(cfg.AgentKey), middleware.NoStore())
	{
		sessionAPI.POST("/hydrate", handlers.Session.Hydrate)
		sessionAPI.POST("/start", handlers.Session.Start)
		sessionAPI.PUT("/answers/:question_id", handlers.Session.SetAnswer)
		sessionAPI.PUT("/cursor", handlers.Session.SetCursor)
		sessionAPI.POST("/submit", handlers.Session.Submit)
		sessionAPI.GET("/state", handlers.Session.GetState)
		sessionAPI.GET("/events", handlers.Session.Events)
		sessionAPI.POST("/close", handlers.Session.Close)
	}

	// ─── 2. WebSocket Group (Agent Key) ────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAgentKey(cfg.AgentKey))
	{
		ws.GET("/platform", handlers.Platform.Stream)
	}

	return router
}
