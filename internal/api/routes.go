package api

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/carrom/internal/api/handlers"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/middleware"
	"github.com/playmatatu/carrom/internal/ws"
)

// Deps are the services the routes are served from. Results may be nil when
// no database is configured.
type Deps struct {
	Manager *game.Manager
	Results handlers.ResultStore
	WS      *ws.Server
	Config  *config.Config
	Logger  *log.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("[API]")

	router.Use(middleware.CORSMiddleware(cfg, logger))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(deps.Manager))
		v1.GET("/config", handlers.GetConfig(cfg))
		v1.GET("/results", handlers.RecentResults(deps.Results, logger))

		matches := v1.Group("/matches")
		{
			matches.GET("", handlers.ListMatches(deps.Manager))
			matches.POST("", handlers.CreateMatch(deps.Manager, cfg, logger))
			matches.GET("/:id", handlers.GetMatch(deps.Manager, logger))
			matches.POST("/:id/join", handlers.JoinMatch(deps.Manager, cfg, logger))

			seated := matches.Group("/:id", middleware.RequireSeat(cfg.JWTSecret))
			seated.POST("/strike", handlers.Strike(deps.Manager, logger))
			seated.POST("/rotate", handlers.Rotate(deps.Manager, logger))
			seated.POST("/concede", handlers.Concede(deps.Manager, logger))

			if deps.WS != nil {
				matches.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), deps.WS.HandleWebSocket)
			}
		}
	}
}
