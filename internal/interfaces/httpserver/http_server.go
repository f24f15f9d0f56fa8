package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/infrastructure/metrics"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/confighandler"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/historyhandler"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/prompthandler"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/middlewares"
)

// NewEngine assembles the gin engine with middleware and all routes.
func NewEngine(
	logger zerolog.Logger,
	corsOrigins []string,
	chatHandler *chathandler.ChatHandler,
	historyHandler *historyhandler.HistoryHandler,
	promptHandler *prompthandler.PromptHandler,
	configHandler *confighandler.ConfigHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.RequestID())
	engine.Use(middlewares.LoggingMiddleware(logger))
	engine.Use(middlewares.MetricsMiddleware())
	engine.Use(middlewares.CORSMiddleware(corsOrigins))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := engine.Group("/api")
	{
		api.POST("/chat", chatHandler.Generate)

		api.GET("/history", historyHandler.List)
		api.POST("/history", historyHandler.Save)
		api.GET("/history/:id", historyHandler.Get)
		api.DELETE("/history/:id", historyHandler.Delete)

		api.GET("/prompts", promptHandler.List)
		api.POST("/prompts", promptHandler.Add)
		api.DELETE("/prompts", promptHandler.Delete)

		api.GET("/config", configHandler.Get)
	}

	return engine
}
