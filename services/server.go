package services

import (
	"net/http"

	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/appconfig"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP surface: the chat endpoint, health and metrics.
func NewRouter(ccfgg *appconfig.AppConfig, chatService *ChatService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	SetMetricsEnabled(ccfgg.MetricsEnabled)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogging())
	engine.Use(PrometheusMiddleware())

	engine.POST("/backendapp", chatService.HandleQuery)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", MetricsHandler())

	return engine
}
