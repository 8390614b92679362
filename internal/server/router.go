package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/studyforge/studyforge-backend/internal/handlers"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/middleware"
)

type RouterConfig struct {
	Log              *logger.Logger
	GenerateHandler  *handlers.GenerateHandler
	NarrationHandler *handlers.NarrationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("studyforge"))
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS())

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		if cfg.GenerateHandler != nil {
			api.POST("/generate", cfg.GenerateHandler.Generate)
		}
		if cfg.NarrationHandler != nil {
			api.POST("/narrations", cfg.NarrationHandler.Synthesize)
		}
	}

	return router
}
