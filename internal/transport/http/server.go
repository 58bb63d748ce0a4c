package http

import (
	"github.com/gin-gonic/gin"

	"paper-rag/internal/config"
	"paper-rag/internal/session"
	"paper-rag/internal/transport/http/handler"
	"paper-rag/internal/transport/http/middleware"
)

func NewRouter(cfg *config.Config, sessions *session.Manager) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery())
	router.MaxMultipartMemory = cfg.Server.MaxUploadSize

	healthHandler := handler.NewHealthHandler(sessions)
	router.GET("/healthz", healthHandler.Check)

	sessionHandler := handler.NewSessionHandler(sessions, cfg.RAG.AllowedExtensions, cfg.Server.MaxUploadSize, cfg.RAG.TopK)

	v1 := router.Group("/api/v1")
	sessionGroup := v1.Group("/sessions")
	sessionGroup.POST("", sessionHandler.Create)
	sessionGroup.DELETE("/:id", sessionHandler.Delete)
	sessionGroup.POST("/:id/documents", sessionHandler.Upload)
	sessionGroup.POST("/:id/ask", sessionHandler.Ask)
	sessionGroup.GET("/:id/history", sessionHandler.History)
	sessionGroup.DELETE("/:id/history", sessionHandler.ClearHistory)

	return router
}
