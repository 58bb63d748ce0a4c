package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paper-rag/internal/session"
)

type HealthHandler struct {
	sessions  *session.Manager
	startedAt time.Time
}

func NewHealthHandler(sessions *session.Manager) *HealthHandler {
	return &HealthHandler{sessions: sessions, startedAt: time.Now()}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"sessions":   h.sessions.Len(),
		"uptime_sec": int(time.Since(h.startedAt).Seconds()),
	})
}
