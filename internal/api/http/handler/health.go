package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	db       Pinger
	embedder Pinger
}

func NewHealth(db, embedder Pinger) *Health {
	return &Health{db: db, embedder: embedder}
}

// Check handles GET /api/health: verifies the database and the embedding
// sidecar are reachable.
func (h *Health) Check(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
		return
	}
	if err := h.embedder.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "embedding backend unreachable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
