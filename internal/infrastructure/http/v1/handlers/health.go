package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"abasto/internal/catalog"
	"abasto/internal/session"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store    *catalog.Store
	sessions *session.Manager
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store *catalog.Store, sessions *session.Manager) *HealthHandler {
	return &HealthHandler{store: store, sessions: sessions}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (has a catalog snapshot been loaded?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	snap := h.store.Current()
	if snap.Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"catalog": "no snapshot loaded",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"catalog": "loaded",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	snap := h.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"app":     "abasto",
		"version": "0.1.0",
		"catalog": map[string]any{
			"items":      snap.Len(),
			"fetched_at": snap.FetchedAt,
		},
		"sessions": h.sessions.Len(),
	})
}
