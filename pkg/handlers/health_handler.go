package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and which optional integrations are wired.
type HealthHandler struct {
	Service       string
	Version       string
	Assistant     bool
	TrendSignal   bool
	MentionSignal bool
}

// HealthCheck answers load balancer probes.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.Service,
		"version": h.Version,
		"integrations": gin.H{
			"assistant":      h.Assistant,
			"trend_signal":   h.TrendSignal,
			"mention_signal": h.MentionSignal,
		},
	})
}
