package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/insight-apis/internal/metrics"
)

// StatusHandler reports sync progress
type StatusHandler struct {
	base
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(chains *Chains, m *metrics.Metrics) *StatusHandler {
	return &StatusHandler{base{chains: chains, metrics: m}}
}

// GetSync returns the sync status of the chain
// GET /api/v1/:chain/status/sync
func (h *StatusHandler) GetSync(c *gin.Context) {
	_, ch, ok := h.chain(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ch.Sync.Status())
}
