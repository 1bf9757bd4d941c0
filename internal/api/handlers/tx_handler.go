package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/insight-apis/internal/metrics"
)

// TxHandler handles transaction-related API requests
type TxHandler struct {
	base
}

// NewTxHandler creates a new TxHandler
func NewTxHandler(chains *Chains, m *metrics.Metrics) *TxHandler {
	return &TxHandler{base{chains: chains, metrics: m}}
}

// Get returns a transaction with its inputs, outputs and confirmations
// GET /api/v1/:chain/tx/:txid
func (h *TxHandler) Get(c *gin.Context) {
	_, ch, ok := h.chain(c)
	if !ok {
		return
	}

	tx, err := ch.Service.FetchTx(c.Request.Context(), c.Param("txid"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}
