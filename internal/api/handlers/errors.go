package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/insight-apis/internal/addrset"
	"github.com/thanhnp/insight-apis/internal/aggregator"
	"github.com/thanhnp/insight-apis/internal/logger"
	"github.com/thanhnp/insight-apis/internal/txdb"
)

// writeError maps service errors to HTTP responses
func writeError(c *gin.Context, err error) {
	var invalid *addrset.InvalidAddressError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid address: " + invalid.Input,
			"reason": invalid.Reason,
		})
	case errors.Is(err, txdb.ErrTxNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, aggregator.ErrDepositDetection):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		logger.Error(c.Request.Context(), "request failed",
			"path", c.FullPath(),
			"chain", c.Param("chain"),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
