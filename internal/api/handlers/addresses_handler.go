package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/insight-apis/internal/aggregator"
	"github.com/thanhnp/insight-apis/internal/metrics"
	"github.com/thanhnp/insight-apis/internal/models"
)

// AddressesHandler handles requests spanning several addresses
type AddressesHandler struct {
	base
}

// NewAddressesHandler creates a new AddressesHandler
func NewAddressesHandler(chains *Chains, m *metrics.Metrics) *AddressesHandler {
	return &AddressesHandler{base{chains: chains, metrics: m}}
}

// multiAddressRequest is read from the query string, a form body or a JSON
// body. On the path variants Addrs comes from :addrs.
type multiAddressRequest struct {
	Addrs   string `form:"addrs" json:"addrs"`
	From    *int   `form:"from" json:"from"`
	To      *int   `form:"to" json:"to"`
	NoCache bool   `form:"noCache" json:"noCache"`
}

// DepositsRequest is the body of a deposit detection request. Missing
// lists are empty.
type DepositsRequest struct {
	Addresses []string `json:"addresses"`
	IgnoredTx []string `json:"ignoredTx"`
}

func (h *AddressesHandler) bind(c *gin.Context) (*multiAddressRequest, bool) {
	var req multiAddressRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if addrs := c.Param("addrs"); addrs != "" {
		req.Addrs = addrs
	}
	return &req, true
}

// GetUTXOs returns the unspent outputs of every address, in address order
// GET /api/v1/:chain/addrs/:addrs/utxo
// POST /api/v1/:chain/addrs/utxo
func (h *AddressesHandler) GetUTXOs(c *gin.Context) {
	_, ch, ok := h.chain(c)
	if !ok {
		return
	}
	req, ok := h.bind(c)
	if !ok {
		return
	}

	addrs, err := ch.Resolver.Parse(req.Addrs)
	if err != nil {
		writeError(c, err)
		return
	}

	utxos, err := ch.Service.GetUTXOs(c.Request.Context(), addrs, req.NoCache)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, utxos)
}

// GetTransactions returns one page of the merged transaction history
// GET /api/v1/:chain/addrs/:addrs/txs?from=0&to=10
// POST /api/v1/:chain/addrs/txs
func (h *AddressesHandler) GetTransactions(c *gin.Context) {
	chain, ch, ok := h.chain(c)
	if !ok {
		return
	}
	req, ok := h.bind(c)
	if !ok {
		return
	}

	addrs, err := ch.Resolver.Parse(req.Addrs)
	if err != nil {
		writeError(c, err)
		return
	}

	page, err := ch.Service.ListTransactions(c.Request.Context(), addrs, aggregator.Window{From: req.From, To: req.To}, req.NoCache)
	if err != nil {
		writeError(c, err)
		return
	}

	placeholders := 0
	for _, item := range page.Items {
		if _, ok := item.(*models.DoubleSpendPlaceholder); ok {
			placeholders++
		}
	}
	h.metrics.RecordPlaceholders(chain, placeholders)

	c.JSON(http.StatusOK, page)
}

// DetectDeposits returns the incoming payments of the given addresses
// POST /api/v1/:chain/deposits
func (h *AddressesHandler) DetectDeposits(c *gin.Context) {
	chain, ch, ok := h.chain(c)
	if !ok {
		return
	}

	var req DepositsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	addrs, err := ch.Resolver.ParseList(req.Addresses)
	if err != nil {
		writeError(c, err)
		return
	}

	deposits, err := ch.Service.DetectDeposits(c.Request.Context(), addrs, req.IgnoredTx)
	h.metrics.RecordDepositDetection(chain, err)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, deposits)
}
