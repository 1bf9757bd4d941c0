package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/thanhnp/insight-apis/internal/addrset"
	"github.com/thanhnp/insight-apis/internal/aggregator"
	"github.com/thanhnp/insight-apis/internal/metrics"
	"github.com/thanhnp/insight-apis/internal/models"
)

// AddressHandler handles single-address API requests
type AddressHandler struct {
	base
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(chains *Chains, m *metrics.Metrics) *AddressHandler {
	return &AddressHandler{base{chains: chains, metrics: m}}
}

// addressQuery holds the options shared by the address routes
type addressQuery struct {
	NoTxList bool `form:"noTxList"`
	NoCache  bool `form:"noCache"`
}

// AddressResponse is an address summary with coin-denominated amounts
type AddressResponse struct {
	*models.AddressInfo
	Balance            decimal.Decimal `json:"balance"`
	TotalReceived      decimal.Decimal `json:"totalReceived"`
	TotalSent          decimal.Decimal `json:"totalSent"`
	UnconfirmedBalance decimal.Decimal `json:"unconfirmedBalance"`
	Transactions       []string        `json:"transactions,omitempty"`
}

func newAddressResponse(info *models.AddressInfo, withTxs bool) AddressResponse {
	resp := AddressResponse{
		AddressInfo:        info,
		Balance:            models.SatToCoin(info.BalanceSat),
		TotalReceived:      models.SatToCoin(info.TotalReceivedSat),
		TotalSent:          models.SatToCoin(info.TotalSentSat),
		UnconfirmedBalance: models.SatToCoin(info.UnconfirmedBalanceSat),
	}
	if withTxs {
		resp.Transactions = info.TxIDs()
	}
	return resp
}

// parse validates the :addr parameter and binds the query options
func (h *AddressHandler) parse(c *gin.Context) (*Chain, addrset.Address, addressQuery, bool) {
	var q addressQuery
	_, ch, ok := h.chain(c)
	if !ok {
		return nil, "", q, false
	}
	addr, err := ch.Resolver.ParseOne(c.Param("addr"))
	if err != nil {
		writeError(c, err)
		return nil, "", q, false
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", q, false
	}
	return ch, addr, q, true
}

// Get returns the address summary
// GET /api/v1/:chain/addr/:addr
func (h *AddressHandler) Get(c *gin.Context) {
	ch, addr, q, ok := h.parse(c)
	if !ok {
		return
	}

	info, err := ch.Service.Summary(c.Request.Context(), addr, q.NoTxList, q.NoCache)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAddressResponse(info, !q.NoTxList))
}

// GetUTXOs returns the unspent outputs of the address
// GET /api/v1/:chain/addr/:addr/utxo
func (h *AddressHandler) GetUTXOs(c *gin.Context) {
	ch, addr, q, ok := h.parse(c)
	if !ok {
		return
	}

	utxos, err := ch.Service.UTXOs(c.Request.Context(), addr, q.NoCache)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, utxos)
}

type scalarFunc func(*aggregator.Service, context.Context, addrset.Address, bool) (int64, error)

// scalar answers a single satoshi amount
func (h *AddressHandler) scalar(c *gin.Context, get scalarFunc) {
	ch, addr, q, ok := h.parse(c)
	if !ok {
		return
	}

	sat, err := get(ch.Service, c.Request.Context(), addr, q.NoCache)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sat)
}

// GetBalance returns the confirmed balance in satoshis
// GET /api/v1/:chain/addr/:addr/balance
func (h *AddressHandler) GetBalance(c *gin.Context) {
	h.scalar(c, (*aggregator.Service).Balance)
}

// GetTotalReceived returns the satoshis ever received
// GET /api/v1/:chain/addr/:addr/totalReceived
func (h *AddressHandler) GetTotalReceived(c *gin.Context) {
	h.scalar(c, (*aggregator.Service).TotalReceived)
}

// GetTotalSent returns the satoshis ever spent
// GET /api/v1/:chain/addr/:addr/totalSent
func (h *AddressHandler) GetTotalSent(c *gin.Context) {
	h.scalar(c, (*aggregator.Service).TotalSent)
}

// GetUnconfirmedBalance returns the pending balance change in satoshis
// GET /api/v1/:chain/addr/:addr/unconfirmedBalance
func (h *AddressHandler) GetUnconfirmedBalance(c *gin.Context) {
	h.scalar(c, (*aggregator.Service).UnconfirmedBalance)
}
