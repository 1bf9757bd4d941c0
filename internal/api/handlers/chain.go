package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhnp/insight-apis/internal/addrset"
	"github.com/thanhnp/insight-apis/internal/aggregator"
	"github.com/thanhnp/insight-apis/internal/metrics"
	"github.com/thanhnp/insight-apis/internal/multichain"
	"github.com/thanhnp/insight-apis/internal/sync"
)

// StatusSource reports the sync progress of a chain
type StatusSource interface {
	Status() sync.Status
}

// Chain bundles what the handlers need to serve one chain
type Chain struct {
	Resolver *addrset.Resolver
	Service  *aggregator.Service
	Sync     StatusSource
}

// Chains maps chain names to their services
type Chains = multichain.Registry[*Chain]

// base is embedded by every handler
type base struct {
	chains  *Chains
	metrics *metrics.Metrics
}

// chain returns the services for the :chain parameter. ValidateChain has
// already rejected unknown chains, so a miss answers 404.
func (b base) chain(c *gin.Context) (string, *Chain, bool) {
	name := c.Param("chain")
	ch, err := b.chains.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return name, nil, false
	}
	return name, ch, true
}
