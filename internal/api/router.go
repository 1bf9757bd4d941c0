package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thanhnp/insight-apis/internal/api/handlers"
	"github.com/thanhnp/insight-apis/internal/api/middleware"
	"github.com/thanhnp/insight-apis/internal/metrics"
	"github.com/thanhnp/insight-apis/internal/sync"
)

// Router wraps the Gin router with handlers
type Router struct {
	engine           *gin.Engine
	chains           *handlers.Chains
	metrics          *metrics.Metrics
	addressHandler   *handlers.AddressHandler
	addressesHandler *handlers.AddressesHandler
	txHandler        *handlers.TxHandler
	statusHandler    *handlers.StatusHandler
}

// NewRouter creates a new Router with all handlers
func NewRouter(chains *handlers.Chains, m *metrics.Metrics) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:           gin.New(),
		chains:           chains,
		metrics:          m,
		addressHandler:   handlers.NewAddressHandler(chains, m),
		addressesHandler: handlers.NewAddressesHandler(chains, m),
		txHandler:        handlers.NewTxHandler(chains, m),
		statusHandler:    handlers.NewStatusHandler(chains, m),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// setupMiddleware configures middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.Logger())
	r.engine.Use(middleware.CORS())
	r.engine.Use(middleware.Metrics(r.metrics))
}

// ready reports whether the chain's historical sync is done
func (r *Router) ready(chain string) (bool, float64) {
	ch, err := r.chains.Get(chain)
	if err != nil {
		return false, 0
	}
	st := ch.Sync.Status()
	return st.Status == sync.StatusFinished, st.SyncPercentage
}

// setupRoutes configures API routes
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		chains := gin.H{}
		for _, name := range r.chains.Chains() {
			ch, _ := r.chains.Get(name)
			chains[name] = ch.Sync.Status()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "chains": chains})
	})
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.engine.Group("/api/v1/:chain")
	v1.Use(middleware.ValidateChain(r.chains.Chains()))
	{
		v1.GET("/status/sync", r.statusHandler.GetSync)
		v1.GET("/tx/:txid", r.txHandler.Get)

		// Address routes answer only once the index is complete
		gated := v1.Group("")
		gated.Use(middleware.SyncGate(r.ready))

		addr := gated.Group("/addr/:addr")
		{
			addr.GET("", r.addressHandler.Get)
			addr.GET("/utxo", r.addressHandler.GetUTXOs)
			addr.GET("/balance", r.addressHandler.GetBalance)
			addr.GET("/totalReceived", r.addressHandler.GetTotalReceived)
			addr.GET("/totalSent", r.addressHandler.GetTotalSent)
			addr.GET("/unconfirmedBalance", r.addressHandler.GetUnconfirmedBalance)
		}

		addrs := gated.Group("/addrs")
		{
			addrs.GET("/:addrs/utxo", r.addressesHandler.GetUTXOs)
			addrs.POST("/utxo", r.addressesHandler.GetUTXOs)
			addrs.GET("/:addrs/txs", r.addressesHandler.GetTransactions)
			addrs.POST("/txs", r.addressesHandler.GetTransactions)
		}

		gated.POST("/deposits", r.addressesHandler.DetectDeposits)
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
