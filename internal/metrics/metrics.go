package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. It is passed to
// the components that record into it; a nil *Metrics records nothing.
type Metrics struct {
	// Node RPC
	rpcCallsTotal   *prometheus.CounterVec
	rpcCallDuration *prometheus.HistogramVec

	// Sync
	syncedHeight     *prometheus.GaugeVec
	nodeHeight       *prometheus.GaugeVec
	blocksConnected  *prometheus.CounterVec
	blocksReverted   *prometheus.CounterVec
	mempoolFirstSeen *prometheus.CounterVec

	// Aggregation
	depositDetections *prometheus.CounterVec
	placeholders      *prometheus.CounterVec

	// HTTP
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registry, or
// with prometheus.DefaultRegisterer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "node_rpc_calls_total",
				Help: "Total number of node RPC calls by chain, method and status",
			},
			[]string{"chain", "method", "status"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "node_rpc_call_duration_seconds",
				Help:    "Duration of node RPC calls in seconds, retries included",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"chain", "method"},
		),

		syncedHeight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sync_indexed_height",
				Help: "Height of the last block written to the index",
			},
			[]string{"chain"},
		),
		nodeHeight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sync_node_height",
				Help: "Best block height reported by the node",
			},
			[]string{"chain"},
		),
		blocksConnected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_blocks_connected_total",
				Help: "Total number of blocks written to the index",
			},
			[]string{"chain"},
		),
		blocksReverted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_blocks_reverted_total",
				Help: "Total number of blocks removed from the index by reorgs",
			},
			[]string{"chain"},
		),
		mempoolFirstSeen: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sync_mempool_first_seen_total",
				Help: "Total number of mempool transactions whose first-seen time was recorded",
			},
			[]string{"chain"},
		),

		depositDetections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deposit_detections_total",
				Help: "Total number of deposit detection requests by outcome",
			},
			[]string{"chain", "status"},
		),
		placeholders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_double_spend_placeholders_total",
				Help: "Total number of listing entries replaced by a possible double spend placeholder",
			},
			[]string{"chain"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
	}
}

// RecordRPCCall records one node RPC call.
func (m *Metrics) RecordRPCCall(chain, method string, err error, duration float64) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.rpcCallsTotal.WithLabelValues(chain, method, status).Inc()
	m.rpcCallDuration.WithLabelValues(chain, method).Observe(duration)
}

// RecordBlockConnected records a block written at height.
func (m *Metrics) RecordBlockConnected(chain string, height int64) {
	if m == nil {
		return
	}
	m.blocksConnected.WithLabelValues(chain).Inc()
	m.syncedHeight.WithLabelValues(chain).Set(float64(height))
}

// RecordBlockReverted records a block removed by a reorg; height is the new
// index tip.
func (m *Metrics) RecordBlockReverted(chain string, height int64) {
	if m == nil {
		return
	}
	m.blocksReverted.WithLabelValues(chain).Inc()
	m.syncedHeight.WithLabelValues(chain).Set(float64(height))
}

// RecordNodeHeight records the node's best height.
func (m *Metrics) RecordNodeHeight(chain string, height int64) {
	if m == nil {
		return
	}
	m.nodeHeight.WithLabelValues(chain).Set(float64(height))
}

// RecordFirstSeen records n newly timestamped mempool transactions.
func (m *Metrics) RecordFirstSeen(chain string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.mempoolFirstSeen.WithLabelValues(chain).Add(float64(n))
}

// RecordDepositDetection records the outcome of a deposit detection call.
func (m *Metrics) RecordDepositDetection(chain string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.depositDetections.WithLabelValues(chain, status).Inc()
}

// RecordPlaceholders records n placeholder entries in a listing page.
func (m *Metrics) RecordPlaceholders(chain string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.placeholders.WithLabelValues(chain).Add(float64(n))
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(route, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(route, method, status).Inc()
}

func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
