package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Build pipeline metrics
	BuildRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapengine_build_requests_total",
			Help: "Total number of sponsored build requests",
		},
		[]string{"status", "code"},
	)

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_build_duration_seconds",
		Help:    "Sponsored build pipeline duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	FeeDegradations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapengine_fee_degradations_total",
		Help: "Total number of builds that dropped the fee instruction to fit the wire ceiling",
	})

	TransactionSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_transaction_size_bytes",
		Help:    "Serialized transaction size in bytes",
		Buckets: []float64{400, 600, 800, 1000, 1100, 1200, 1232},
	})

	// Aggregator metrics
	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swapengine_quote_duration_seconds",
		Help:    "Aggregator quote round-trip duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	QuoteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapengine_quote_failures_total",
			Help: "Total number of aggregator failures by upstream status",
		},
		[]string{"endpoint", "status"},
	)

	// Priority fee metrics
	PriorityFeeMicroLamports = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapengine_priority_fee_microlamports",
		Help: "Last clamped priority fee estimate in microlamports per compute unit",
	})

	PriorityFeeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapengine_priority_fee_fallbacks_total",
		Help: "Total number of estimates served by the generic RPC fallback path",
	})

	// Cache metrics
	TokenCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapengine_token_cache_size",
		Help: "Current number of entries in the token metadata cache",
	})

	LUTCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swapengine_lut_cache_size",
		Help: "Current number of entries in the address lookup table cache",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapengine_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapengine_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
