package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the search gateway.
type Metrics struct {
	Registry        *prometheus.Registry
	SearchesTotal   *prometheus.CounterVec
	CacheOpsTotal   *prometheus.CounterVec
	FallbacksTotal  prometheus.Counter
	SmartDealsTotal *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	ProviderUp      *prometheus.GaugeVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_searches_total",
			Help: "Total search requests by market mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	cacheOps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_ops_total",
			Help: "Cache operations by result.",
		},
		[]string{"op"},
	)
	fallbacks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_fallback_queries_total",
			Help: "Searches served by the raw-store fallback after an index failure.",
		},
	)
	smartDeals := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_smart_deals_total",
			Help: "Smart deals surfaced, by detection path.",
		},
		[]string{"path"},
	)
	providerLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_provider_request_duration_seconds",
			Help:    "Provider query latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	providerUp := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_provider_up",
			Help: "Whether the provider answered its last health probe.",
		},
		[]string{"provider"},
	)

	registry.MustRegister(searches, cacheOps, fallbacks, smartDeals, providerLatency, providerUp)

	return &Metrics{
		Registry:        registry,
		SearchesTotal:   searches,
		CacheOpsTotal:   cacheOps,
		FallbacksTotal:  fallbacks,
		SmartDealsTotal: smartDeals,
		ProviderLatency: providerLatency,
		ProviderUp:      providerUp,
	}
}

// IncSearch increments the searches counter.
func (m *Metrics) IncSearch(mode, outcome string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(mode, outcome).Inc()
}

// IncCacheOp increments the cache operations counter.
func (m *Metrics) IncCacheOp(op string) {
	if m == nil {
		return
	}
	m.CacheOpsTotal.WithLabelValues(op).Inc()
}

// IncFallback increments the fallback counter.
func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.FallbacksTotal.Inc()
}

// IncSmartDeal increments the smart deal counter for a detection path.
func (m *Metrics) IncSmartDeal(path string) {
	if m == nil {
		return
	}
	m.SmartDealsTotal.WithLabelValues(path).Inc()
}

// ObserveProviderLatency records a provider query duration.
func (m *Metrics) ObserveProviderLatency(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// SetProviderUp records a health probe outcome.
func (m *Metrics) SetProviderUp(provider string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.ProviderUp.WithLabelValues(provider).Set(v)
}
