package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Cache metrics, labeled by cache ("user" or "role_set")
	CacheHitsTotal    *prometheus.CounterVec
	CacheMissesTotal  *prometheus.CounterVec
	CacheFlushesTotal *prometheus.CounterVec
	CacheEntries      *prometheus.GaugeVec

	// Resolver metrics, labeled by resolution kind
	ResolverQueriesTotal *prometheus.CounterVec
	ResolverErrorsTotal  *prometheus.CounterVec

	// Invalidation metrics, labeled by junction kind
	InvalidationsTotal *prometheus.CounterVec

	// Dependency index
	IndexRegistrations prometheus.Gauge
	IndexSweepsTotal   prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcache_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "permcache_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcache_cache_hits_total",
				Help: "Total number of permission cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcache_cache_misses_total",
				Help: "Total number of permission cache misses",
			},
			[]string{"cache"},
		),
		CacheFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcache_cache_flushes_total",
				Help: "Total number of cache entries flushed by invalidation",
			},
			[]string{"cache"},
		),
		CacheEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "permcache_cache_entries",
				Help: "Current number of live cache entries",
			},
			[]string{"cache"},
		),
		ResolverQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcache_resolver_queries_total",
				Help: "Total number of resolutions computed against the store",
			},
			[]string{"kind"},
		),
		ResolverErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcache_resolver_errors_total",
				Help: "Total number of failed resolutions",
			},
			[]string{"kind"},
		),
		InvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "permcache_invalidations_total",
				Help: "Total number of invalidation batches processed",
			},
			[]string{"junction"},
		),
		IndexRegistrations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "permcache_index_registrations",
				Help: "Current number of dependency index registrations",
			},
		),
		IndexSweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "permcache_index_sweeps_total",
				Help: "Total number of dependency index sweeps",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheFlushesTotal,
		m.CacheEntries,
		m.ResolverQueriesTotal,
		m.ResolverErrorsTotal,
		m.InvalidationsTotal,
		m.IndexRegistrations,
		m.IndexSweepsTotal,
	)

	return m
}

// Handler returns an HTTP handler serving the metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
