// Package metrics exposes Prometheus instrumentation for the verification
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all verification metrics. A nil *Metrics is safe to call, so
// unit tests can pass nil without registering collectors.
type Metrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	staleFallbacks prometheus.Counter
	coalesced      prometheus.Counter

	registryLookups *prometheus.CounterVec
	duration        prometheus.Histogram
}

// New creates and registers all verification metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loadvoice_verification_cache_hits_total",
			Help: "Verification requests served from a fresh cache entry",
		}),
		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loadvoice_verification_cache_misses_total",
			Help: "Verification requests that required a registry fetch",
		}),
		staleFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loadvoice_verification_stale_fallbacks_total",
			Help: "Verification requests answered with a stale record during registry outages",
		}),
		coalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loadvoice_verification_coalesced_total",
			Help: "Verification requests that joined an in-flight fetch for the same carrier",
		}),
		registryLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loadvoice_registry_lookups_total",
			Help: "Registry lookups by outcome",
		}, []string{"outcome"}),
		duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loadvoice_verification_duration_seconds",
			Help:    "End-to-end verification latency",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) StaleFallback() {
	if m != nil {
		m.staleFallbacks.Inc()
	}
}

func (m *Metrics) Coalesced() {
	if m != nil {
		m.coalesced.Inc()
	}
}

// RegistryLookup records one upstream call with its outcome: "ok",
// "not_found", or an upstream error category.
func (m *Metrics) RegistryLookup(outcome string) {
	if m != nil {
		m.registryLookups.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.duration.Observe(d.Seconds())
	}
}
