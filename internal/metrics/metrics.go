// Package metrics exposes Prometheus counters for extractions and the asset proxy.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clipharvest"

// Extraction outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests and multiple servers never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	extractions        *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	assetsReturned     prometheus.Histogram
	rateLimited        prometheus.Counter
	proxyRequests      *prometheus.CounterVec
	proxyBytes         prometheus.Counter
}

// New creates the collectors on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Extraction requests by outcome",
			},
			[]string{"outcome"},
		),
		extractionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "Time spent in the extraction pipeline",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		assetsReturned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "assets_returned",
				Help:      "Assets returned per successful extraction",
				Buckets:   prometheus.LinearBuckets(0, 3, 6),
			},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-client rate limiter",
			},
		),
		proxyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_requests_total",
				Help:      "Proxied asset requests by response status",
			},
			[]string{"status"},
		),
		proxyBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_bytes_total",
				Help:      "Bytes streamed through the asset proxy",
			},
		),
	}
}

// RecordExtraction records one extraction attempt.
func (m *Metrics) RecordExtraction(outcome string, duration time.Duration, returned int) {
	m.extractions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomeEmpty {
		m.extractionDuration.Observe(duration.Seconds())
		m.assetsReturned.Observe(float64(returned))
	}
}

// RecordRateLimited counts a request rejected with 429.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

// RecordProxy records a proxied request and the bytes streamed for it.
func (m *Metrics) RecordProxy(status int, bytes int64) {
	m.proxyRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	if bytes > 0 {
		m.proxyBytes.Add(float64(bytes))
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
