// Package metrics exposes Prometheus collectors for allocations and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sequencer"

// Result labels of the allocation counter.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics owns a registry and the service collectors.
// It implements the sequence Observer contract.
type Metrics struct {
	registry *prometheus.Registry

	allocations        *prometheus.CounterVec
	allocationDuration *prometheus.HistogramVec
	degraded           *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	configInvalidations prometheus.Counter
}

// New creates the collectors and registers them together with the
// process and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		allocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "allocations_total",
				Help:      "Total number of counter increments by outcome.",
			},
			[]string{"type_code", "rotate_by", "result"},
		),
		allocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "allocation_duration_seconds",
				Help:      "Duration of counter increments in the store.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"rotate_by"},
		),
		degraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_total",
				Help:      "Requests that succeeded with fallback behaviour.",
			},
			[]string{"reason"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "path"},
		),
		configInvalidations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_invalidations_total",
				Help:      "Config cache entries dropped by change notifications.",
			},
		),
	}

	m.registry.MustRegister(
		m.allocations,
		m.allocationDuration,
		m.degraded,
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.configInvalidations,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAllocation records one increment.
func (m *Metrics) ObserveAllocation(typeCode, rotateBy string, err error, elapsed time.Duration) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.allocations.WithLabelValues(typeCode, rotateBy, result).Inc()
	m.allocationDuration.WithLabelValues(rotateBy).Observe(elapsed.Seconds())
}

// ObserveDegraded records a degraded-but-successful request.
func (m *Metrics) ObserveDegraded(reason string) {
	m.degraded.WithLabelValues(reason).Inc()
}

// ObserveConfigInvalidation records a cache entry dropped by a notification.
func (m *Metrics) ObserveConfigInvalidation() {
	m.configInvalidations.Inc()
}

// HTTPStarted marks a request as in flight. Call the returned func when it ends.
func (m *Metrics) HTTPStarted() func() {
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// ObserveHTTP records a finished request. path should be the route pattern,
// not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
