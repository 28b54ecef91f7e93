package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the Prometheus instruments the ward server publishes. All
// methods are nil-safe so instrumented code never has to branch on whether
// metrics are wired.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	syncOperations *prometheus.CounterVec
	pendingChanges prometheus.Gauge
	drainDuration  prometheus.Histogram
	remoteOnline   prometheus.Gauge
}

// NewMetrics builds and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ward_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ward_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		syncOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ward_sync_operations_total",
			Help: "Record store operations against the remote by type and result.",
		}, []string{"operation", "result"}),
		pendingChanges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ward_pending_changes",
			Help: "Number of queued offline changes awaiting replay.",
		}),
		drainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ward_queue_drain_duration_seconds",
			Help:    "Duration of offline queue drains.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		remoteOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ward_remote_online",
			Help: "1 when the remote document store is reachable, 0 otherwise.",
		}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.syncOperations,
		m.pendingChanges,
		m.drainDuration,
		m.remoteOnline,
	)
	m.remoteOnline.Set(1)
	return m
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveSyncOperation counts a remote store operation outcome. The result
// label is one of success, error or queued.
func (m *Metrics) ObserveSyncOperation(operation, result string) {
	if m == nil {
		return
	}
	m.syncOperations.WithLabelValues(operation, result).Inc()
}

// SetPendingChanges publishes the current queue depth.
func (m *Metrics) SetPendingChanges(n int) {
	if m == nil {
		return
	}
	m.pendingChanges.Set(float64(n))
}

// ObserveDrain records how long a queue drain took.
func (m *Metrics) ObserveDrain(duration time.Duration) {
	if m == nil {
		return
	}
	m.drainDuration.Observe(duration.Seconds())
}

// SetRemoteOnline publishes the connectivity flag.
func (m *Metrics) SetRemoteOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.remoteOnline.Set(1)
	} else {
		m.remoteOnline.Set(0)
	}
}
