// Package metrics holds the Prometheus collectors of the complaints backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	storeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Total number of mutating store operations.",
		},
		[]string{"status"},
	)

	snapshotBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "complaints",
			Subsystem: "store",
			Name:      "snapshot_bytes",
			Help:      "Size of persisted store snapshots.",
			Buckets:   prometheus.ExponentialBuckets(4<<10, 2, 12), // 4KiB to ~8MiB
		},
	)

	snapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "complaints",
			Subsystem: "store",
			Name:      "snapshot_duration_seconds",
			Help:      "Time spent exporting and persisting a snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	serviceCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "service",
			Name:      "calls_total",
			Help:      "Service operations by backend, operation and outcome.",
		},
		[]string{"backend", "operation", "status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "complaints",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	liveClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "complaints",
			Subsystem: "hub",
			Name:      "clients",
			Help:      "Connected live-inbox clients.",
		},
	)
)

func init() {
	Registry.MustRegister(storeWrites, snapshotBytes, snapshotDuration, serviceCalls, httpRequests, httpDuration, liveClients)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordStoreWrite counts a mutating store operation.
func RecordStoreWrite(err error) {
	storeWrites.WithLabelValues(outcome(err)).Inc()
}

// RecordSnapshot records the size and duration of a persisted snapshot.
func RecordSnapshot(size int, elapsed time.Duration) {
	snapshotBytes.Observe(float64(size))
	snapshotDuration.Observe(elapsed.Seconds())
}

// RecordServiceCall counts a service operation.
func RecordServiceCall(backend, operation string, err error) {
	serviceCalls.WithLabelValues(backend, operation, outcome(err)).Inc()
}

// RecordHTTPRequest records a handled HTTP request.
func RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// SetLiveClients sets the number of connected live-inbox clients.
func SetLiveClients(n int) {
	liveClients.Set(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
