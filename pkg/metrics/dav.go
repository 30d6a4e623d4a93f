package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DavMetrics provides observability for the WebDAV adapter.
//
// Implementations collect per-request counters, latency histograms, and
// transfer volumes. The interface is optional: when metrics are disabled a
// no-op implementation with zero overhead is used.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	davMetrics := metrics.NewDavMetrics()
//
//	// Without metrics (no-op)
//	davMetrics := metrics.NewDavMetrics() // InitRegistry never called
type DavMetrics interface {
	// RecordRequest records a completed request with its method, the mount
	// it addressed, the response status, and the handling duration.
	RecordRequest(method, mount string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request counter.
	RecordRequestStart(method string)

	// RecordRequestEnd decrements the in-flight request counter.
	RecordRequestEnd(method string)

	// RecordBytesTransferred records payload bytes moved in the given
	// direction ("read" for downloads, "write" for uploads).
	RecordBytesTransferred(direction string, bytes int64)
}

// davMetrics is the Prometheus implementation of DavMetrics.
type davMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	bytesTransferred *prometheus.CounterVec
}

// NewDavMetrics creates a Prometheus-backed DavMetrics instance, or a no-op
// when the global registry was never initialized.
func NewDavMetrics() DavMetrics {
	if !IsEnabled() {
		return &noopDavMetrics{}
	}

	reg := GetRegistry()

	return &davMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopefs_dav_requests_total",
				Help: "Total number of WebDAV requests by method, mount and status",
			},
			[]string{"method", "mount", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "scopefs_dav_request_duration_seconds",
				Help: "Duration of WebDAV requests in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.025, // 25ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
					10.0,  // 10s
				},
			},
			[]string{"method"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scopefs_dav_requests_in_flight",
				Help: "Current number of WebDAV requests being processed",
			},
			[]string{"method"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopefs_dav_bytes_transferred_total",
				Help: "Total payload bytes transferred via WebDAV operations",
			},
			[]string{"direction"}, // read or write
		),
	}
}

func (m *davMetrics) RecordRequest(method, mount string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, mount, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *davMetrics) RecordRequestStart(method string) {
	m.requestsInFlight.WithLabelValues(method).Inc()
}

func (m *davMetrics) RecordRequestEnd(method string) {
	m.requestsInFlight.WithLabelValues(method).Dec()
}

func (m *davMetrics) RecordBytesTransferred(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}

// noopDavMetrics is a no-op implementation of DavMetrics with zero
// overhead.
type noopDavMetrics struct{}

func (noopDavMetrics) RecordRequest(method, mount string, status int, duration time.Duration) {}
func (noopDavMetrics) RecordRequestStart(method string)                                       {}
func (noopDavMetrics) RecordRequestEnd(method string)                                         {}
func (noopDavMetrics) RecordBytesTransferred(direction string, bytes int64)                   {}
