// Package metrics exposes Prometheus instrumentation for compositions, the
// job queue and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// CompositionsTotal counts finished compositions by kind, outcome and error class.
	CompositionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediacompose_compositions_total",
		Help: "Total compositions by kind and outcome",
	}, []string{"kind", "outcome", "error_kind"})

	// CompositionDuration tracks wall-clock time of compositions, publish included.
	CompositionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediacompose_composition_duration_seconds",
		Help:    "Wall-clock duration of compositions",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~2.3h
	}, []string{"kind"})

	// OutputDuration tracks the length of rendered videos.
	OutputDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediacompose_output_duration_seconds",
		Help:    "Duration of rendered videos",
		Buckets: []float64{10, 30, 60, 300, 600, 1800, 3600, 7200},
	}, []string{"kind"})

	// JobsByStatus reports the number of longform jobs in each status.
	JobsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mediacompose_jobs",
		Help: "Longform jobs by status",
	}, []string{"status"})

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediacompose_http_requests_total",
		Help: "Total HTTP requests by method and status code",
	}, []string{"method", "code"})

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediacompose_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// RecordComposition records one finished composition. errorKind is empty on success.
func RecordComposition(kind, errorKind string, elapsed time.Duration, outputSeconds float64) {
	outcome := OutcomeSuccess
	if errorKind != "" {
		outcome = OutcomeFailure
	}
	CompositionsTotal.WithLabelValues(kind, outcome, errorKind).Inc()
	CompositionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if errorKind == "" {
		OutputDuration.WithLabelValues(kind).Observe(outputSeconds)
	}
}

// SetJobCount sets the gauge for one job status.
func SetJobCount(status string, n int) {
	JobsByStatus.WithLabelValues(status).Set(float64(n))
}

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(method string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
