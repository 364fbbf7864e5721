// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Toggle Engine
	ToggleOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_toggle_outcomes_total",
			Help: "Edge toggles by edge type and resulting state",
		},
		[]string{"edge", "state"}, // edge: like_video, like_comment, like_tweet, subscription; state: on, off
	)

	ToggleRaces = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_toggle_races_total",
			Help: "Toggles that lost a concurrent race and were resolved by the store",
		},
		[]string{"edge"},
	)

	// Cascade Manager
	CascadeRemovals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_cascade_removed_total",
			Help: "Dependent records removed by cascades",
		},
		[]string{"parent", "record"}, // record: comment, like, media
	)

	CascadeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_cascade_failures_total",
			Help: "Cascades that stopped before completing every step",
		},
		[]string{"parent", "stage"}, // stage: store, media
	)

	CascadeFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videotube_cascade_non_transactional_total",
			Help: "Cascades executed as best-effort steps because the store has no transactions",
		},
	)

	// Object storage
	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_storage_operations_total",
			Help: "Object storage operations by outcome",
		},
		[]string{"operation", "result"},
	)

	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videotube_storage_operation_duration_seconds",
			Help:    "Object storage operation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	StorageBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videotube_storage_breaker_state",
			Help: "Object storage circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videotube_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videotube_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

// RecordToggle counts a toggle outcome.
func RecordToggle(edge string, active bool) {
	state := "off"
	if active {
		state = "on"
	}
	ToggleOutcomes.WithLabelValues(edge, state).Inc()
}

// RecordCascade counts the records a cascade removed.
func RecordCascade(parent string, comments, likes, media int64) {
	if comments > 0 {
		CascadeRemovals.WithLabelValues(parent, "comment").Add(float64(comments))
	}
	if likes > 0 {
		CascadeRemovals.WithLabelValues(parent, "like").Add(float64(likes))
	}
	if media > 0 {
		CascadeRemovals.WithLabelValues(parent, "media").Add(float64(media))
	}
}

// RecordStorageOperation records an object storage call.
func RecordStorageOperation(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StorageOperations.WithLabelValues(operation, result).Inc()
	StorageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
