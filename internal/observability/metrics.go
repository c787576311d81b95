package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nihongo_web"

var (
	// BackendRequestsTotal counts backend API calls by outcome.
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of backend API requests",
		},
		[]string{"method", "route", "outcome"},
	)

	// BackendRequestDuration measures backend API latency.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Duration of backend API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPRequestsTotal counts served requests by route pattern and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "code"},
	)

	// StaleResponsesTotal counts list fragments dropped because a newer request superseded them.
	StaleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Total number of list responses dropped as stale",
		},
	)

	// RateLimitedTotal counts form submissions refused by the rate limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests refused by the rate limiter",
		},
		[]string{"route"},
	)
)

// RecordBackend records a completed backend call.
func RecordBackend(method, route, outcome string, seconds float64) {
	BackendRequestsTotal.WithLabelValues(method, route, outcome).Inc()
	BackendRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
