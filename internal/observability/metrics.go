package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "problem_tracker"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	httpErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total rendered error responses by route, method and error code.",
		},
		[]string{"route", "method", "code"},
	)

	authEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication events by kind and outcome.",
		},
		[]string{"event", "outcome"},
	)
)

// Auth event kinds.
const (
	AuthEventSignup = "signup"
	AuthEventLogin  = "login"
	AuthEventToken  = "token"
)

// Metrics records service metrics into the default prometheus registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct{}

// NewMetrics returns a recorder backed by the package level collectors.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts a rendered error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	httpErrorsTotal.WithLabelValues(route, method, code).Inc()
}

// RecordAuth counts an authentication event outcome such as ("login", "invalid_credentials").
func (m *Metrics) RecordAuth(event, outcome string) {
	if m == nil {
		return
	}
	authEventsTotal.WithLabelValues(event, outcome).Inc()
}
