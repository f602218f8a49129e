package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "videotube"

// Route label for requests no route matched
const unmatchedRoute = "unmatched"

// Auth events counted by handlers
const (
	EventRegister = "register"
	EventLogin    = "login"
	EventRefresh  = "refresh"
	EventLogout   = "logout"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics owns its own registry, so several instances may live in one process (tests)
type Metrics struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	authEvents *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Session events by kind and outcome.",
		}, []string{"event", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.authEvents,
	)

	return m
}

// Record finished HTTP request
// route is the mux pattern, e.g. "GET /api/v1/videos/{videoID}", so path ids don't blow up cardinality
func (m *Metrics) ObserveRequest(method string, route string, status int, d time.Duration) {
	method = strings.ToUpper(method)
	if route == "" {
		route = unmatchedRoute
	}

	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) AuthEvent(event string, outcome string) {
	m.authEvents.WithLabelValues(event, outcome).Inc()
}

// Prometheus exposition handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
