package metrics

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LoginAttemptsTotal *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec
	NoShowsMarkedTotal prometheus.Counter
	OpenCheckIns       prometheus.Gauge

	// Realtime metrics
	WebSocketClients prometheus.Gauge
	EventsPublished  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all Prometheus metrics on registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetidy_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timetidy_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetidy_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetidy_lifecycle_transitions_total",
				Help: "State transitions of shifts, swaps, time-off requests and check-ins",
			},
			[]string{"entity", "status"},
		),
		NoShowsMarkedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "timetidy_no_shows_marked_total",
				Help: "Shifts marked as no-show by the sweep job",
			},
		),
		OpenCheckIns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "timetidy_open_check_ins",
				Help: "Check-ins without a check-out at the last sweep",
			},
		),
		WebSocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "timetidy_websocket_clients",
				Help: "Number of connected WebSocket clients",
			},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetidy_events_published_total",
				Help: "Lifecycle events published to the hub",
			},
			[]string{"type"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.TransitionsTotal,
		m.NoShowsMarkedTotal,
		m.OpenCheckIns,
		m.WebSocketClients,
		m.EventsPublished,
	)

	return m
}

// NewNop returns metrics bound to a private registry, for tests and tools
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Transition counts an entity entering status
func (m *Metrics) Transition(entity, status string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(entity, status).Inc()
}

// Login counts a login attempt outcome
func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RouteLabel collapses id segments so paths stay low-cardinality:
// /api/shifts/3f2a.../cancel becomes /api/shifts/:id/cancel
func RouteLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) >= 16 {
		return true
	}
	for _, r := range seg {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
