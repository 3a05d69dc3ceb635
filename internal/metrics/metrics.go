// Package metrics provides Prometheus metrics for the workspace coordinator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the coordinator.
type Metrics struct {
	ClaimsTotal     *prometheus.CounterVec
	ReleasesTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	ConflictsActive prometheus.Gauge
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ClaimsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordinator_claims_total",
				Help: "Total file claim attempts by result.",
			},
			[]string{"result"},
		),
		ReleasesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "coordinator_releases_total",
				Help: "Total file releases.",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "coordinator_sessions_active",
				Help: "Number of active sessions at the last sweep.",
			},
		),
		ConflictsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "coordinator_conflicts_active",
				Help: "Number of conflicting paths at the last sweep.",
			},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coordinator_request_duration_seconds",
				Help:    "Management API request duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordinator_errors_total",
				Help: "Total errors by component and kind.",
			},
			[]string{"component", "kind"},
		),
		registry: reg,
	}

	reg.MustRegister(m.ClaimsTotal)
	reg.MustRegister(m.ReleasesTotal)
	reg.MustRegister(m.SessionsActive)
	reg.MustRegister(m.ConflictsActive)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordClaim increments the claim counter. Result is "granted", "conflict"
// or "error".
func (m *Metrics) RecordClaim(result string) {
	m.ClaimsTotal.WithLabelValues(result).Inc()
}

// RecordRelease increments the release counter.
func (m *Metrics) RecordRelease() {
	m.ReleasesTotal.Inc()
}

// SetSessions sets the active session gauge.
func (m *Metrics) SetSessions(n int) {
	m.SessionsActive.Set(float64(n))
}

// SetConflicts sets the active conflict gauge.
func (m *Metrics) SetConflicts(n int) {
	m.ConflictsActive.Set(float64(n))
}

// ObserveRequest records a request duration.
func (m *Metrics) ObserveRequest(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, kind string) {
	m.ErrorsTotal.WithLabelValues(component, kind).Inc()
}
