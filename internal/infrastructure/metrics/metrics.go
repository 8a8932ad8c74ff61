// Package metrics holds the Prometheus collectors for HTTP traffic and the
// job engine. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inkmind"

// Metrics owns a private registry so tests can build as many as they need
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	jobsExecuted       *prometheus.CounterVec
	reminderOps        *prometheus.CounterVec
	remindersCancelled prometheus.Counter
	overdueNotes       prometheus.Gauge
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		jobsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_executed_total",
				Help:      "Job executions by job name and outcome",
			},
			[]string{"name", "outcome"},
		),
		reminderOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminder_operations_total",
				Help:      "Reminder schedule and cancel calls by outcome",
			},
			[]string{"op", "outcome"},
		),
		remindersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_cancelled_total",
			Help:      "Reminder jobs removed from the job store",
		}),
		overdueNotes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overdue_notes",
			Help:      "Non-archived notes past their due date at the last digest run",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.jobsExecuted,
		m.reminderOps,
		m.remindersCancelled,
		m.overdueNotes,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) JobExecuted(name, outcome string) {
	if m == nil {
		return
	}
	m.jobsExecuted.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) ReminderOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.reminderOps.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) RemindersCancelled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.remindersCancelled.Add(float64(n))
}

func (m *Metrics) SetOverdueNotes(n int64) {
	if m == nil {
		return
	}
	m.overdueNotes.Set(float64(n))
}
