package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for audit emission and relay.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
	RelayPublished  prometheus.Counter
	RelayFailures   prometheus.Counter
}

// NewMetrics creates a Metrics instance with all audit metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_audit_events_emitted_total",
			Help: "Total audit events emitted, by category",
		}, []string{"category"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_audit_persist_failures_total",
			Help: "Total audit events that could not be persisted",
		}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_audit_persist_duration_seconds",
			Help:    "Duration of synchronous audit writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RelayPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_audit_relay_published_total",
			Help: "Total outbox rows published to the audit topic",
		}),
		RelayFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_audit_relay_failures_total",
			Help: "Total outbox publish attempts that failed",
		}),
	}
}

// IncEventsEmitted records a persisted audit event.
func (m *Metrics) IncEventsEmitted(category string) {
	m.EventsEmitted.WithLabelValues(category).Inc()
}

// IncPersistFailures records a failed synchronous audit write.
func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

// ObservePersistDuration records the latency of one audit write.
func (m *Metrics) ObservePersistDuration(seconds float64) {
	m.PersistDuration.Observe(seconds)
}
