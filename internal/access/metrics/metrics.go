package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authorization module. Labels carry
// scope and action only; actor and tenant identifiers never become labels.
type Metrics struct {
	Decisions         *prometheus.CounterVec
	CrossTenantDenied prometheus.Counter
}

// New creates a Metrics instance with all authorization metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_policy_decisions_total",
			Help: "Total policy decisions, by scope, action and outcome",
		}, []string{"scope", "action", "outcome"}),
		CrossTenantDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_cross_tenant_denials_total",
			Help: "Total denials caused by the tenant isolation rule",
		}),
	}
}

// ObserveDecision records one policy decision.
func (m *Metrics) ObserveDecision(scope, action string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.Decisions.WithLabelValues(scope, action, outcome).Inc()
}

// IncCrossTenantDenied records a tenant-isolation denial.
func (m *Metrics) IncCrossTenantDenied() {
	m.CrossTenantDenied.Inc()
}
