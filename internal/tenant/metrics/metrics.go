package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module.
type Metrics struct {
	TenantCreated   prometheus.Counter
	TenantSuspended prometheus.Counter
}

// New creates a Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		TenantCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		TenantSuspended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_tenants_suspended_total",
			Help: "Total number of tenants suspended",
		}),
	}
}

// IncrementTenantCreated records a successful tenant creation.
func (m *Metrics) IncrementTenantCreated() {
	m.TenantCreated.Inc()
}

// IncrementTenantSuspended records a tenant suspension.
func (m *Metrics) IncrementTenantSuspended() {
	m.TenantSuspended.Inc()
}
