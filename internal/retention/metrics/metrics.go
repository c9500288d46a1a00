package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for retention purge runs.
type Metrics struct {
	PurgeRuns      prometheus.Counter
	PurgedRows     *prometheus.CounterVec
	TenantFailures prometheus.Counter
	RunDuration    prometheus.Histogram
}

// New creates a Metrics instance with all retention metrics registered.
func New() *Metrics {
	return &Metrics{
		PurgeRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_retention_purge_runs_total",
			Help: "Total number of retention purge runs",
		}),
		PurgedRows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_retention_purged_rows_total",
			Help: "Total number of rows removed by retention purges",
		}, []string{"category"}),
		TenantFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_retention_tenant_failures_total",
			Help: "Total number of tenants whose purge failed within a run",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_retention_run_duration_seconds",
			Help:    "Duration of retention purge runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
