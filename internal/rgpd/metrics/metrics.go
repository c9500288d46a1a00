package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the erasure workflow.
type Metrics struct {
	ErasureRequested prometheus.Counter
	PurgesCompleted  prometheus.Counter
	PurgeFailures    prometheus.Counter
	PurgedRecords    prometheus.Counter
}

// New creates a Metrics instance with all erasure workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		ErasureRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_erasure_requests_total",
			Help: "Total number of erasure requests created",
		}),
		PurgesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_erasure_purges_completed_total",
			Help: "Total number of erasure purges completed",
		}),
		PurgeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_erasure_purge_failures_total",
			Help: "Total number of erasure purges that failed and rolled back",
		}),
		PurgedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_erasure_purged_records_total",
			Help: "Total number of records removed by erasure purges",
		}),
	}
}
