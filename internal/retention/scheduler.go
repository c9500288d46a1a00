package retention

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs the purge job on a fixed interval until its context is
// cancelled. It logs aggregate counts only.
type Scheduler struct {
	orchestrator *Orchestrator
	policy       Policy
	interval     time.Duration
	logger       *slog.Logger
}

// NewScheduler constructs a Scheduler. The interval must be positive.
func NewScheduler(orchestrator *Orchestrator, policy Policy, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		orchestrator: orchestrator,
		policy:       policy,
		interval:     interval,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled. The first purge happens one full
// interval after start, so a crash-looping process does not hammer the
// database.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			result, err := s.orchestrator.ExecutePurgeJob(ctx, s.policy)
			if err != nil {
				s.logger.Error("retention purge run failed", slog.String("error", err.Error()))
				continue
			}
			s.logger.Info("retention purge run finished",
				slog.Bool("dry_run", result.DryRun),
				slog.Int64("purged_rows", result.Total()),
				slog.Int("tenants_purged", result.TenantsPurged),
				slog.Int("tenants_failed", result.TenantsFailed),
			)
		}
	}
}
