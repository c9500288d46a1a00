package retention

import (
	"context"
	"log/slog"
	"time"

	retentionmetrics "custodia/internal/retention/metrics"
	"custodia/internal/rgpd/models"
	tenantmodels "custodia/internal/tenant/models"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/requestcontext"
)

// tenantPageSize bounds how many tenants one listing round-trip returns.
const tenantPageSize = 1000

// Category names the purgeable data categories.
type Category string

const (
	CategoryAIJobs      Category = "ai_jobs"
	CategoryExports     Category = "exports"
	CategoryContests    Category = "contests"
	CategoryOppositions Category = "oppositions"
	CategorySuspensions Category = "suspensions"
	CategoryDeletions   Category = "deletions"
)

// Categories lists every category in purge order.
var Categories = []Category{
	CategoryAIJobs, CategoryExports, CategoryContests,
	CategoryOppositions, CategorySuspensions, CategoryDeletions,
}

// Result aggregates one purge run. Counts only; nothing in a Result
// identifies a user.
type Result struct {
	ExecutedAt    time.Time          `json:"executed_at"`
	DryRun        bool               `json:"dry_run"`
	Counts        map[Category]int64 `json:"counts"`
	TenantsPurged int                `json:"tenants_purged"`
	TenantsFailed int                `json:"tenants_failed"`
}

// Total sums the counts across categories.
func (r Result) Total() int64 {
	var n int64
	for _, c := range r.Counts {
		n += c
	}
	return n
}

func (r *Result) merge(other map[Category]int64) {
	for category, n := range other {
		r.Counts[category] += n
	}
}

// TenantLister pages through every tenant. Suspended tenants are included:
// suspension pauses the product, not the retention clock.
type TenantLister interface {
	ListAll(ctx context.Context, limit, offset int) ([]*tenantmodels.Tenant, error)
}

// AuditPublisher is the fail-closed audit emission contract.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditLog is the lazily purged audit store surface.
type AuditLog interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Orchestrator runs retention purges across tenants, sequentially, one
// tenant-scoped transaction per tenant. A failure inside one tenant is
// recorded and the run moves on.
type Orchestrator struct {
	tenants      TenantLister
	runner       TxRunner
	auditor      AuditPublisher
	logger       *slog.Logger
	metrics      *retentionmetrics.Metrics
	auditLog     AuditLog
	auditLogDays int
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(m *retentionmetrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithAuditLogRetention enables lazy purging of the audit log itself after
// each run. Only published events older than the window are removed.
func WithAuditLogRetention(log AuditLog, days int) Option {
	return func(o *Orchestrator) {
		o.auditLog = log
		o.auditLogDays = days
	}
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(tenants TenantLister, runner TxRunner, auditor AuditPublisher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tenants: tenants,
		runner:  runner,
		auditor: auditor,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ExecutePurgeJob applies the policy to every tenant and returns the
// aggregated result. Exactly one audit event is emitted per run, carrying
// only counts and the dry-run flag.
func (o *Orchestrator) ExecutePurgeJob(ctx context.Context, policy Policy) (*Result, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	now := requestcontext.Now(ctx)
	result := newResult(now, policy.DryRun)

	offset := 0
	for {
		page, err := o.tenants.ListAll(ctx, tenantPageSize, offset)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
		}
		for _, tenant := range page {
			counts, err := o.purgeTenant(ctx, tenant.ID, policy, now)
			if err != nil {
				result.TenantsFailed++
				if o.metrics != nil {
					o.metrics.TenantFailures.Inc()
				}
				o.logger.Error("tenant purge failed",
					slog.String("tenant_id", tenant.ID.String()),
					slog.String("error", err.Error()),
				)
				continue
			}
			result.TenantsPurged++
			result.merge(counts)
		}
		if len(page) < tenantPageSize {
			break
		}
		offset += tenantPageSize
	}

	if err := o.finishRun(ctx, result, now); err != nil {
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}
	return result, nil
}

// ExecuteTenantPurgeJob applies the policy to a single tenant.
func (o *Orchestrator) ExecuteTenantPurgeJob(ctx context.Context, tenantID id.TenantID, policy Policy) (*Result, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	now := requestcontext.Now(ctx)
	result := newResult(now, policy.DryRun)

	counts, err := o.purgeTenant(ctx, tenantID, policy, now)
	if err != nil {
		return nil, err
	}
	result.TenantsPurged = 1
	result.merge(counts)

	if err := o.finishRun(ctx, result, now); err != nil {
		return nil, err
	}
	return result, nil
}

// purgeTenant applies every category inside one tenant-scoped transaction.
// Dry runs count through the same code path instead of deleting.
func (o *Orchestrator) purgeTenant(ctx context.Context, tenantID id.TenantID, policy Policy, now time.Time) (map[Category]int64, error) {
	counts := make(map[Category]int64, len(Categories))
	err := o.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, stores CategoryStores) error {
		for _, step := range []struct {
			category Category
			days     int
			count    func(context.Context, time.Time) (int64, error)
			delete   func(context.Context, time.Time) (int64, error)
		}{
			{CategoryAIJobs, policy.AIJobsDays, stores.Jobs.CountOlderThan, stores.Jobs.DeleteOlderThan},
			{CategoryExports, policy.ExportsDays, stores.Exports.CountOlderThan, stores.Exports.DeleteOlderThan},
			{CategoryContests, policy.ContestsDays, dsrCount(stores, models.DSRContest), dsrDelete(stores, models.DSRContest)},
			{CategoryOppositions, policy.OppositionsDays, dsrCount(stores, models.DSROpposition), dsrDelete(stores, models.DSROpposition)},
			{CategorySuspensions, policy.SuspensionsDays, dsrCount(stores, models.DSRSuspension), dsrDelete(stores, models.DSRSuspension)},
			{CategoryDeletions, policy.DeletionsDays, stores.Requests.CountCompletedOlderThan, stores.Requests.DeleteCompletedOlderThan},
		} {
			cutoff := CutoffDate(now, step.days)
			apply := step.delete
			if policy.DryRun {
				apply = step.count
			}
			n, err := apply(txCtx, cutoff)
			if err != nil {
				return err
			}
			counts[step.category] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if o.metrics != nil && !policy.DryRun {
		for category, n := range counts {
			o.metrics.PurgedRows.WithLabelValues(string(category)).Add(float64(n))
		}
	}
	return counts, nil
}

// finishRun emits the single per-run audit event, bumps run metrics and
// lazily purges the audit log when configured.
func (o *Orchestrator) finishRun(ctx context.Context, result *Result, now time.Time) error {
	metadata := map[string]any{
		"dry_run":        result.DryRun,
		"tenants_purged": result.TenantsPurged,
		"tenants_failed": result.TenantsFailed,
	}
	for category, n := range result.Counts {
		metadata[string(category)] = n
	}
	if err := o.auditor.Emit(ctx, audit.Event{
		Name:     audit.EventRetentionPurgeRun,
		Metadata: metadata,
	}); err != nil {
		return err
	}
	if o.metrics != nil {
		o.metrics.PurgeRuns.Inc()
	}

	if o.auditLog != nil && o.auditLogDays > 0 && !result.DryRun {
		removed, err := o.auditLog.DeleteOlderThan(ctx, CutoffDate(now, o.auditLogDays))
		if err != nil {
			// The run itself succeeded; the audit log catches up next time.
			o.logger.Warn("audit log purge failed", slog.String("error", err.Error()))
			return nil
		}
		if removed > 0 {
			if err := o.auditor.Emit(ctx, audit.Event{
				Name:     audit.EventAuditLogPurged,
				Metadata: map[string]any{"removed": removed},
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func newResult(now time.Time, dryRun bool) *Result {
	r := &Result{ExecutedAt: now, DryRun: dryRun, Counts: make(map[Category]int64, len(Categories))}
	for _, category := range Categories {
		r.Counts[category] = 0
	}
	return r
}

func dsrCount(stores CategoryStores, kind models.DSRKind) func(context.Context, time.Time) (int64, error) {
	return func(ctx context.Context, cutoff time.Time) (int64, error) {
		return stores.Rights.CountOlderThan(ctx, kind, cutoff)
	}
}

func dsrDelete(stores CategoryStores, kind models.DSRKind) func(context.Context, time.Time) (int64, error) {
	return func(ctx context.Context, cutoff time.Time) (int64, error) {
		return stores.Rights.DeleteOlderThan(ctx, kind, cutoff)
	}
}
