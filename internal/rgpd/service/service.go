// Package service implements the Article-17 erasure workflow: request
// intake, the scheduled purge cascade, and export shredding.
//
// The purge cascade runs inside one tenant-scoped transaction. Every step
// is a predicate delete, so a request that fails midway rolls back to
// PENDING and the retry removes whatever is still there.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custodia/internal/access"
	rgpdmetrics "custodia/internal/rgpd/metrics"
	"custodia/internal/rgpd/models"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

const defaultGraceWindow = 30 * 24 * time.Hour

// AuditPublisher is the fail-closed audit emission contract.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// PurgeResult reports what one completed purge removed. Counts only; the
// identifiers of what was removed are gone with the data.
type PurgeResult struct {
	RequestID       id.RequestID `json:"request_id"`
	PurgedAt        time.Time    `json:"purged_at"`
	DeletedConsents int64        `json:"deleted_consents"`
	DeletedJobs     int64        `json:"deleted_jobs"`
	ShreddedExports int64        `json:"shredded_exports"`
	DeletedUserRows int64        `json:"deleted_user_rows"`
}

// TotalRecords sums everything the purge removed.
func (r PurgeResult) TotalRecords() int64 {
	return r.DeletedConsents + r.DeletedJobs + r.ShreddedExports + r.DeletedUserRows
}

// Service drives the erasure workflow.
type Service struct {
	runner  TxRunner
	guard   *access.Guard
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *rgpdmetrics.Metrics
	grace   time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *rgpdmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithGraceWindow overrides the delay between an erasure request and its
// scheduled purge.
func WithGraceWindow(grace time.Duration) Option {
	return func(s *Service) { s.grace = grace }
}

// New constructs a Service.
func New(runner TxRunner, guard *access.Guard, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		runner:  runner,
		guard:   guard,
		auditor: auditor,
		logger:  slog.Default(),
		grace:   defaultGraceWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestErasure records an Article-17 request for a soft-deleted user.
// The purge itself happens later, once the grace window has passed.
func (s *Service) RequestErasure(ctx context.Context, actor access.Actor, tenantID id.TenantID, userID id.UserID) (*models.Request, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	if err := s.guard.Require(ctx, actor, access.ActionTenantUsersWrite, &access.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}

	var request *models.Request
	err := s.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, stores TxStores) error {
		user, err := stores.Users.FindByID(txCtx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
		}
		if !user.IsDeleted() {
			return dErrors.New(dErrors.CodeConflict, "user must be soft-deleted before erasure")
		}

		r, err := models.NewDeleteRequest(tenantID, userID, requestcontext.Now(txCtx), s.grace)
		if err != nil {
			return err
		}
		if err := stores.Requests.Create(txCtx, r); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create erasure request")
		}

		if err := s.auditor.Emit(txCtx, audit.Event{
			Name:       audit.EventErasureRequested,
			ActorScope: string(actor.Scope()),
			ActorID:    actor.ActorID().String(),
			TenantID:   tenantID.String(),
			TargetID:   userID.String(),
			RequestID:  requestcontext.RequestID(txCtx),
			Metadata: map[string]any{
				"rgpd_request_id":    r.ID.String(),
				"scheduled_purge_at": r.ScheduledPurgeAt.Format(time.RFC3339),
			},
		}); err != nil {
			return err
		}
		request = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ErasureRequested.Inc()
	}
	return request, nil
}

// PurgeUserData completes one due erasure request: inside a single
// tenant-scoped transaction it removes the user's consents and AI job
// metadata, crypto-shreds every export bundle, hard-deletes the user row,
// and marks the request COMPLETED. Exactly one audit event carries the
// counts. Any failure rolls the whole cascade back and leaves the request
// PENDING for retry.
func (s *Service) PurgeUserData(ctx context.Context, tenantID id.TenantID, requestID id.RequestID) (*PurgeResult, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}

	var result *PurgeResult
	err := s.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, stores TxStores) error {
		now := requestcontext.Now(txCtx)

		request, err := stores.Requests.FindByID(txCtx, requestID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "erasure request not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "request store failure")
		}
		if request.Status != models.StatusPending {
			return dErrors.New(dErrors.CodeConflict, "erasure request is already completed")
		}
		if !request.IsDue(now) {
			return dErrors.New(dErrors.CodeConflict, "erasure request is not yet due")
		}

		user, err := stores.Users.FindByID(txCtx, request.UserID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeInvariantViolation, "erasure target no longer exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
		}
		if !user.IsDeleted() {
			return dErrors.New(dErrors.CodeConflict, "user must be soft-deleted before purge")
		}

		consents, err := stores.Consents.DeleteByUser(txCtx, request.UserID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete consents")
		}
		jobs, err := stores.Jobs.DeleteByUser(txCtx, request.UserID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete job metadata")
		}

		bundles, err := stores.Exports.GetMetadataByUser(txCtx, request.UserID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list export bundles")
		}
		for _, bundle := range bundles {
			if err := stores.Exports.DeleteBundle(txCtx, bundle.ID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to shred export bundle")
			}
		}

		userRows, err := stores.Users.HardDelete(txCtx, request.UserID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
		}

		if err := stores.Requests.MarkCompleted(txCtx, request.ID, now); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeConflict, "erasure request is already completed")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete request")
		}

		r := &PurgeResult{
			RequestID:       request.ID,
			PurgedAt:        now,
			DeletedConsents: consents,
			DeletedJobs:     jobs,
			ShreddedExports: int64(len(bundles)),
			DeletedUserRows: userRows,
		}
		if err := s.auditor.Emit(txCtx, audit.Event{
			Name:      audit.EventErasureCompleted,
			TenantID:  tenantID.String(),
			TargetID:  request.UserID.String(),
			RequestID: requestcontext.RequestID(txCtx),
			Metadata: map[string]any{
				"rgpd_request_id":  request.ID.String(),
				"deleted_consents": r.DeletedConsents,
				"deleted_jobs":     r.DeletedJobs,
				"shredded_exports": r.ShreddedExports,
				"deleted_users":    r.DeletedUserRows,
			},
		}); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PurgeFailures.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PurgesCompleted.Inc()
		s.metrics.PurgedRecords.Add(float64(result.TotalRecords()))
	}
	return result, nil
}

// ProcessDuePurges finds every due erasure request in one tenant and purges
// each in its own transaction. One failing request does not block the rest.
func (s *Service) ProcessDuePurges(ctx context.Context, tenantID id.TenantID) ([]PurgeResult, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}

	var due []*models.Request
	err := s.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, stores TxStores) error {
		found, err := stores.Requests.FindPendingPurges(txCtx, requestcontext.Now(txCtx))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list due requests")
		}
		due = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	var results []PurgeResult
	for _, request := range due {
		result, err := s.PurgeUserData(ctx, tenantID, request.ID)
		if err != nil {
			s.logger.Error("erasure purge failed",
				slog.String("tenant_id", tenantID.String()),
				slog.String("request_id", request.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// ShredExport removes one export bundle and its key material on request of
// a tenant member, ahead of any retention or erasure schedule.
func (s *Service) ShredExport(ctx context.Context, actor access.Actor, tenantID id.TenantID, exportID id.ExportID) error {
	if tenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	if err := s.guard.Require(ctx, actor, access.ActionTenantUsersWrite, &access.Resource{TenantID: tenantID}); err != nil {
		return err
	}

	return s.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, stores TxStores) error {
		if err := stores.Exports.DeleteBundle(txCtx, exportID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to shred export bundle")
		}
		return s.auditor.Emit(txCtx, audit.Event{
			Name:       audit.EventExportShredded,
			ActorScope: string(actor.Scope()),
			ActorID:    actor.ActorID().String(),
			TenantID:   tenantID.String(),
			TargetID:   exportID.String(),
			RequestID:  requestcontext.RequestID(txCtx),
		})
	})
}
