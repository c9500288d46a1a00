// Package service orchestrates tenant lifecycle management. Every mutation
// is policy-gated, runs inside one transaction boundary, and emits exactly
// one audit event before it is considered successful.
package service

import (
	"context"
	"errors"
	"log/slog"

	"custodia/internal/access"
	tenantmetrics "custodia/internal/tenant/metrics"
	"custodia/internal/tenant/models"
	"custodia/internal/tenant/store"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// AuditPublisher is the fail-closed audit emission contract.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx provides the transaction boundary mutations run inside, so the
// tenant write and its audit event commit or roll back together.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// passthroughTx is the default boundary for memory stores, which have no
// shared transaction to join.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service orchestrates tenant management.
type Service struct {
	tenants store.Store
	guard   *access.Guard
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics
	tx      StoreTx
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// New constructs a Service. The guard and auditor are mandatory: no tenant
// mutation happens unchecked or unaudited.
func New(tenants store.Store, guard *access.Guard, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		tenants: tenants,
		guard:   guard,
		auditor: auditor,
		tx:      passthroughTx{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTenant creates a tenant on behalf of a platform operator or the
// bootstrap process.
func (s *Service) CreateTenant(ctx context.Context, actor access.Actor, name string) (*models.Tenant, error) {
	if err := s.guard.Require(ctx, actor, access.ActionTenantCreate, nil); err != nil {
		return nil, err
	}

	var tenant *models.Tenant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := models.NewTenant(id.NewTenantID(), name, requestcontext.Now(txCtx))
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, "invalid tenant name")
			}
			return err
		}

		if err := s.tenants.CreateIfNameAvailable(txCtx, t); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
		}

		if err := s.auditor.Emit(txCtx, audit.Event{
			Name:       audit.EventTenantCreated,
			ActorScope: string(actor.Scope()),
			ActorID:    actor.ActorID().String(),
			TenantID:   t.ID.String(),
			RequestID:  requestcontext.RequestID(txCtx),
			Metadata: map[string]any{
				"bootstrap": actor.Bootstrap(),
			},
		}); err != nil {
			return err
		}
		tenant = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementTenantCreated()
	}
	return tenant, nil
}

// GetTenant fetches one tenant, subject to tenant-read policy.
func (s *Service) GetTenant(ctx context.Context, actor access.Actor, tenantID id.TenantID) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := s.guard.Require(ctx, actor, access.ActionTenantRead, &access.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

// SuspendTenant transitions a tenant to suspended status.
func (s *Service) SuspendTenant(ctx context.Context, actor access.Actor, tenantID id.TenantID) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := s.guard.Require(ctx, actor, access.ActionPlatformManage, nil); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var tenant *models.Tenant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.tenants.Execute(txCtx, tenantID,
			func(t *models.Tenant) error {
				if err := t.CanSuspend(); err != nil {
					return dErrors.New(dErrors.CodeConflict, "tenant is already suspended")
				}
				return nil
			},
			func(t *models.Tenant) { t.ApplySuspension(now) },
		)
		if err != nil {
			return wrapTenantErr(err)
		}
		if err := s.auditor.Emit(txCtx, audit.Event{
			Name:       audit.EventTenantSuspended,
			ActorScope: string(actor.Scope()),
			ActorID:    actor.ActorID().String(),
			TenantID:   t.ID.String(),
			RequestID:  requestcontext.RequestID(txCtx),
		}); err != nil {
			return err
		}
		tenant = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementTenantSuspended()
	}
	return tenant, nil
}

// ReactivateTenant transitions a suspended tenant back to active.
func (s *Service) ReactivateTenant(ctx context.Context, actor access.Actor, tenantID id.TenantID) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := s.guard.Require(ctx, actor, access.ActionPlatformManage, nil); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var tenant *models.Tenant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.tenants.Execute(txCtx, tenantID,
			func(t *models.Tenant) error {
				if err := t.CanReactivate(); err != nil {
					return dErrors.New(dErrors.CodeConflict, "tenant is already active")
				}
				return nil
			},
			func(t *models.Tenant) { t.ApplyReactivation(now) },
		)
		if err != nil {
			return wrapTenantErr(err)
		}
		if err := s.auditor.Emit(txCtx, audit.Event{
			Name:       audit.EventTenantReactivated,
			ActorScope: string(actor.Scope()),
			ActorID:    actor.ActorID().String(),
			TenantID:   t.ID.String(),
			RequestID:  requestcontext.RequestID(txCtx),
		}); err != nil {
			return err
		}
		tenant = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func requireTenantID(tenantID id.TenantID) error {
	if tenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	return nil
}

func wrapTenantErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
	}
}
