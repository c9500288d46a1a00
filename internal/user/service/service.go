// Package service orchestrates user account management within a tenant.
package service

import (
	"context"
	"errors"
	"log/slog"

	"custodia/internal/access"
	"custodia/internal/user/models"
	"custodia/internal/user/store"
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

// TxRunner opens a tenant-scoped unit of work and hands the callback a user
// store bound to it. The Postgres runner wraps the pooled bridge; the memory
// runner wraps a shared fake.
type TxRunner interface {
	InTenantTx(ctx context.Context, tenantID id.TenantID, fn func(ctx context.Context, users store.Store) error) error
}

// Service manages users on behalf of tenant members and platform operators.
type Service struct {
	runner  TxRunner
	guard   *access.Guard
	auditor AuditPublisher
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service.
func New(runner TxRunner, guard *access.Guard, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{runner: runner, guard: guard, auditor: auditor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser creates a regular user inside a tenant.
func (s *Service) CreateUser(ctx context.Context, actor access.Actor, tenantID id.TenantID, email, displayName string) (*models.User, error) {
	return s.create(ctx, actor, access.ActionTenantUserCreate, tenantID, email, displayName)
}

// CreateAdmin creates a tenant administrator. Distinct action so the first
// admin can be created during bootstrap while regular creation stays closed.
func (s *Service) CreateAdmin(ctx context.Context, actor access.Actor, tenantID id.TenantID, email, displayName string) (*models.User, error) {
	return s.create(ctx, actor, access.ActionTenantAdminCreate, tenantID, email, displayName)
}

func (s *Service) create(ctx context.Context, actor access.Actor, action access.Action, tenantID id.TenantID, email, displayName string) (*models.User, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	if err := s.guard.Require(ctx, actor, action, &access.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}

	var created *models.User
	err := s.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, users store.Store) error {
		user, err := models.NewUser(id.NewUserID(), tenantID, email, displayName, requestcontext.Now(txCtx))
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "invalid user attributes")
		}
		if err := users.Create(txCtx, user); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "user already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		event := audit.Event{
			Name:       audit.EventUserCreated,
			Timestamp:  requestcontext.Now(txCtx),
			ActorScope: string(actor.Scope()),
			ActorID:    actor.ActorID().String(),
			TenantID:   tenantID.String(),
			TargetID:   user.ID.String(),
			RequestID:  requestcontext.RequestID(txCtx),
			Metadata:   map[string]any{"admin": action == access.ActionTenantAdminCreate},
		}
		if err := s.auditor.Emit(txCtx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetUser fetches one user within the actor's tenant.
func (s *Service) GetUser(ctx context.Context, actor access.Actor, tenantID id.TenantID, userID id.UserID) (*models.User, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	if err := s.guard.Require(ctx, actor, access.ActionTenantUsersRead, &access.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, users store.Store) error {
		found, err := users.FindByID(txCtx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SoftDeleteUser marks a user deleted. This is the precondition for the
// erasure workflow: only soft-deleted users are ever purged.
func (s *Service) SoftDeleteUser(ctx context.Context, actor access.Actor, tenantID id.TenantID, userID id.UserID) (*models.User, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	if err := s.guard.Require(ctx, actor, access.ActionTenantUsersWrite, &access.Resource{TenantID: tenantID}); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.runner.InTenantTx(ctx, tenantID, func(txCtx context.Context, users store.Store) error {
		deleted, err := users.SoftDelete(txCtx, userID, requestcontext.Now(txCtx))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
		}
		if err := s.auditor.Emit(txCtx, audit.Event{
			Name:       audit.EventUserSoftDeleted,
			ActorScope: string(actor.Scope()),
			ActorID:    actor.ActorID().String(),
			TenantID:   tenantID.String(),
			TargetID:   userID.String(),
			RequestID:  requestcontext.RequestID(txCtx),
		}); err != nil {
			return err
		}
		user = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
