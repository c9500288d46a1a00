package models

import (
	"strings"
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// CanTransitionTo reports whether the status may move to next.
// Transitions: active ↔ suspended only.
func (s TenantStatus) CanTransitionTo(next TenantStatus) bool {
	switch s {
	case TenantStatusActive:
		return next == TenantStatusSuspended
	case TenantStatusSuspended:
		return next == TenantStatusActive
	default:
		return false
	}
}

// Tenant is the aggregate root for an isolated customer organization.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status is active or suspended, nothing else
//   - CreatedAt is immutable after construction
//
// A suspended tenant is still iterated by retention purge jobs: suspension
// pauses the product, not the legal clock on its data.
type Tenant struct {
	ID        id.TenantID  `json:"id"`
	Name      string       `json:"name"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewTenant validates invariants and constructs an active tenant.
func NewTenant(tenantID id.TenantID, name string, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must not be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be at most 128 characters")
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant id must not be nil")
	}
	return &Tenant{
		ID:        tenantID,
		Name:      name,
		Status:    TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// CanSuspend checks the active → suspended transition.
func (t *Tenant) CanSuspend() error {
	if !t.Status.CanTransitionTo(TenantStatusSuspended) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already suspended")
	}
	return nil
}

// ApplySuspension transitions the tenant to suspended status.
// Call CanSuspend first.
func (t *Tenant) ApplySuspension(now time.Time) {
	t.Status = TenantStatusSuspended
	t.UpdatedAt = now
}

// CanReactivate checks the suspended → active transition.
func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	return nil
}

// ApplyReactivation transitions the tenant back to active status.
func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = TenantStatusActive
	t.UpdatedAt = now
}
