// Package models defines the user aggregate. Users are the subjects of the
// erasure workflow: soft deletion marks the account, the purge workflow
// later removes the row and everything keyed to it.
package models

import (
	"strings"
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// User is a member of exactly one tenant.
type User struct {
	ID          id.UserID    `json:"id"`
	TenantID    id.TenantID  `json:"tenant_id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	CreatedAt   time.Time    `json:"created_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}

// NewUser validates invariants and constructs an active user.
func NewUser(userID id.UserID, tenantID id.TenantID, email, displayName string, now time.Time) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email must be a non-empty address")
	}
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user id must not be nil")
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user tenant id must not be nil")
	}
	return &User{
		ID:          userID,
		TenantID:    tenantID,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
	}, nil
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

// MarkDeleted soft-deletes the user. Idempotent: a second call keeps the
// original deletion time.
func (u *User) MarkDeleted(now time.Time) {
	if u.DeletedAt == nil {
		t := now
		u.DeletedAt = &t
	}
}
