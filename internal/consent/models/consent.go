// Package models defines the consent record tracked per user and purpose.
package models

import (
	"time"

	"github.com/google/uuid"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Consent records that a user granted a processing purpose, and when it was
// revoked if ever. Consents are erased wholesale when their user is purged.
type Consent struct {
	ID        uuid.UUID         `json:"id"`
	TenantID  id.TenantID       `json:"tenant_id"`
	UserID    id.UserID         `json:"user_id"`
	Purpose   id.ConsentPurpose `json:"purpose"`
	GrantedAt time.Time         `json:"granted_at"`
	RevokedAt *time.Time        `json:"revoked_at,omitempty"`
}

// NewConsent validates and constructs a granted consent.
func NewConsent(tenantID id.TenantID, userID id.UserID, purpose id.ConsentPurpose, now time.Time) (*Consent, error) {
	if !purpose.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unsupported consent purpose %q", purpose)
	}
	if tenantID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consent requires tenant and user ids")
	}
	return &Consent{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Purpose:   purpose,
		GrantedAt: now,
	}, nil
}

// IsActive reports whether the consent is currently granted.
func (c *Consent) IsActive() bool { return c.RevokedAt == nil }

// Revoke marks the consent revoked. Idempotent.
func (c *Consent) Revoke(now time.Time) {
	if c.RevokedAt == nil {
		t := now
		c.RevokedAt = &t
	}
}
