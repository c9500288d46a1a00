// Package models defines AI job metadata. Only the metadata row is kept
// here; prompts and outputs live elsewhere and are out of scope.
package models

import (
	"time"

	"github.com/google/uuid"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Job is one AI processing job's metadata, retained for a bounded window.
// UserID is nil for jobs triggered by the tenant itself.
type Job struct {
	ID        uuid.UUID   `json:"id"`
	TenantID  id.TenantID `json:"tenant_id"`
	UserID    *id.UserID  `json:"user_id,omitempty"`
	Kind      string      `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewJob validates and constructs a job metadata record.
func NewJob(tenantID id.TenantID, userID *id.UserID, kind string, now time.Time) (*Job, error) {
	if kind == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "job kind must not be empty")
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "job tenant id must not be nil")
	}
	return &Job{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: now,
	}, nil
}
