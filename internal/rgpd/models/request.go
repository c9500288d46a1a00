// Package models defines data-subject rights requests and their lifecycle.
package models

import (
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// RequestType distinguishes Article-15 exports from Article-17 erasures.
type RequestType string

const (
	RequestTypeExport RequestType = "EXPORT"
	RequestTypeDelete RequestType = "DELETE"
)

// RequestStatus is the request lifecycle state. PENDING moves to COMPLETED
// exactly once; there is no way back.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusCompleted RequestStatus = "COMPLETED"
)

// Request is one data-subject rights request. DELETE requests carry a
// scheduled purge time: the grace window in which the subject may still
// change their mind before the purge becomes irreversible.
type Request struct {
	ID               id.RequestID  `json:"id"`
	TenantID         id.TenantID   `json:"tenant_id"`
	UserID           id.UserID     `json:"user_id"`
	Type             RequestType   `json:"type"`
	Status           RequestStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	ScheduledPurgeAt *time.Time    `json:"scheduled_purge_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
}

// NewDeleteRequest constructs a pending erasure request whose purge is
// scheduled after the grace window.
func NewDeleteRequest(tenantID id.TenantID, userID id.UserID, now time.Time, grace time.Duration) (*Request, error) {
	if tenantID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request requires tenant and user ids")
	}
	if grace < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grace window must not be negative")
	}
	scheduled := now.Add(grace)
	return &Request{
		ID:               id.NewRequestID(),
		TenantID:         tenantID,
		UserID:           userID,
		Type:             RequestTypeDelete,
		Status:           StatusPending,
		CreatedAt:        now,
		ScheduledPurgeAt: &scheduled,
	}, nil
}

// NewExportRequest constructs a pending export request.
func NewExportRequest(tenantID id.TenantID, userID id.UserID, now time.Time) (*Request, error) {
	if tenantID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request requires tenant and user ids")
	}
	return &Request{
		ID:        id.NewRequestID(),
		TenantID:  tenantID,
		UserID:    userID,
		Type:      RequestTypeExport,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

// IsDue reports whether a pending DELETE request has reached its scheduled
// purge time.
func (r *Request) IsDue(now time.Time) bool {
	return r.Status == StatusPending &&
		r.Type == RequestTypeDelete &&
		r.ScheduledPurgeAt != nil &&
		!r.ScheduledPurgeAt.After(now)
}

// Complete transitions the request to COMPLETED. Completing twice is an
// invariant violation, never silent.
func (r *Request) Complete(now time.Time) error {
	if r.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "request is already completed")
	}
	r.Status = StatusCompleted
	t := now
	r.CompletedAt = &t
	return nil
}
