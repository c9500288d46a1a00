package models

import (
	"time"

	"github.com/google/uuid"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// DSRKind classifies a data-subject rights record. The kinds share one
// shape and differ only in how long they are retained.
type DSRKind string

const (
	DSRContest    DSRKind = "contest"
	DSROpposition DSRKind = "opposition"
	DSRSuspension DSRKind = "suspension"
)

func (k DSRKind) Valid() bool {
	switch k {
	case DSRContest, DSROpposition, DSRSuspension:
		return true
	}
	return false
}

// DSRRecord is one contest, opposition or suspension trace.
type DSRRecord struct {
	ID        uuid.UUID   `json:"id"`
	TenantID  id.TenantID `json:"tenant_id"`
	UserID    id.UserID   `json:"user_id"`
	Kind      DSRKind     `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewDSRRecord validates and constructs a rights record.
func NewDSRRecord(tenantID id.TenantID, userID id.UserID, kind DSRKind, now time.Time) (*DSRRecord, error) {
	if !kind.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown rights record kind")
	}
	if tenantID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "rights record requires tenant and user ids")
	}
	return &DSRRecord{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: now,
	}, nil
}
