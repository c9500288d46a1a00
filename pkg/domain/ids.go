// Package domain defines the typed identifiers shared across modules.
//
// Each entity gets its own UUID-backed type so identifiers cannot be mixed
// up at compile time. Parse functions enforce the invariant that IDs are
// valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "custodia/pkg/domain-errors"
)

// TenantID identifies an isolated customer organization.
type TenantID uuid.UUID

// UserID identifies an end user within a tenant.
type UserID uuid.UUID

// RequestID identifies a data-subject (export or erasure) request.
type RequestID uuid.UUID

// ExportID identifies a sealed export bundle.
type ExportID uuid.UUID

// ActorID identifies the acting principal. Platform operators and system
// processes are not always UUID-backed, so this stays an opaque string.
type ActorID string

func (id TenantID) String() string  { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id ExportID) String() string  { return uuid.UUID(id).String() }
func (id ActorID) String() string   { return string(id) }

func (id TenantID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ExportID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// NewTenantID returns a fresh random tenant identifier.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewUserID returns a fresh random user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRequestID returns a fresh random request identifier.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewExportID returns a fresh random export identifier.
func NewExportID() ExportID { return ExportID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseTenantID parses and validates a tenant identifier.
func ParseTenantID(raw string) (TenantID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(parsed), nil
}

// ParseUserID parses and validates a user identifier.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseRequestID parses and validates a request identifier.
func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(parsed), nil
}

// ParseExportID parses and validates an export identifier.
func ParseExportID(raw string) (ExportID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ExportID{}, err
	}
	return ExportID(parsed), nil
}
