// Package audit defines the append-only audit contract: every
// authorization-gated mutation and every purge step emits exactly one event
// synchronously before the operation is considered successful.
package audit

import (
	"time"

	dErrors "custodia/pkg/domain-errors"
)

// EventCategory classifies audit events by their primary purpose. Categories
// drive retention and downstream routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// erasure completion, retention purges, tenant lifecycle. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events feeding security monitoring:
	// cross-tenant denials, bootstrap usage.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	// Short retention, may be sampled downstream.
	CategoryOperations EventCategory = "operations"
)

// EventName is the closed vocabulary of audit event names.
type EventName string

const (
	// Tenant lifecycle
	EventTenantCreated     EventName = "tenant_created"
	EventTenantSuspended   EventName = "tenant_suspended"
	EventTenantReactivated EventName = "tenant_reactivated"

	// User lifecycle
	EventUserCreated EventName = "user_created"

	// Erasure lifecycle
	EventUserSoftDeleted  EventName = "user_soft_deleted"
	EventErasureRequested EventName = "erasure_requested"
	EventExportShredded   EventName = "export_shredded"
	EventErasureCompleted EventName = "erasure_completed"

	// Retention
	EventRetentionPurgeRun EventName = "retention_purge_run"
	EventAuditLogPurged    EventName = "audit_log_purged"

	// Security
	EventCrossTenantDenied EventName = "cross_tenant_denied"
	EventBootstrapUsed     EventName = "bootstrap_used"
)

// eventCategories maps each event name to its category.
var eventCategories = map[EventName]EventCategory{
	EventTenantCreated:     CategoryCompliance,
	EventTenantSuspended:   CategorySecurity,
	EventTenantReactivated: CategoryOperations,

	EventUserCreated: CategoryCompliance,

	EventUserSoftDeleted:  CategoryCompliance,
	EventErasureRequested: CategoryCompliance,
	EventExportShredded:   CategoryCompliance,
	EventErasureCompleted: CategoryCompliance,

	EventRetentionPurgeRun: CategoryCompliance,
	EventAuditLogPurged:    CategoryOperations,

	EventCrossTenantDenied: CategorySecurity,
	EventBootstrapUsed:     CategorySecurity,
}

// Category returns the EventCategory for this event name.
// Unknown names default to CategoryOperations.
func (e EventName) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is one append-only audit record. Immutable after write; it is the
// only record of why a mutation occurred.
//
// Metadata is a flat map of primitive values. Nested values are a contract
// violation: they risk smuggling unredacted personal data into a log that
// has its own, much longer, retention. Validate enforces this at emission
// time, not by convention.
type Event struct {
	Name       EventName
	Timestamp  time.Time
	ActorScope string
	ActorID    string
	TenantID   string
	TargetID   string
	RequestID  string
	Metadata   map[string]any
}

// Validate checks the emission contract: a name from the vocabulary and
// flat, primitive-only metadata.
func (e Event) Validate() error {
	if e.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "audit event requires a name")
	}
	if _, known := eventCategories[e.Name]; !known {
		return dErrors.Newf(dErrors.CodeValidation, "unknown audit event name %q", e.Name)
	}
	for key, value := range e.Metadata {
		switch value.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			// primitive, fine
		default:
			return dErrors.Newf(dErrors.CodeValidation,
				"audit metadata %q must be a primitive value, got %T", key, value)
		}
	}
	return nil
}
