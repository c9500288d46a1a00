package audit

import (
	"context"
	"time"
)

// Store persists audit events. Append-only: no update, no targeted delete.
// DeleteOlderThan exists solely for the audit log's own lazy retention purge.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByTenant(ctx context.Context, tenantID string) ([]Event, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
