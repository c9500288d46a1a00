// Package store persists data-subject rights requests inside a tenant's
// row-level security boundary.
package store

import (
	"context"
	"time"

	"custodia/internal/rgpd/models"
	id "custodia/pkg/domain"
)

// Store is the rights-request persistence contract.
type Store interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	// FindPendingPurges returns pending DELETE requests whose scheduled
	// purge time is at or before now, oldest first.
	FindPendingPurges(ctx context.Context, now time.Time) ([]*models.Request, error)
	// MarkCompleted transitions PENDING to COMPLETED. Returns
	// sentinel.ErrInvalidState when the request is not pending, so a
	// request can never complete twice.
	MarkCompleted(ctx context.Context, requestID id.RequestID, now time.Time) error
	// CountCompletedOlderThan and DeleteCompletedOlderThan are the purge
	// primitives for erasure traces: completed requests past retention.
	CountCompletedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteCompletedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
