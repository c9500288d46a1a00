// Package store persists users. The table is tenant-owned and protected by
// row-level security; the Postgres implementation is only constructible
// around a tenant-scoped transaction handle.
package store

import (
	"context"
	"time"

	"custodia/internal/user/models"
	id "custodia/pkg/domain"
)

// Store is the user persistence contract.
//
// FindByID returns soft-deleted users too: the erasure workflow needs to
// see them, and callers decide what a deletion marker means.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	// SoftDelete marks the user deleted. Idempotent: an already-deleted
	// user keeps its original deletion time.
	SoftDelete(ctx context.Context, userID id.UserID, now time.Time) (*models.User, error)
	// HardDelete removes the row. Returns the number of rows removed, zero
	// when the user is already gone.
	HardDelete(ctx context.Context, userID id.UserID) (int64, error)
}
