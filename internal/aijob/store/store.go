// Package store persists AI job metadata inside a tenant's row-level
// security boundary. The purge primitives are predicate deletes: running
// them twice with the same cutoff removes nothing the second time.
package store

import (
	"context"
	"time"

	"custodia/internal/aijob/models"
	id "custodia/pkg/domain"
)

// Store is the AI job metadata persistence contract.
type Store interface {
	Append(ctx context.Context, job *models.Job) error
	// CountOlderThan reports how many rows a purge with this cutoff would
	// remove. Dry-run counterpart of DeleteOlderThan.
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID id.UserID) (int64, error)
}
