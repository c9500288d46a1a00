// Package store persists consent records inside a tenant's row-level
// security boundary.
package store

import (
	"context"

	"custodia/internal/consent/models"
	id "custodia/pkg/domain"
)

// Store is the consent persistence contract.
type Store interface {
	Append(ctx context.Context, consent *models.Consent) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Consent, error)
	// DeleteByUser removes every consent of one user and returns the count.
	// Idempotent: deleting an absent user's consents returns zero.
	DeleteByUser(ctx context.Context, userID id.UserID) (int64, error)
}
