// Package store persists sealed export bundles and their key material.
//
// Keys and ciphertext never share a row. DeleteBundle removes the key row
// first: if the transaction dies between the two deletes, what remains is
// unreadable ciphertext, never an orphaned key.
package store

import (
	"context"
	"time"

	"custodia/internal/export/models"
	id "custodia/pkg/domain"
)

// Store is the export bundle persistence contract.
type Store interface {
	// Put persists the bundle and its key material in separate rows.
	Put(ctx context.Context, bundle *models.Bundle, key []byte) error
	// GetBundle returns the sealed bundle together with its key.
	GetBundle(ctx context.Context, exportID id.ExportID) (*models.Bundle, []byte, error)
	GetMetadataByUser(ctx context.Context, userID id.UserID) ([]models.Metadata, error)
	// DeleteBundle crypto-shreds one bundle: key row, then ciphertext.
	// Idempotent: deleting an absent bundle is a no-op.
	DeleteBundle(ctx context.Context, exportID id.ExportID) error
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteOlderThan crypto-shreds every bundle created before the cutoff
	// and returns the number of bundles removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
