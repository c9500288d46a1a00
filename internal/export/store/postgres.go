package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"custodia/internal/export/models"
	"custodia/internal/platform/tenantdb"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Postgres persists export bundles on a tenant-scoped transaction.
type Postgres struct {
	tx *tenantdb.TenantTx
}

func NewPostgres(tx *tenantdb.TenantTx) *Postgres {
	return &Postgres{tx: tx}
}

func (s *Postgres) Put(ctx context.Context, bundle *models.Bundle, key []byte) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO export_bundles (id, tenant_id, user_id, nonce, ciphertext, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		bundle.ID, bundle.TenantID, bundle.UserID, bundle.Nonce, bundle.Ciphertext, bundle.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert export bundle: %w", err)
	}
	_, err = s.tx.Exec(ctx, `
		INSERT INTO export_keys (export_id, tenant_id, key_data, created_at)
		VALUES ($1, $2, $3, $4)`,
		bundle.ID, bundle.TenantID, key, bundle.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert export key: %w", err)
	}
	return nil
}

func (s *Postgres) GetBundle(ctx context.Context, exportID id.ExportID) (*models.Bundle, []byte, error) {
	var bundle models.Bundle
	var key []byte
	err := s.tx.QueryRow(ctx, `
		SELECT b.id, b.tenant_id, b.user_id, b.nonce, b.ciphertext, b.created_at, k.key_data
		FROM export_bundles b
		JOIN export_keys k ON k.export_id = b.id
		WHERE b.id = $1`,
		exportID,
	).Scan(&bundle.ID, &bundle.TenantID, &bundle.UserID, &bundle.Nonce, &bundle.Ciphertext, &bundle.CreatedAt, &key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan export bundle: %w", err)
	}
	return &bundle, key, nil
}

func (s *Postgres) GetMetadataByUser(ctx context.Context, userID id.UserID) ([]models.Metadata, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, user_id, created_at
		FROM export_bundles
		WHERE user_id = $1
		ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list export metadata: %w", err)
	}
	defer rows.Close()

	var out []models.Metadata
	for rows.Next() {
		var m models.Metadata
		if err := rows.Scan(&m.ID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export metadata: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteBundle(ctx context.Context, exportID id.ExportID) error {
	// Key first. If the transaction fails between the two deletes the
	// remaining ciphertext is already unreadable.
	if _, err := s.tx.Exec(ctx, `DELETE FROM export_keys WHERE export_id = $1`, exportID); err != nil {
		return fmt.Errorf("shred export key: %w", err)
	}
	if _, err := s.tx.Exec(ctx, `DELETE FROM export_bundles WHERE id = $1`, exportID); err != nil {
		return fmt.Errorf("delete export bundle: %w", err)
	}
	return nil
}

func (s *Postgres) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.tx.QueryRow(ctx, `SELECT COUNT(*) FROM export_bundles WHERE created_at < $1`, cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count export bundles: %w", err)
	}
	return n, nil
}

func (s *Postgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	_, err := s.tx.Exec(ctx, `
		DELETE FROM export_keys k
		USING export_bundles b
		WHERE k.export_id = b.id AND b.created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("shred export keys: %w", err)
	}
	tag, err := s.tx.Exec(ctx, `DELETE FROM export_bundles WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete export bundles: %w", err)
	}
	return tag.RowsAffected(), nil
}
