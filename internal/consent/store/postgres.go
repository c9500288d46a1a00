package store

import (
	"context"
	"fmt"

	"custodia/internal/consent/models"
	"custodia/internal/platform/tenantdb"
	id "custodia/pkg/domain"
)

// Postgres persists consents on a tenant-scoped transaction.
type Postgres struct {
	tx *tenantdb.TenantTx
}

func NewPostgres(tx *tenantdb.TenantTx) *Postgres {
	return &Postgres{tx: tx}
}

func (s *Postgres) Append(ctx context.Context, consent *models.Consent) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO consents (id, tenant_id, user_id, purpose, granted_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		consent.ID, consent.TenantID, consent.UserID, consent.Purpose, consent.GrantedAt, consent.RevokedAt,
	)
	if err != nil {
		return fmt.Errorf("insert consent: %w", err)
	}
	return nil
}

func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Consent, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, tenant_id, user_id, purpose, granted_at, revoked_at
		FROM consents
		WHERE user_id = $1
		ORDER BY granted_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var out []*models.Consent
	for rows.Next() {
		var c models.Consent
		if err := rows.Scan(&c.ID, &c.TenantID, &c.UserID, &c.Purpose, &c.GrantedAt, &c.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteByUser(ctx context.Context, userID id.UserID) (int64, error) {
	tag, err := s.tx.Exec(ctx, `DELETE FROM consents WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete consents: %w", err)
	}
	return tag.RowsAffected(), nil
}
