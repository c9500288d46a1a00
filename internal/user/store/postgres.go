package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"custodia/internal/platform/tenantdb"
	"custodia/internal/user/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Postgres persists users on a tenant-scoped transaction. It cannot be
// constructed around anything else, so every query it runs is covered by
// the tenant's row-level security policy.
type Postgres struct {
	tx *tenantdb.TenantTx
}

func NewPostgres(tx *tenantdb.TenantTx) *Postgres {
	return &Postgres{tx: tx}
}

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.TenantID, user.Email, user.DisplayName, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.tx.QueryRow(ctx, `
		SELECT id, tenant_id, email, display_name, created_at, deleted_at
		FROM users
		WHERE id = $1`,
		userID,
	)
	return scanUser(row)
}

func (s *Postgres) SoftDelete(ctx context.Context, userID id.UserID, now time.Time) (*models.User, error) {
	row := s.tx.QueryRow(ctx, `
		UPDATE users
		SET deleted_at = COALESCE(deleted_at, $2)
		WHERE id = $1
		RETURNING id, tenant_id, email, display_name, created_at, deleted_at`,
		userID, now,
	)
	return scanUser(row)
}

func (s *Postgres) HardDelete(ctx context.Context, userID id.UserID) (int64, error) {
	tag, err := s.tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.TenantID, &user.Email, &user.DisplayName, &user.CreatedAt, &user.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
