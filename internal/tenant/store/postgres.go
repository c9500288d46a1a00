package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"custodia/internal/tenant/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	txcontext "custodia/pkg/platform/tx"
)

// Postgres persists tenants in the platform-owned tenants table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Postgres) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

// CreateIfNameAvailable inserts the tenant unless the name (case-insensitive)
// is taken. Concurrent attempts race on the unique index; exactly one wins.
func (s *Postgres) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	tag, err := s.querier(ctx).Exec(ctx, `
		INSERT INTO tenants (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ((LOWER(name))) DO NOTHING
	`, tenant.ID, tenant.Name, string(tenant.Status), tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	return scanTenant(s.querier(ctx).QueryRow(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants WHERE id = $1
	`, tenantID))
}

func (s *Postgres) ListAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	rows, err := s.querier(ctx).Query(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// Execute validates and mutates one tenant under FOR UPDATE. Runs in the
// caller's transaction when one is open, otherwise in its own.
func (s *Postgres) Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return executeLocked(ctx, tx, tenantID, validate, mutate)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tenant update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenant, err := executeLocked(ctx, tx, tenantID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tenant update: %w", err)
	}
	return tenant, nil
}

func executeLocked(ctx context.Context, tx pgx.Tx, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	tenant, err := scanTenant(tx.QueryRow(ctx, `
		SELECT id, name, status, created_at, updated_at
		FROM tenants WHERE id = $1
		FOR UPDATE
	`, tenantID))
	if err != nil {
		return nil, err
	}
	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)

	if _, err := tx.Exec(ctx, `
		UPDATE tenants SET name = $2, status = $3, updated_at = $4 WHERE id = $1
	`, tenant.ID, tenant.Name, string(tenant.Status), tenant.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	return tenant, nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var tenant models.Tenant
	var status string
	err := row.Scan(&tenant.ID, &tenant.Name, &status, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	tenant.Status = models.TenantStatus(status)
	return &tenant, nil
}
