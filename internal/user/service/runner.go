package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"custodia/internal/platform/tenantdb"
	"custodia/internal/user/store"
	id "custodia/pkg/domain"
)

// PostgresRunner opens a tenant-scoped transaction per unit of work and
// binds a Postgres user store to it.
type PostgresRunner struct {
	pool *pgxpool.Pool
}

func NewPostgresRunner(pool *pgxpool.Pool) *PostgresRunner {
	return &PostgresRunner{pool: pool}
}

func (r *PostgresRunner) InTenantTx(ctx context.Context, tenantID id.TenantID, fn func(ctx context.Context, users store.Store) error) error {
	return tenantdb.WithTenantContext(ctx, r.pool, tenantID, func(txCtx context.Context, tx *tenantdb.TenantTx) error {
		return fn(txCtx, store.NewPostgres(tx))
	})
}

// MemoryRunner binds every unit of work to one shared in-memory store.
// Unit-test substitute for PostgresRunner; there is no transaction to open.
type MemoryRunner struct {
	Users *store.InMemory
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{Users: store.NewInMemory()}
}

func (r *MemoryRunner) InTenantTx(ctx context.Context, _ id.TenantID, fn func(ctx context.Context, users store.Store) error) error {
	return fn(ctx, r.Users)
}
