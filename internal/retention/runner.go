package retention

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	aijobstore "custodia/internal/aijob/store"
	exportstore "custodia/internal/export/store"
	"custodia/internal/platform/tenantdb"
	rgpdstore "custodia/internal/rgpd/store"
	id "custodia/pkg/domain"
)

// CategoryStores bundles the per-tenant stores the purge categories act
// on, all bound to one tenant-scoped transaction.
type CategoryStores struct {
	Jobs     aijobstore.Store
	Exports  exportstore.Store
	Rights   rgpdstore.DSRStore
	Requests rgpdstore.Store
}

// TxRunner opens a tenant-scoped unit of work over the purgeable stores.
type TxRunner interface {
	InTenantTx(ctx context.Context, tenantID id.TenantID, fn func(ctx context.Context, stores CategoryStores) error) error
}

// PostgresRunner binds Postgres stores to one tenant-scoped transaction
// per unit of work.
type PostgresRunner struct {
	pool *pgxpool.Pool
}

func NewPostgresRunner(pool *pgxpool.Pool) *PostgresRunner {
	return &PostgresRunner{pool: pool}
}

func (r *PostgresRunner) InTenantTx(ctx context.Context, tenantID id.TenantID, fn func(ctx context.Context, stores CategoryStores) error) error {
	return tenantdb.WithTenantContext(ctx, r.pool, tenantID, func(txCtx context.Context, tx *tenantdb.TenantTx) error {
		return fn(txCtx, CategoryStores{
			Jobs:     aijobstore.NewPostgres(tx),
			Exports:  exportstore.NewPostgres(tx),
			Rights:   rgpdstore.NewPostgresDSR(tx),
			Requests: rgpdstore.NewPostgres(tx),
		})
	})
}

// MemoryRunner binds every unit of work to shared in-memory stores.
// Unit-test substitute for PostgresRunner. Stores are shared across
// tenants, which unit tests compensate for by seeding one tenant at a
// time.
type MemoryRunner struct {
	Jobs     *aijobstore.InMemory
	Exports  *exportstore.InMemory
	Rights   *rgpdstore.InMemoryDSR
	Requests *rgpdstore.InMemory
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{
		Jobs:     aijobstore.NewInMemory(),
		Exports:  exportstore.NewInMemory(),
		Rights:   rgpdstore.NewInMemoryDSR(),
		Requests: rgpdstore.NewInMemory(),
	}
}

func (r *MemoryRunner) InTenantTx(ctx context.Context, _ id.TenantID, fn func(ctx context.Context, stores CategoryStores) error) error {
	return fn(ctx, CategoryStores{
		Jobs:     r.Jobs,
		Exports:  r.Exports,
		Rights:   r.Rights,
		Requests: r.Requests,
	})
}
