package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	aijobstore "custodia/internal/aijob/store"
	consentstore "custodia/internal/consent/store"
	exportstore "custodia/internal/export/store"
	"custodia/internal/platform/tenantdb"
	"custodia/internal/rgpd/store"
	userstore "custodia/internal/user/store"
	id "custodia/pkg/domain"
)

// TxStores bundles every store the erasure cascade touches, all bound to
// the same tenant-scoped transaction so the cascade commits or rolls back
// as one.
type TxStores struct {
	Requests store.Store
	Users    userstore.Store
	Consents consentstore.Store
	Jobs     aijobstore.Store
	Exports  exportstore.Store
}

// TxRunner opens a tenant-scoped unit of work over the cascade stores.
type TxRunner interface {
	InTenantTx(ctx context.Context, tenantID id.TenantID, fn func(ctx context.Context, stores TxStores) error) error
}

// PostgresRunner binds Postgres stores to one tenant-scoped transaction
// per unit of work.
type PostgresRunner struct {
	pool *pgxpool.Pool
}

func NewPostgresRunner(pool *pgxpool.Pool) *PostgresRunner {
	return &PostgresRunner{pool: pool}
}

func (r *PostgresRunner) InTenantTx(ctx context.Context, tenantID id.TenantID, fn func(ctx context.Context, stores TxStores) error) error {
	return tenantdb.WithTenantContext(ctx, r.pool, tenantID, func(txCtx context.Context, tx *tenantdb.TenantTx) error {
		return fn(txCtx, TxStores{
			Requests: store.NewPostgres(tx),
			Users:    userstore.NewPostgres(tx),
			Consents: consentstore.NewPostgres(tx),
			Jobs:     aijobstore.NewPostgres(tx),
			Exports:  exportstore.NewPostgres(tx),
		})
	})
}

// MemoryRunner binds every unit of work to shared in-memory stores.
// Unit-test substitute for PostgresRunner.
type MemoryRunner struct {
	Requests *store.InMemory
	Users    *userstore.InMemory
	Consents *consentstore.InMemory
	Jobs     *aijobstore.InMemory
	Exports  *exportstore.InMemory
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{
		Requests: store.NewInMemory(),
		Users:    userstore.NewInMemory(),
		Consents: consentstore.NewInMemory(),
		Jobs:     aijobstore.NewInMemory(),
		Exports:  exportstore.NewInMemory(),
	}
}

func (r *MemoryRunner) InTenantTx(ctx context.Context, _ id.TenantID, fn func(ctx context.Context, stores TxStores) error) error {
	return fn(ctx, TxStores{
		Requests: r.Requests,
		Users:    r.Users,
		Consents: r.Consents,
		Jobs:     r.Jobs,
		Exports:  r.Exports,
	})
}
