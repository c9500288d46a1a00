package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"custodia/internal/platform/tenantdb"
)

// PlatformTx runs service mutations inside a platform-scoped database
// transaction. The tenants table is platform-owned, so no tenant session
// variable is set; the transaction is injected into the context so the
// audit outbox write commits with the tenant row.
type PlatformTx struct {
	pool *pgxpool.Pool
}

func NewPlatformTx(pool *pgxpool.Pool) *PlatformTx {
	return &PlatformTx{pool: pool}
}

func (p *PlatformTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tenantdb.WithPlatformContext(ctx, p.pool, func(txCtx context.Context, _ *tenantdb.PlatformTx) error {
		return fn(txCtx)
	})
}
