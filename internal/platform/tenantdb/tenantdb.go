// Package tenantdb is the tenant-scope bridge over the connection pool.
//
// Every tenant-scoped use case runs inside WithTenantContext: one pooled
// connection, one transaction, and a transaction-local session variable
// (app.tenant_id) that the database's row-level-security policies read. Even
// if a call site forgets a tenant predicate, the store rejects or filters
// cross-tenant rows.
//
// The session variable is set with set_config(..., is_local => true) inside
// the transaction, so it dies with the transaction and can never leak into
// another request through pooled-connection reuse. Queries against
// tenant-owned tables must go through a *TenantTx, which is only obtainable
// here; a bare connection for tenant-owned tables is a type error.
package tenantdb

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	txcontext "custodia/pkg/platform/tx"
)

// defaultTxTimeout bounds a scoped transaction when the caller set no
// deadline. Hitting it is a normal failure: rollback, work stays pending.
const defaultTxTimeout = 30 * time.Second

var tracer = otel.Tracer("custodia/internal/platform/tenantdb")

// TenantTx is a transaction scoped to a single tenant. It is only obtainable
// through WithTenantContext, so holding one proves the session variable for
// its tenant is set in the same transaction.
type TenantTx struct {
	tx       pgx.Tx
	tenantID id.TenantID
}

// TenantID returns the tenant this transaction is scoped to.
func (t *TenantTx) TenantID() id.TenantID { return t.tenantID }

func (t *TenantTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t *TenantTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *TenantTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// PlatformTx is a transaction without tenant scoping, for platform-owned
// tables (tenants, audit outbox). Row-level security still hides
// tenant-owned rows from it.
type PlatformTx struct {
	tx pgx.Tx
}

func (t *PlatformTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t *PlatformTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *PlatformTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// WithTenantContext runs fn inside a transaction scoped to tenantID.
// Commits when fn returns nil, rolls back on any error, always releases the
// connection. The scoped transaction is also placed in the callback context
// so context-aware stores (the audit outbox) write through it.
func WithTenantContext(ctx context.Context, pool *pgxpool.Pool, tenantID id.TenantID, fn func(ctx context.Context, tx *TenantTx) error) error {
	if tenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}

	ctx, span := tracer.Start(ctx, "tenantdb.WithTenantContext")
	span.SetAttributes(attribute.String("tenant.id", tenantID.String()))
	defer span.End()

	err := runInTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
		// is_local=true ties the setting to this transaction; the policies
		// read it via current_setting('app.tenant_id', true).
		if _, err := tx.Exec(ctx, `SELECT set_config('app.tenant_id', $1, true)`, tenantID.String()); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set tenant context")
		}
		return fn(txcontext.WithTx(ctx, tx), &TenantTx{tx: tx, tenantID: tenantID})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// WithPlatformContext runs fn inside an unscoped transaction for
// platform-owned tables.
func WithPlatformContext(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx *PlatformTx) error) error {
	ctx, span := tracer.Start(ctx, "tenantdb.WithPlatformContext")
	defer span.End()

	err := runInTx(ctx, pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(txcontext.WithTx(ctx, tx), &PlatformTx{tx: tx})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func runInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
