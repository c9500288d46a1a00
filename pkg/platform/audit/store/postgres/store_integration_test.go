//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/platform/tenantdb"
	tenantmodels "custodia/internal/tenant/models"
	tenantstore "custodia/internal/tenant/store"
	id "custodia/pkg/domain"
	audit "custodia/pkg/platform/audit"
	auditpostgres "custodia/pkg/platform/audit/store/postgres"
	"custodia/pkg/testutil/containers"
)

func rowIDs(batch []auditpostgres.OutboxRow) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(batch))
	for _, row := range batch {
		ids = append(ids, row.ID)
	}
	return ids
}

func tenantEvent(tenantID string, at time.Time) audit.Event {
	return audit.Event{
		Name:       audit.EventTenantCreated,
		Timestamp:  at,
		ActorScope: "PLATFORM",
		ActorID:    "ops-1",
		TenantID:   tenantID,
		TargetID:   tenantID,
		Metadata:   map[string]any{"bootstrap": false},
	}
}

func TestOutboxStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	outbox := auditpostgres.New(pg.Pool)

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, pg.TruncateAll(ctx))
	}

	t.Run("append and list by tenant", func(t *testing.T) {
		reset(t)
		tenantID := id.NewTenantID().String()
		now := time.Now().UTC()

		require.NoError(t, outbox.Append(ctx, tenantEvent(tenantID, now)))
		require.NoError(t, outbox.Append(ctx, tenantEvent(id.NewTenantID().String(), now)))

		events, err := outbox.ListByTenant(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventTenantCreated, events[0].Name)
		assert.Equal(t, tenantID, events[0].TenantID)
		assert.Equal(t, map[string]any{"bootstrap": false}, events[0].Metadata)
	})

	t.Run("pending batch drains oldest first and respects the limit", func(t *testing.T) {
		reset(t)
		base := time.Now().UTC()
		for i := 0; i < 3; i++ {
			require.NoError(t, outbox.Append(ctx, tenantEvent(id.NewTenantID().String(), base.Add(time.Duration(i)*time.Second))))
		}

		batch, err := outbox.PendingBatch(ctx, 2)
		require.NoError(t, err)
		require.Len(t, batch, 2)

		require.NoError(t, outbox.MarkPublished(ctx, rowIDs(batch), time.Now().UTC()))

		rest, err := outbox.PendingBatch(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, rest, 1)
	})

	t.Run("retention purge only removes published rows", func(t *testing.T) {
		reset(t)
		old := time.Now().UTC().Add(-48 * time.Hour)

		require.NoError(t, outbox.Append(ctx, tenantEvent(id.NewTenantID().String(), old)))
		require.NoError(t, outbox.Append(ctx, tenantEvent(id.NewTenantID().String(), old)))

		// Publish one of the two; the unpublished one must survive the purge.
		batch, err := outbox.PendingBatch(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, outbox.MarkPublished(ctx, rowIDs(batch), time.Now().UTC()))

		removed, err := outbox.DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		pending, err := outbox.PendingBatch(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("append rides the surrounding transaction", func(t *testing.T) {
		reset(t)
		tenant, err := tenantmodels.NewTenant(id.NewTenantID(), "gamma", time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, tenantstore.NewPostgres(pg.Pool).CreateIfNameAvailable(ctx, tenant))

		txErr := tenantdb.WithTenantContext(ctx, pg.Pool, tenant.ID, func(txCtx context.Context, _ *tenantdb.TenantTx) error {
			if err := outbox.Append(txCtx, tenantEvent(tenant.ID.String(), time.Now().UTC())); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, txErr, assert.AnError)

		events, err := outbox.ListByTenant(ctx, tenant.ID.String())
		require.NoError(t, err)
		assert.Empty(t, events, "rollback discards the audit write")
	})
}
