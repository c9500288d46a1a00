//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/tenant/models"
	"custodia/internal/tenant/store"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/testutil/containers"
)

func mustTenant(t *testing.T, name string) *models.Tenant {
	t.Helper()
	tenant, err := models.NewTenant(id.NewTenantID(), name, time.Now().UTC())
	require.NoError(t, err)
	return tenant
}

func TestPostgresStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	tenants := store.NewPostgres(pg.Pool)

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, pg.TruncateAll(ctx))
	}

	t.Run("create and find round trip", func(t *testing.T) {
		reset(t)
		tenant := mustTenant(t, "acme")
		require.NoError(t, tenants.CreateIfNameAvailable(ctx, tenant))

		found, err := tenants.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, found.ID)
		assert.Equal(t, "acme", found.Name)
		assert.Equal(t, models.TenantStatusActive, found.Status)
	})

	t.Run("name conflict is case-insensitive", func(t *testing.T) {
		reset(t)
		require.NoError(t, tenants.CreateIfNameAvailable(ctx, mustTenant(t, "acme")))

		err := tenants.CreateIfNameAvailable(ctx, mustTenant(t, "ACME"))
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("find unknown tenant", func(t *testing.T) {
		reset(t)
		_, err := tenants.FindByID(ctx, id.NewTenantID())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("execute suspends under lock", func(t *testing.T) {
		reset(t)
		tenant := mustTenant(t, "acme")
		require.NoError(t, tenants.CreateIfNameAvailable(ctx, tenant))

		now := time.Now().UTC()
		updated, err := tenants.Execute(ctx, tenant.ID,
			func(tn *models.Tenant) error { return tn.CanSuspend() },
			func(tn *models.Tenant) { tn.ApplySuspension(now) },
		)
		require.NoError(t, err)
		assert.Equal(t, models.TenantStatusSuspended, updated.Status)

		found, err := tenants.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TenantStatusSuspended, found.Status)
	})

	t.Run("execute leaves row untouched when validation fails", func(t *testing.T) {
		reset(t)
		tenant := mustTenant(t, "acme")
		require.NoError(t, tenants.CreateIfNameAvailable(ctx, tenant))

		_, err := tenants.Execute(ctx, tenant.ID,
			func(tn *models.Tenant) error { return tn.CanReactivate() },
			func(tn *models.Tenant) { tn.ApplyReactivation(time.Now().UTC()) },
		)
		require.Error(t, err)

		found, err := tenants.FindByID(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TenantStatusActive, found.Status)
	})

	t.Run("list all pages in creation order", func(t *testing.T) {
		reset(t)
		base := time.Now().UTC()
		for i, name := range []string{"first", "second", "third"} {
			tenant, err := models.NewTenant(id.NewTenantID(), name, base.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
			require.NoError(t, tenants.CreateIfNameAvailable(ctx, tenant))
		}

		page, err := tenants.ListAll(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "first", page[0].Name)
		assert.Equal(t, "second", page[1].Name)

		rest, err := tenants.ListAll(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "third", rest[0].Name)
	})
}
