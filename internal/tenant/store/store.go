// Package store persists tenants. The tenants table is platform-owned:
// it is the one relation the purge orchestrator reads outside any
// tenant-scoped transaction.
package store

import (
	"context"

	"custodia/internal/tenant/models"
	id "custodia/pkg/domain"
)

// Store is the tenant persistence contract.
type Store interface {
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	// ListAll pages through every tenant ordered by creation time.
	ListAll(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	// Execute atomically validates then mutates one tenant under a lock
	// (mutex in memory, FOR UPDATE in Postgres).
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error)
}
