package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"custodia/internal/tenant/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded tenant store for unit tests and local runs.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
}

func NewInMemory() *InMemory {
	return &InMemory{tenants: make(map[id.TenantID]*models.Tenant)}
}

func (s *InMemory) CreateIfNameAvailable(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tenants {
		if strings.EqualFold(existing.Name, tenant.Name) {
			return sentinel.ErrConflict
		}
	}
	copied := *tenant
	s.tenants[tenant.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *tenant
	return &copied, nil
}

func (s *InMemory) ListAll(_ context.Context, limit, offset int) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Tenant, 0, len(s.tenants))
	for _, tenant := range s.tenants {
		copied := *tenant
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)
	copied := *tenant
	return &copied, nil
}
