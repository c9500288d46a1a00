package store

import (
	"context"
	"sync"
	"time"

	"custodia/internal/export/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory Store for unit tests.
type InMemory struct {
	mu      sync.RWMutex
	bundles map[id.ExportID]*models.Bundle
	keys    map[id.ExportID][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{
		bundles: make(map[id.ExportID]*models.Bundle),
		keys:    make(map[id.ExportID][]byte),
	}
}

func (s *InMemory) Put(_ context.Context, bundle *models.Bundle, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *bundle
	s.bundles[bundle.ID] = &clone
	s.keys[bundle.ID] = append([]byte(nil), key...)
	return nil
}

func (s *InMemory) GetBundle(_ context.Context, exportID id.ExportID) (*models.Bundle, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bundle, ok := s.bundles[exportID]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	key, ok := s.keys[exportID]
	if !ok {
		// Key already shredded: the bundle is as good as gone.
		return nil, nil, sentinel.ErrNotFound
	}
	clone := *bundle
	return &clone, append([]byte(nil), key...), nil
}

func (s *InMemory) GetMetadataByUser(_ context.Context, userID id.UserID) ([]models.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Metadata
	for _, b := range s.bundles {
		if b.UserID == userID {
			out = append(out, models.Metadata{ID: b.ID, UserID: b.UserID, CreatedAt: b.CreatedAt})
		}
	}
	return out, nil
}

func (s *InMemory) DeleteBundle(_ context.Context, exportID id.ExportID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, exportID)
	delete(s.bundles, exportID)
	return nil
}

func (s *InMemory) CountOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, b := range s.bundles {
		if b.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for exportID, b := range s.bundles {
		if b.CreatedAt.Before(cutoff) {
			delete(s.keys, exportID)
			delete(s.bundles, exportID)
			removed++
		}
	}
	return removed, nil
}
