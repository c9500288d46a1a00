package store

import (
	"context"
	"sync"

	"custodia/internal/consent/models"
	id "custodia/pkg/domain"
)

// InMemory is a thread-safe in-memory Store for unit tests.
type InMemory struct {
	mu       sync.RWMutex
	consents []*models.Consent
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, consent *models.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *consent
	s.consents = append(s.consents, &clone)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Consent
	for _, c := range s.consents {
		if c.UserID == userID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemory) DeleteByUser(_ context.Context, userID id.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*models.Consent
	var removed int64
	for _, c := range s.consents {
		if c.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.consents = kept
	return removed, nil
}
