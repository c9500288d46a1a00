package store

import (
	"context"
	"sync"
	"time"

	"custodia/internal/aijob/models"
	id "custodia/pkg/domain"
)

// InMemory is a thread-safe in-memory Store for unit tests.
type InMemory struct {
	mu   sync.RWMutex
	jobs []*models.Job
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs = append(s.jobs, &clone)
	return nil
}

func (s *InMemory) CountOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, j := range s.jobs {
		if j.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*models.Job
	var removed int64
	for _, j := range s.jobs {
		if j.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	s.jobs = kept
	return removed, nil
}

func (s *InMemory) DeleteByUser(_ context.Context, userID id.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*models.Job
	var removed int64
	for _, j := range s.jobs {
		if j.UserID != nil && *j.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	s.jobs = kept
	return removed, nil
}
