package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"custodia/internal/rgpd/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory Store for unit tests.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.Request)}
}

func (s *InMemory) Create(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *request
	s.requests[request.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *request
	return &clone, nil
}

func (s *InMemory) FindPendingPurges(_ context.Context, now time.Time) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.requests {
		if r.IsDue(now) {
			clone := *r
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledPurgeAt.Before(*out[j].ScheduledPurgeAt)
	})
	return out, nil
}

func (s *InMemory) MarkCompleted(_ context.Context, requestID id.RequestID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if request.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	return request.Complete(now)
}

func (s *InMemory) CountCompletedOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.requests {
		if r.Status == models.StatusCompleted && r.CompletedAt != nil && r.CompletedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) DeleteCompletedOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for requestID, r := range s.requests {
		if r.Status == models.StatusCompleted && r.CompletedAt != nil && r.CompletedAt.Before(cutoff) {
			delete(s.requests, requestID)
			removed++
		}
	}
	return removed, nil
}
