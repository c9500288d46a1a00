package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"custodia/internal/platform/tenantdb"
	"custodia/internal/rgpd/models"
)

// DSRStore persists contest, opposition and suspension traces. Purge
// primitives take the kind so each category keeps its own retention window.
type DSRStore interface {
	Append(ctx context.Context, record *models.DSRRecord) error
	CountOlderThan(ctx context.Context, kind models.DSRKind, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, kind models.DSRKind, cutoff time.Time) (int64, error)
}

// InMemoryDSR is a thread-safe in-memory DSRStore for unit tests.
type InMemoryDSR struct {
	mu      sync.RWMutex
	records []*models.DSRRecord
}

func NewInMemoryDSR() *InMemoryDSR {
	return &InMemoryDSR{}
}

func (s *InMemoryDSR) Append(_ context.Context, record *models.DSRRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records = append(s.records, &clone)
	return nil
}

func (s *InMemoryDSR) CountOlderThan(_ context.Context, kind models.DSRKind, cutoff time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.records {
		if r.Kind == kind && r.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryDSR) DeleteOlderThan(_ context.Context, kind models.DSRKind, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*models.DSRRecord
	var removed int64
	for _, r := range s.records {
		if r.Kind == kind && r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// PostgresDSR persists rights records on a tenant-scoped transaction.
type PostgresDSR struct {
	tx *tenantdb.TenantTx
}

func NewPostgresDSR(tx *tenantdb.TenantTx) *PostgresDSR {
	return &PostgresDSR{tx: tx}
}

func (s *PostgresDSR) Append(ctx context.Context, record *models.DSRRecord) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO dsr_records (id, tenant_id, user_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.TenantID, record.UserID, string(record.Kind), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rights record: %w", err)
	}
	return nil
}

func (s *PostgresDSR) CountOlderThan(ctx context.Context, kind models.DSRKind, cutoff time.Time) (int64, error) {
	var n int64
	err := s.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM dsr_records WHERE kind = $1 AND created_at < $2`,
		string(kind), cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rights records: %w", err)
	}
	return n, nil
}

func (s *PostgresDSR) DeleteOlderThan(ctx context.Context, kind models.DSRKind, cutoff time.Time) (int64, error) {
	tag, err := s.tx.Exec(ctx, `
		DELETE FROM dsr_records WHERE kind = $1 AND created_at < $2`,
		string(kind), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete rights records: %w", err)
	}
	return tag.RowsAffected(), nil
}
