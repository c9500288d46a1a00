package store

import (
	"context"
	"fmt"
	"time"

	"custodia/internal/aijob/models"
	"custodia/internal/platform/tenantdb"
	id "custodia/pkg/domain"
)

// Postgres persists AI job metadata on a tenant-scoped transaction.
type Postgres struct {
	tx *tenantdb.TenantTx
}

func NewPostgres(tx *tenantdb.TenantTx) *Postgres {
	return &Postgres{tx: tx}
}

func (s *Postgres) Append(ctx context.Context, job *models.Job) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO ai_jobs (id, tenant_id, user_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.TenantID, job.UserID, job.Kind, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ai job: %w", err)
	}
	return nil
}

func (s *Postgres) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.tx.QueryRow(ctx, `SELECT COUNT(*) FROM ai_jobs WHERE created_at < $1`, cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ai jobs: %w", err)
	}
	return n, nil
}

func (s *Postgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.tx.Exec(ctx, `DELETE FROM ai_jobs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete ai jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) DeleteByUser(ctx context.Context, userID id.UserID) (int64, error) {
	tag, err := s.tx.Exec(ctx, `DELETE FROM ai_jobs WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete ai jobs by user: %w", err)
	}
	return tag.RowsAffected(), nil
}
