package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"custodia/internal/platform/tenantdb"
	"custodia/internal/rgpd/models"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// Postgres persists rights requests on a tenant-scoped transaction.
type Postgres struct {
	tx *tenantdb.TenantTx
}

func NewPostgres(tx *tenantdb.TenantTx) *Postgres {
	return &Postgres{tx: tx}
}

func (s *Postgres) Create(ctx context.Context, request *models.Request) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO rgpd_requests (id, tenant_id, user_id, request_type, status, created_at, scheduled_purge_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		request.ID, request.TenantID, request.UserID, string(request.Type), string(request.Status),
		request.CreatedAt, request.ScheduledPurgeAt, request.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rgpd request: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	row := s.tx.QueryRow(ctx, selectRequest+` WHERE id = $1`, requestID)
	return scanRequest(row)
}

func (s *Postgres) FindPendingPurges(ctx context.Context, now time.Time) ([]*models.Request, error) {
	rows, err := s.tx.Query(ctx, selectRequest+`
		WHERE status = $1 AND request_type = $2 AND scheduled_purge_at <= $3
		ORDER BY scheduled_purge_at`,
		string(models.StatusPending), string(models.RequestTypeDelete), now,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending purges: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkCompleted(ctx context.Context, requestID id.RequestID, now time.Time) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE rgpd_requests
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4`,
		requestID, string(models.StatusCompleted), now, string(models.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("complete rgpd request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either absent or already completed; distinguish for the caller.
		if _, err := s.FindByID(ctx, requestID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Postgres) CountCompletedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM rgpd_requests
		WHERE status = $1 AND completed_at < $2`,
		string(models.StatusCompleted), cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed requests: %w", err)
	}
	return n, nil
}

func (s *Postgres) DeleteCompletedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.tx.Exec(ctx, `
		DELETE FROM rgpd_requests
		WHERE status = $1 AND completed_at < $2`,
		string(models.StatusCompleted), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete completed requests: %w", err)
	}
	return tag.RowsAffected(), nil
}

const selectRequest = `
	SELECT id, tenant_id, user_id, request_type, status, created_at, scheduled_purge_at, completed_at
	FROM rgpd_requests`

func scanRequest(row pgx.Row) (*models.Request, error) {
	var request models.Request
	var requestType, status string
	err := row.Scan(&request.ID, &request.TenantID, &request.UserID, &requestType, &status,
		&request.CreatedAt, &request.ScheduledPurgeAt, &request.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan rgpd request: %w", err)
	}
	request.Type = models.RequestType(requestType)
	request.Status = models.RequestStatus(status)
	return &request, nil
}
