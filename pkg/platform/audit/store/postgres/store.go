// Package postgres implements audit.Store using the transactional outbox
// pattern: events are written to the audit_outbox table, inside the
// caller's tenant-scoped transaction when one is open, and published to
// Kafka by the relay. Kafka is the downstream source of truth.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	audit "custodia/pkg/platform/audit"
	txcontext "custodia/pkg/platform/tx"
)

// Store writes audit events to the outbox table.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL audit store over the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier returns the open transaction from context when present, so audit
// writes commit or roll back together with the mutation they describe.
func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

// payload is the JSON structure stored in the outbox row and published to
// the audit topic.
type payload struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Timestamp  string         `json:"timestamp"`
	ActorScope string         `json:"actor_scope,omitempty"`
	ActorID    string         `json:"actor_id,omitempty"`
	TenantID   string         `json:"tenant_id,omitempty"`
	TargetID   string         `json:"target_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Append writes one audit event to the outbox.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	body, err := json.Marshal(payload{
		ID:         eventID.String(),
		Name:       string(event.Name),
		Category:   string(event.Name.Category()),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		ActorScope: event.ActorScope,
		ActorID:    event.ActorID,
		TenantID:   event.TenantID,
		TargetID:   event.TargetID,
		RequestID:  event.RequestID,
		Metadata:   event.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = s.querier(ctx).Exec(ctx, `
		INSERT INTO audit_outbox (id, event_name, category, tenant_id, payload, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`, eventID, string(event.Name), string(event.Name.Category()), event.TenantID, body, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByTenant returns the stored events for one tenant, oldest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]audit.Event, error) {
	rows, err := s.querier(ctx).Query(ctx, `
		SELECT payload FROM audit_outbox
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var p payload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		ts, _ := time.Parse(time.RFC3339Nano, p.Timestamp)
		events = append(events, audit.Event{
			Name:       audit.EventName(p.Name),
			Timestamp:  ts,
			ActorScope: p.ActorScope,
			ActorID:    p.ActorID,
			TenantID:   p.TenantID,
			TargetID:   p.TargetID,
			RequestID:  p.RequestID,
			Metadata:   p.Metadata,
		})
	}
	return events, rows.Err()
}

// DeleteOlderThan lazily purges published audit rows past their retention
// window. Unpublished rows are kept regardless of age so the relay never
// loses events.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.querier(ctx).Exec(ctx, `
		DELETE FROM audit_outbox
		WHERE created_at < $1 AND published_at IS NOT NULL
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PendingBatch returns up to limit unpublished outbox rows, oldest first.
// Used by the relay.
func (s *Store) PendingBatch(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("load outbox batch: %w", err)
	}
	defer rows.Close()

	var batch []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.Payload); err != nil {
			return nil, err
		}
		batch = append(batch, row)
	}
	return batch, rows.Err()
}

// MarkPublished stamps outbox rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2)
	`, at, ids)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// OutboxRow is one undelivered audit event.
type OutboxRow struct {
	ID      uuid.UUID
	Payload []byte
}
