// Package sink records cross-tenant denial markers for security review.
//
// Markers carry identifiers only (actor, tenants, action), never content,
// and expire on their own so the sink cannot become a second audit log.
package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	denialListKey = "security:cross_tenant_denials"

	// maxEntries bounds the review window; older markers are trimmed away.
	maxEntries = 1000

	defaultTTL = 7 * 24 * time.Hour
)

// Denial is one recorded isolation violation attempt.
type Denial struct {
	ActorID          string    `json:"actor_id"`
	ActorTenantID    string    `json:"actor_tenant_id"`
	ResourceTenantID string    `json:"resource_tenant_id"`
	Action           string    `json:"action"`
	At               time.Time `json:"at"`
}

// RedisSink keeps recent denial markers in Redis with a bounded window and
// TTL, shared across instances.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures a RedisSink.
type Option func(*RedisSink)

// WithTTL overrides the review-window TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisSink) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisSink constructs a Redis-backed denial sink.
func NewRedisSink(client *redis.Client, opts ...Option) *RedisSink {
	s := &RedisSink{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends a denial marker. Uses a pipeline so push, trim and expiry
// land in one round-trip.
func (s *RedisSink) Record(ctx context.Context, denial Denial) error {
	if denial.At.IsZero() {
		denial.At = time.Now()
	}
	payload, err := json.Marshal(denial)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, denialListKey, payload)
	pipe.LTrim(ctx, denialListKey, 0, maxEntries-1)
	pipe.Expire(ctx, denialListKey, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit most-recent denial markers, newest first.
func (s *RedisSink) Recent(ctx context.Context, limit int64) ([]Denial, error) {
	if limit <= 0 || limit > maxEntries {
		limit = maxEntries
	}
	raw, err := s.client.LRange(ctx, denialListKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	denials := make([]Denial, 0, len(raw))
	for _, entry := range raw {
		var d Denial
		if err := json.Unmarshal([]byte(entry), &d); err != nil {
			continue
		}
		denials = append(denials, d)
	}
	return denials, nil
}
