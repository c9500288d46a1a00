package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Publisher emits audit events with fail-closed semantics: the caller blocks
// until the write succeeds, and if it fails the calling operation MUST fail.
// There is no buffering on this path; the outbox store provides durability
// and the relay provides downstream delivery.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for persist-failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// NewPublisher creates a fail-closed publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and synchronously persists one event. Returns an error if
// validation or persistence fails; the caller must then fail its operation
// (and, inside a tenant-scoped transaction, roll back).
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	start := time.Now()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := event.Validate(); err != nil {
		return err
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"event", string(event.Name),
				"tenant_id", event.TenantID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(string(event.Name.Category()))
	}
	return nil
}
