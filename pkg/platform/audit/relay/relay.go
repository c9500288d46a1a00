// Package relay publishes audit outbox rows to Kafka. The outbox write is
// the synchronous, fail-closed part of the audit contract; the relay is the
// asynchronous delivery half, safe to retry because rows are only stamped
// published after the broker acknowledges them.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "custodia/pkg/platform/audit"
	auditpg "custodia/pkg/platform/audit/store/postgres"
)

const (
	// DefaultTopic is the Kafka topic audit events are relayed to.
	DefaultTopic = "custodia.audit"

	defaultInterval  = 2 * time.Second
	defaultBatchSize = 256
)

// Outbox is the slice of the postgres store the relay needs.
type Outbox interface {
	PendingBatch(ctx context.Context, limit int) ([]auditpg.OutboxRow, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Relay drains the audit outbox into a Kafka topic.
type Relay struct {
	outbox   Outbox
	client   *kgo.Client
	topic    string
	interval time.Duration
	logger   *slog.Logger
	metrics  *audit.Metrics
}

// Option configures a Relay.
type Option func(*Relay)

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(r *Relay) { r.topic = topic }
}

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the relay logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *audit.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// New creates a Relay over an outbox and a Kafka client.
func New(outbox Outbox, client *kgo.Client, opts ...Option) *Relay {
	r := &Relay{
		outbox:   outbox,
		client:   client,
		topic:    DefaultTopic,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (r *Relay) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	adm := kadm.NewClient(r.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicas, nil, r.topic)
	if err != nil {
		return err
	}
	for _, topic := range resp {
		if topic.Err != nil && topic.Err != kerr.TopicAlreadyExists {
			return topic.Err
		}
	}
	return nil
}

// Run polls the outbox until the context is cancelled. Failures on a batch
// are logged and retried on the next tick; rows stay unpublished until the
// broker acknowledged them.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				if r.metrics != nil {
					r.metrics.RelayFailures.Inc()
				}
				if r.logger != nil {
					r.logger.ErrorContext(ctx, "audit relay drain failed", "error", err)
				}
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		batch, err := r.outbox.PendingBatch(ctx, defaultBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		records := make([]*kgo.Record, 0, len(batch))
		ids := make([]uuid.UUID, 0, len(batch))
		for _, row := range batch {
			records = append(records, &kgo.Record{
				Topic: r.topic,
				Key:   []byte(row.ID.String()),
				Value: row.Payload,
			})
			ids = append(ids, row.ID)
		}

		if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
			return err
		}
		if err := r.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.RelayPublished.Add(float64(len(ids)))
		}
	}
}
