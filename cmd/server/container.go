package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twmb/franz-go/pkg/kgo"

	"custodia/internal/access"
	accessmetrics "custodia/internal/access/metrics"
	"custodia/internal/access/sink"
	"custodia/internal/platform/config"
	"custodia/internal/platform/redis"
	retentionmetrics "custodia/internal/retention/metrics"
	rgpdmetrics "custodia/internal/rgpd/metrics"
	rgpdservice "custodia/internal/rgpd/service"
	tenantmetrics "custodia/internal/tenant/metrics"
	tenantservice "custodia/internal/tenant/service"
	tenantstore "custodia/internal/tenant/store"
	userservice "custodia/internal/user/service"
	audit "custodia/pkg/platform/audit"
	auditrelay "custodia/pkg/platform/audit/relay"
	auditpostgres "custodia/pkg/platform/audit/store/postgres"
)

// container holds every constructed dependency. Wiring is explicit: each
// service receives exactly what it needs, nothing reaches for a global.
type container struct {
	guard   *access.Guard
	auditor *audit.Publisher

	auditStore *auditpostgres.Store
	relay      *auditrelay.Relay

	tenants *tenantservice.Service
	users   *userservice.Service
	rgpd    *rgpdservice.Service

	retentionMetrics *retentionmetrics.Metrics

	redisClient *redis.Client
	kafkaClient *kgo.Client
}

func buildContainer(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, log *slog.Logger) (*container, error) {
	c := &container{
		retentionMetrics: retentionmetrics.New(),
	}

	engine := access.NewEngine(
		access.WithLogger(log),
		access.WithMetrics(accessmetrics.New()),
	)

	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	c.redisClient = redisClient

	c.auditStore = auditpostgres.New(pool)
	c.auditor = audit.NewPublisher(c.auditStore,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics()),
	)

	guardOpts := []access.GuardOption{access.WithAuditor(c.auditor)}
	if redisClient != nil {
		guardOpts = append(guardOpts, access.WithDenialSink(sink.NewRedisSink(redisClient.Client)))
	}
	c.guard = access.NewGuard(engine, guardOpts...)

	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.KafkaBrokers...))
		if err != nil {
			return nil, err
		}
		c.kafkaClient = kafkaClient
		c.relay = auditrelay.New(c.auditStore, kafkaClient, auditrelay.WithLogger(log))
	}

	c.tenants = tenantservice.New(
		tenantstore.NewPostgres(pool), c.guard, c.auditor,
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(tenantmetrics.New()),
		tenantservice.WithStoreTx(tenantservice.NewPlatformTx(pool)),
	)
	c.users = userservice.New(
		userservice.NewPostgresRunner(pool), c.guard, c.auditor,
		userservice.WithLogger(log),
	)
	c.rgpd = rgpdservice.New(
		rgpdservice.NewPostgresRunner(pool), c.guard, c.auditor,
		rgpdservice.WithLogger(log),
		rgpdservice.WithMetrics(rgpdmetrics.New()),
	)

	return c, nil
}

// Close releases external clients. The pgx pool is owned by main.
func (c *container) Close() {
	if c.kafkaClient != nil {
		c.kafkaClient.Close()
	}
	if c.redisClient != nil {
		c.redisClient.Close()
	}
}
