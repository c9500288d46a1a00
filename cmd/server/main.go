// Command server runs the authorization and data-lifecycle service: the
// operational HTTP surface, the audit outbox relay, and the retention purge
// scheduler, all under one errgroup with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"custodia/internal/migrate"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/retention"
	tenantstore "custodia/internal/tenant/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	deps, err := buildContainer(ctx, cfg, pool, log)
	if err != nil {
		log.Error("dependency wiring failed", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	if err := runBootstrap(ctx, deps, cfg, log); err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	srv := httpserver.New(cfg.Addr, newRouter(deps, pool, []byte(cfg.JWTSigningKey), log))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if cfg.BootstrapMode {
			log.Warn("bootstrap mode is on; disable it once the first tenant exists")
		}
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if deps.relay != nil {
		group.Go(func() error {
			if err := deps.relay.EnsureTopic(groupCtx, 3, 1); err != nil {
				return err
			}
			return ignoreCancel(deps.relay.Run(groupCtx))
		})
	}

	group.Go(func() error {
		policy := retentionPolicy(cfg.Retention)
		orchestrator := retention.NewOrchestrator(
			tenantstore.NewPostgres(pool),
			retention.NewPostgresRunner(pool),
			deps.auditor,
			retention.WithLogger(log),
			retention.WithMetrics(deps.retentionMetrics),
			retention.WithAuditLogRetention(deps.auditStore, cfg.AuditLogRetentionDays),
		)
		scheduler := retention.NewScheduler(orchestrator, policy, cfg.PurgeInterval, log)
		return ignoreCancel(scheduler.Run(groupCtx))
	})

	group.Go(func() error {
		sweeper := &erasureSweeper{
			tenants:  tenantstore.NewPostgres(pool),
			rgpd:     deps.rgpd,
			interval: cfg.PurgeInterval,
			logger:   log,
		}
		return ignoreCancel(sweeper.Run(groupCtx))
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// retentionPolicy overlays configured windows on the defaults.
func retentionPolicy(r config.Retention) retention.Policy {
	policy := retention.DefaultPolicy()
	if r.AIJobsDays > 0 {
		policy.AIJobsDays = r.AIJobsDays
	}
	if r.ExportsDays > 0 {
		policy.ExportsDays = r.ExportsDays
	}
	if r.ContestsDays > 0 {
		policy.ContestsDays = r.ContestsDays
	}
	if r.OppositionsDays > 0 {
		policy.OppositionsDays = r.OppositionsDays
	}
	if r.SuspensionsDays > 0 {
		policy.SuspensionsDays = r.SuspensionsDays
	}
	if r.DeletionsDays > 0 {
		policy.DeletionsDays = r.DeletionsDays
	}
	policy.DryRun = r.DryRun
	return policy
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
