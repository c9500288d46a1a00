package main

import (
	"context"
	"log/slog"
	"time"

	rgpdservice "custodia/internal/rgpd/service"
	tenantstore "custodia/internal/tenant/store"
)

const erasurePageSize = 1000

// erasureSweeper periodically walks every tenant and completes the erasure
// requests whose grace window has elapsed. Tenants are processed
// sequentially; one tenant's failure never blocks the rest.
type erasureSweeper struct {
	tenants  tenantstore.Store
	rgpd     *rgpdservice.Service
	interval time.Duration
	logger   *slog.Logger
}

func (s *erasureSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *erasureSweeper) sweep(ctx context.Context) {
	offset := 0
	for {
		page, err := s.tenants.ListAll(ctx, erasurePageSize, offset)
		if err != nil {
			s.logger.Error("erasure sweep: listing tenants failed", "error", err)
			return
		}
		for _, tenant := range page {
			results, err := s.rgpd.ProcessDuePurges(ctx, tenant.ID)
			if err != nil {
				s.logger.Error("erasure sweep failed for tenant",
					"tenant_id", tenant.ID.String(), "error", err)
				continue
			}
			if len(results) > 0 {
				s.logger.Info("erasure purges completed",
					"tenant_id", tenant.ID.String(), "requests", len(results))
			}
		}
		if len(page) < erasurePageSize {
			return
		}
		offset += erasurePageSize
	}
}
