package main

import (
	"context"
	"log/slog"

	"custodia/internal/access"
	"custodia/internal/platform/config"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
)

// runBootstrap creates the first tenant and its admin when bootstrap mode
// is on and both are configured. Safe to re-run: a name conflict means the
// tenant already exists and the step is skipped.
func runBootstrap(ctx context.Context, deps *container, cfg config.Config, log *slog.Logger) error {
	if !cfg.BootstrapMode || cfg.BootstrapTenantName == "" || cfg.BootstrapAdminEmail == "" {
		return nil
	}

	actor := access.SystemContext(true)

	tenant, err := deps.tenants.CreateTenant(ctx, actor, cfg.BootstrapTenantName)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			log.Info("bootstrap tenant already exists, skipping", "name", cfg.BootstrapTenantName)
			return nil
		}
		return err
	}

	admin, err := deps.users.CreateAdmin(ctx, actor, tenant.ID, cfg.BootstrapAdminEmail, "Administrator")
	if err != nil {
		return err
	}

	if err := deps.auditor.Emit(ctx, audit.Event{
		Name:       audit.EventBootstrapUsed,
		ActorScope: string(actor.Scope()),
		ActorID:    actor.ActorID().String(),
		TenantID:   tenant.ID.String(),
		TargetID:   admin.ID.String(),
	}); err != nil {
		return err
	}

	log.Info("bootstrap completed",
		"tenant_id", tenant.ID.String(),
		"admin_id", admin.ID.String(),
	)
	return nil
}
