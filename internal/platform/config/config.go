// Package config builds process configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "custodia/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	JWTSigningKey string

	// BootstrapMode opens the one-time window in which the system actor may
	// create the first tenant and its admin. Must be off in normal operation.
	BootstrapMode       bool
	BootstrapTenantName string
	BootstrapAdminEmail string

	Retention     Retention
	PurgeInterval time.Duration

	// AuditLogRetentionDays bounds how long published audit events are kept.
	AuditLogRetentionDays int
}

// Retention carries the per-category retention windows, in days. Zero means
// "use the default".
type Retention struct {
	AIJobsDays      int
	ExportsDays     int
	ContestsDays    int
	OppositionsDays int
	SuspensionsDays int
	DeletionsDays   int
	DryRun          bool
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("CUSTODIA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = pstrings.DedupeAndTrim(strings.Split(raw, ","))
	}

	return Config{
		Addr:                addr,
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		KafkaBrokers:        brokers,
		JWTSigningKey:       jwtSigningKey,
		BootstrapMode:       os.Getenv("BOOTSTRAP_MODE") == "true",
		BootstrapTenantName: os.Getenv("BOOTSTRAP_TENANT_NAME"),
		BootstrapAdminEmail: os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		Retention: Retention{
			AIJobsDays:      envInt("RETENTION_AI_JOBS_DAYS"),
			ExportsDays:     envInt("RETENTION_EXPORTS_DAYS"),
			ContestsDays:    envInt("RETENTION_CONTESTS_DAYS"),
			OppositionsDays: envInt("RETENTION_OPPOSITIONS_DAYS"),
			SuspensionsDays: envInt("RETENTION_SUSPENSIONS_DAYS"),
			DeletionsDays:   envInt("RETENTION_DELETIONS_DAYS"),
			DryRun:          os.Getenv("RETENTION_DRY_RUN") == "true",
		},
		PurgeInterval:         envDuration("PURGE_INTERVAL", 24*time.Hour),
		AuditLogRetentionDays: envIntDefault("AUDIT_LOG_RETENTION_DAYS", 730),
	}
}

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}

func envIntDefault(key string, fallback int) int {
	if n := envInt(key); n > 0 {
		return n
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
