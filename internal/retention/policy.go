// Package retention implements the data-retention purge: a policy value
// object with per-category windows and an orchestrator that applies it
// tenant by tenant.
package retention

import (
	"fmt"
	"time"

	dErrors "custodia/pkg/domain-errors"
)

// Policy holds the retention window, in days, for each purgeable data
// category, plus the dry-run flag. A Policy lives only for the duration of
// one purge run.
type Policy struct {
	AIJobsDays      int  `json:"ai_jobs_days"`
	ExportsDays     int  `json:"exports_days"`
	ContestsDays    int  `json:"contests_days"`
	OppositionsDays int  `json:"oppositions_days"`
	SuspensionsDays int  `json:"suspensions_days"`
	DeletionsDays   int  `json:"deletions_days"`
	DryRun          bool `json:"dry_run"`
}

// DefaultPolicy returns the retention windows applied when no override is
// configured.
func DefaultPolicy() Policy {
	return Policy{
		AIJobsDays:      30,
		ExportsDays:     7,
		ContestsDays:    1095,
		OppositionsDays: 1095,
		SuspensionsDays: 365,
		DeletionsDays:   365,
	}
}

// Validate rejects non-positive windows for any category. Runs before a
// purge starts; a zero-value Policy must never reach the orchestrator.
func (p Policy) Validate() error {
	for _, c := range []struct {
		name string
		days int
	}{
		{"ai_jobs", p.AIJobsDays},
		{"exports", p.ExportsDays},
		{"contests", p.ContestsDays},
		{"oppositions", p.OppositionsDays},
		{"suspensions", p.SuspensionsDays},
		{"deletions", p.DeletionsDays},
	} {
		if c.days <= 0 {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("retention window for %s must be positive, got %d", c.name, c.days))
		}
	}
	return nil
}

// CutoffDate computes the moment before which rows of a category are past
// retention.
func CutoffDate(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
