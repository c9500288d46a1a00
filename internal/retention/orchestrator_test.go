package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aijobmodels "custodia/internal/aijob/models"
	exportmodels "custodia/internal/export/models"
	rgpdmodels "custodia/internal/rgpd/models"
	tenantmodels "custodia/internal/tenant/models"
	tenantstore "custodia/internal/tenant/store"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	auditmemory "custodia/pkg/platform/audit/store/memory"
	"custodia/pkg/testutil"
)

var runTime = time.Date(2026, 7, 1, 3, 0, 0, 0, time.UTC)

func TestPolicy(t *testing.T) {
	t.Run("defaults validate", func(t *testing.T) {
		assert.NoError(t, DefaultPolicy().Validate())
	})

	t.Run("rejects non-positive windows", func(t *testing.T) {
		p := DefaultPolicy()
		p.SuspensionsDays = 0
		err := p.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		p = DefaultPolicy()
		p.AIJobsDays = -3
		assert.Error(t, p.Validate())
	})

	t.Run("zero value never passes", func(t *testing.T) {
		assert.Error(t, Policy{}.Validate())
	})

	t.Run("cutoff math", func(t *testing.T) {
		now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), CutoffDate(now, 30))
	})
}

type fixture struct {
	orchestrator *Orchestrator
	tenants      *tenantstore.InMemory
	runner       *MemoryRunner
	auditStore   *auditmemory.Store
	tenantID     id.TenantID
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	tenants := tenantstore.NewInMemory()
	runner := NewMemoryRunner()
	auditStore := auditmemory.New()

	tenant, err := tenantmodels.NewTenant(id.NewTenantID(), "Acme", runTime.AddDate(-1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, tenants.CreateIfNameAvailable(context.Background(), tenant))

	return &fixture{
		orchestrator: NewOrchestrator(tenants, runner, audit.NewPublisher(auditStore), opts...),
		tenants:      tenants,
		runner:       runner,
		auditStore:   auditStore,
		tenantID:     tenant.ID,
	}
}

func (f *fixture) seedJob(t *testing.T, age time.Duration) {
	t.Helper()
	job, err := aijobmodels.NewJob(f.tenantID, nil, "summarize", runTime.Add(-age))
	require.NoError(t, err)
	require.NoError(t, f.runner.Jobs.Append(context.Background(), job))
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestExecuteTenantPurgeJob(t *testing.T) {
	policy := DefaultPolicy() // ai jobs: 30 days

	t.Run("purges past the window, keeps the rest", func(t *testing.T) {
		f := newFixture(t)
		f.seedJob(t, days(31))
		f.seedJob(t, days(29))
		ctx := testutil.ContextAt(t, runTime)

		result, err := f.orchestrator.ExecuteTenantPurgeJob(ctx, f.tenantID, policy)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Counts[CategoryAIJobs])
		assert.False(t, result.DryRun)
		assert.Equal(t, runTime, result.ExecutedAt)

		remaining, err := f.runner.Jobs.CountOlderThan(ctx, runTime)
		require.NoError(t, err)
		assert.Equal(t, int64(1), remaining)
	})

	t.Run("second identical run purges nothing", func(t *testing.T) {
		f := newFixture(t)
		f.seedJob(t, days(31))
		ctx := testutil.ContextAt(t, runTime)

		first, err := f.orchestrator.ExecuteTenantPurgeJob(ctx, f.tenantID, policy)
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.Total())

		second, err := f.orchestrator.ExecuteTenantPurgeJob(ctx, f.tenantID, policy)
		require.NoError(t, err)
		assert.Equal(t, int64(0), second.Total())
	})

	t.Run("dry run counts without deleting", func(t *testing.T) {
		f := newFixture(t)
		f.seedJob(t, days(31))
		dry := policy
		dry.DryRun = true
		ctx := testutil.ContextAt(t, runTime)

		result, err := f.orchestrator.ExecuteTenantPurgeJob(ctx, f.tenantID, dry)
		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Equal(t, int64(1), result.Counts[CategoryAIJobs])

		// The row survives: a real run still purges it.
		real, err := f.orchestrator.ExecuteTenantPurgeJob(ctx, f.tenantID, policy)
		require.NoError(t, err)
		assert.Equal(t, int64(1), real.Counts[CategoryAIJobs])
	})

	t.Run("covers every category", func(t *testing.T) {
		f := newFixture(t)
		ctx := testutil.ContextAt(t, runTime)
		userID := id.NewUserID()

		f.seedJob(t, days(31))

		bundle, key, err := exportmodels.SealBundle(f.tenantID, userID, []byte("x"), runTime.Add(-days(8)))
		require.NoError(t, err)
		require.NoError(t, f.runner.Exports.Put(ctx, bundle, key))

		for _, kind := range []rgpdmodels.DSRKind{rgpdmodels.DSRContest, rgpdmodels.DSROpposition, rgpdmodels.DSRSuspension} {
			record, err := rgpdmodels.NewDSRRecord(f.tenantID, userID, kind, runTime.Add(-days(1100)))
			require.NoError(t, err)
			require.NoError(t, f.runner.Rights.Append(ctx, record))
		}

		request, err := rgpdmodels.NewDeleteRequest(f.tenantID, userID, runTime.Add(-days(400)), 0)
		require.NoError(t, err)
		require.NoError(t, request.Complete(runTime.Add(-days(400))))
		require.NoError(t, f.runner.Requests.Create(ctx, request))

		result, err := f.orchestrator.ExecuteTenantPurgeJob(ctx, f.tenantID, policy)
		require.NoError(t, err)
		for _, category := range Categories {
			assert.Equal(t, int64(1), result.Counts[category], "category %s", category)
		}
		assert.Equal(t, int64(6), result.Total())
	})

	t.Run("rejects an invalid policy before touching data", func(t *testing.T) {
		f := newFixture(t)
		bad := DefaultPolicy()
		bad.ExportsDays = 0

		_, err := f.orchestrator.ExecuteTenantPurgeJob(testutil.ContextAt(t, runTime), f.tenantID, bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("emits one audit event with flat counts", func(t *testing.T) {
		f := newFixture(t)
		f.seedJob(t, days(31))

		_, err := f.orchestrator.ExecuteTenantPurgeJob(testutil.ContextAt(t, runTime), f.tenantID, policy)
		require.NoError(t, err)

		events := f.auditStore.All()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventRetentionPurgeRun, events[0].Name)
		assert.Equal(t, int64(1), events[0].Metadata["ai_jobs"])
		assert.Equal(t, false, events[0].Metadata["dry_run"])
	})
}

// failingRunner fails for one tenant and delegates the rest.
type failingRunner struct {
	inner  TxRunner
	broken id.TenantID
}

func (r failingRunner) InTenantTx(ctx context.Context, tenantID id.TenantID, fn func(ctx context.Context, stores CategoryStores) error) error {
	if tenantID == r.broken {
		return dErrors.New(dErrors.CodeInternal, "connection reset")
	}
	return r.inner.InTenantTx(ctx, tenantID, fn)
}

func TestExecutePurgeJob(t *testing.T) {
	t.Run("a failing tenant does not abort the run", func(t *testing.T) {
		tenants := tenantstore.NewInMemory()
		runner := NewMemoryRunner()
		auditStore := auditmemory.New()
		ctx := testutil.ContextAt(t, runTime)

		broken, err := tenantmodels.NewTenant(id.NewTenantID(), "Broken", runTime.AddDate(-1, 0, 0))
		require.NoError(t, err)
		require.NoError(t, tenants.CreateIfNameAvailable(ctx, broken))
		healthy, err := tenantmodels.NewTenant(id.NewTenantID(), "Healthy", runTime.AddDate(-1, 0, 0))
		require.NoError(t, err)
		require.NoError(t, tenants.CreateIfNameAvailable(ctx, healthy))

		job, err := aijobmodels.NewJob(healthy.ID, nil, "summarize", runTime.Add(-days(31)))
		require.NoError(t, err)
		require.NoError(t, runner.Jobs.Append(ctx, job))

		orchestrator := NewOrchestrator(tenants, failingRunner{inner: runner, broken: broken.ID}, audit.NewPublisher(auditStore))

		result, err := orchestrator.ExecutePurgeJob(ctx, DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, 1, result.TenantsFailed)
		assert.Equal(t, 1, result.TenantsPurged)
		assert.Equal(t, int64(1), result.Counts[CategoryAIJobs])
	})

	t.Run("lazily purges the audit log after a real run", func(t *testing.T) {
		f := newFixture(t)
		ctx := testutil.ContextAt(t, runTime)

		// Seed an old published event directly; the publisher would stamp a
		// fresh timestamp.
		require.NoError(t, f.auditStore.Append(ctx, audit.Event{
			Name:      audit.EventTenantCreated,
			Timestamp: runTime.AddDate(-2, 0, 0),
		}))

		orchestrator := NewOrchestrator(f.tenants, f.runner, audit.NewPublisher(f.auditStore),
			WithAuditLogRetention(f.auditStore, 365))

		_, err := orchestrator.ExecutePurgeJob(ctx, DefaultPolicy())
		require.NoError(t, err)

		var names []audit.EventName
		for _, e := range f.auditStore.All() {
			names = append(names, e.Name)
		}
		assert.NotContains(t, names, audit.EventTenantCreated, "expired event is gone")
		assert.Contains(t, names, audit.EventAuditLogPurged)
	})
}
