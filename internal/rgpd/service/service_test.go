package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/access"
	aijobmodels "custodia/internal/aijob/models"
	consentmodels "custodia/internal/consent/models"
	exportmodels "custodia/internal/export/models"
	"custodia/internal/rgpd/models"
	usermodels "custodia/internal/user/models"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	auditmemory "custodia/pkg/platform/audit/store/memory"
	"custodia/pkg/testutil"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *Service
	runner     *MemoryRunner
	auditStore *auditmemory.Store
	tenantID   id.TenantID
	actor      access.Actor
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	runner := NewMemoryRunner()
	auditStore := auditmemory.New()
	guard := access.NewGuard(access.NewEngine())
	tenantID := id.NewTenantID()
	actor, err := access.TenantContext(tenantID, "admin-1")
	require.NoError(t, err)
	return &fixture{
		svc:        New(runner, guard, audit.NewPublisher(auditStore), opts...),
		runner:     runner,
		auditStore: auditStore,
		tenantID:   tenantID,
		actor:      actor,
	}
}

// seedUser creates a user, optionally soft-deleted, with consents, job
// metadata and one sealed export bundle.
func (f *fixture) seedUser(t *testing.T, softDeleted bool) id.UserID {
	t.Helper()
	ctx := testutil.Context(t)

	user, err := usermodels.NewUser(id.NewUserID(), f.tenantID, "jo@example.com", "Jo", baseTime)
	require.NoError(t, err)
	if softDeleted {
		user.MarkDeleted(baseTime)
	}
	require.NoError(t, f.runner.Users.Create(ctx, user))

	consent, err := consentmodels.NewConsent(f.tenantID, user.ID, id.ConsentPurposeMarketing, baseTime)
	require.NoError(t, err)
	require.NoError(t, f.runner.Consents.Append(ctx, consent))

	userID := user.ID
	job, err := aijobmodels.NewJob(f.tenantID, &userID, "summarize", baseTime)
	require.NoError(t, err)
	require.NoError(t, f.runner.Jobs.Append(ctx, job))

	bundle, key, err := exportmodels.SealBundle(f.tenantID, user.ID, []byte(`{"email":"jo@example.com"}`), baseTime)
	require.NoError(t, err)
	require.NoError(t, f.runner.Exports.Put(ctx, bundle, key))

	return user.ID
}

func TestRequestErasure(t *testing.T) {
	t.Run("records a request with a scheduled purge time", func(t *testing.T) {
		f := newFixture(t, WithGraceWindow(72*time.Hour))
		userID := f.seedUser(t, true)
		ctx := testutil.ContextAt(t, baseTime)

		request, err := f.svc.RequestErasure(ctx, f.actor, f.tenantID, userID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, request.Status)
		assert.Equal(t, baseTime.Add(72*time.Hour), *request.ScheduledPurgeAt)

		events := f.auditStore.All()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventErasureRequested, events[0].Name)
		assert.Equal(t, userID.String(), events[0].TargetID)
	})

	t.Run("refuses users that are not soft-deleted", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, false)

		_, err := f.svc.RequestErasure(testutil.Context(t), f.actor, f.tenantID, userID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("denies cross-tenant requests", func(t *testing.T) {
		f := newFixture(t)
		userID := f.seedUser(t, true)
		outsider, err := access.TenantContext(id.NewTenantID(), "mallory")
		require.NoError(t, err)

		_, err = f.svc.RequestErasure(testutil.Context(t), outsider, f.tenantID, userID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestPurgeUserData(t *testing.T) {
	t.Run("removes everything, completes the request, audits counts", func(t *testing.T) {
		f := newFixture(t, WithGraceWindow(0))
		userID := f.seedUser(t, true)
		ctx := testutil.ContextAt(t, baseTime)

		request, err := f.svc.RequestErasure(ctx, f.actor, f.tenantID, userID)
		require.NoError(t, err)

		result, err := f.svc.PurgeUserData(ctx, f.tenantID, request.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.DeletedConsents)
		assert.Equal(t, int64(1), result.DeletedJobs)
		assert.Equal(t, int64(1), result.ShreddedExports)
		assert.Equal(t, int64(1), result.DeletedUserRows)
		assert.Equal(t, baseTime, result.PurgedAt)

		_, err = f.runner.Users.FindByID(ctx, userID)
		assert.Error(t, err, "user row must be gone")
		bundles, err := f.runner.Exports.GetMetadataByUser(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, bundles)

		stored, err := f.runner.Requests.FindByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, stored.Status)

		events := f.auditStore.All()
		require.Len(t, events, 2, "request + purge, nothing per-row")
		purge := events[1]
		assert.Equal(t, audit.EventErasureCompleted, purge.Name)
		assert.Equal(t, int64(1), purge.Metadata["deleted_consents"])
		assert.Equal(t, int64(1), purge.Metadata["shredded_exports"])
	})

	t.Run("completes exactly once", func(t *testing.T) {
		f := newFixture(t, WithGraceWindow(0))
		userID := f.seedUser(t, true)
		ctx := testutil.ContextAt(t, baseTime)

		request, err := f.svc.RequestErasure(ctx, f.actor, f.tenantID, userID)
		require.NoError(t, err)
		_, err = f.svc.PurgeUserData(ctx, f.tenantID, request.ID)
		require.NoError(t, err)

		_, err = f.svc.PurgeUserData(ctx, f.tenantID, request.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("refuses before the scheduled purge time", func(t *testing.T) {
		f := newFixture(t, WithGraceWindow(72*time.Hour))
		userID := f.seedUser(t, true)
		ctx := testutil.ContextAt(t, baseTime)

		request, err := f.svc.RequestErasure(ctx, f.actor, f.tenantID, userID)
		require.NoError(t, err)

		_, err = f.svc.PurgeUserData(testutil.ContextAt(t, baseTime.Add(time.Hour)), f.tenantID, request.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown request is not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.PurgeUserData(testutil.Context(t), f.tenantID, id.NewRequestID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestProcessDuePurges(t *testing.T) {
	t.Run("purges due requests and skips the rest", func(t *testing.T) {
		f := newFixture(t, WithGraceWindow(0))
		ctx := testutil.ContextAt(t, baseTime)

		dueUser := f.seedUser(t, true)
		due, err := f.svc.RequestErasure(ctx, f.actor, f.tenantID, dueUser)
		require.NoError(t, err)

		// Second request becomes due much later.
		laterUser := f.seedUser(t, true)
		later, err := models.NewDeleteRequest(f.tenantID, laterUser, baseTime, 720*time.Hour)
		require.NoError(t, err)
		require.NoError(t, f.runner.Requests.Create(ctx, later))

		results, err := f.svc.ProcessDuePurges(ctx, f.tenantID)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, due.ID, results[0].RequestID)

		remaining, err := f.runner.Requests.FindByID(ctx, later.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, remaining.Status)
	})

	t.Run("a failing request does not block the others", func(t *testing.T) {
		f := newFixture(t, WithGraceWindow(0))
		ctx := testutil.ContextAt(t, baseTime)

		// Request whose target was never soft-deleted: the store is seeded
		// directly, bypassing the service precondition.
		liveUser := f.seedUser(t, false)
		broken, err := models.NewDeleteRequest(f.tenantID, liveUser, baseTime, 0)
		require.NoError(t, err)
		require.NoError(t, f.runner.Requests.Create(ctx, broken))

		okUser := f.seedUser(t, true)
		okRequest, err := f.svc.RequestErasure(ctx, f.actor, f.tenantID, okUser)
		require.NoError(t, err)

		results, err := f.svc.ProcessDuePurges(ctx, f.tenantID)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, okRequest.ID, results[0].RequestID)

		still, err := f.runner.Requests.FindByID(ctx, broken.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, still.Status, "failed purge stays pending for retry")
	})
}

func TestShredExport(t *testing.T) {
	t.Run("removes bundle and key, emits one event", func(t *testing.T) {
		f := newFixture(t)
		ctx := testutil.ContextAt(t, baseTime)
		userID := id.NewUserID()

		bundle, key, err := exportmodels.SealBundle(f.tenantID, userID, []byte("payload"), baseTime)
		require.NoError(t, err)
		require.NoError(t, f.runner.Exports.Put(ctx, bundle, key))

		require.NoError(t, f.svc.ShredExport(ctx, f.actor, f.tenantID, bundle.ID))

		_, _, err = f.runner.Exports.GetBundle(ctx, bundle.ID)
		assert.Error(t, err)

		events := f.auditStore.All()
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventExportShredded, events[0].Name)
		assert.Equal(t, bundle.ID.String(), events[0].TargetID)
	})
}
