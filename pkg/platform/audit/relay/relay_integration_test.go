//go:build integration

package relay_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "custodia/pkg/domain"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/audit/relay"
	auditpostgres "custodia/pkg/platform/audit/store/postgres"
	"custodia/pkg/testutil/containers"
)

func TestRelayDeliversOutbox(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	rp := containers.NewRedpandaContainer(t)
	ctx := context.Background()

	outbox := auditpostgres.New(pg.Pool)
	const topic = "custodia.audit.test"

	tenantID := id.NewTenantID().String()
	for i := 0; i < 3; i++ {
		require.NoError(t, outbox.Append(ctx, audit.Event{
			Name:       audit.EventTenantCreated,
			Timestamp:  time.Now().UTC(),
			ActorScope: "PLATFORM",
			ActorID:    "ops-1",
			TenantID:   tenantID,
			TargetID:   tenantID,
		}))
	}

	r := relay.New(outbox, rp.NewClient(t),
		relay.WithTopic(topic),
		relay.WithInterval(50*time.Millisecond),
	)
	require.NoError(t, r.EnsureTopic(ctx, 1, 1))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = r.Run(runCtx) }()

	consumer := rp.NewClient(t,
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)

	var records []*kgo.Record
	require.Eventually(t, func() bool {
		pollCtx, pollCancel := context.WithTimeout(ctx, time.Second)
		defer pollCancel()
		fetches := consumer.PollFetches(pollCtx)
		fetches.EachRecord(func(rec *kgo.Record) { records = append(records, rec) })
		return len(records) >= 3
	}, 30*time.Second, 100*time.Millisecond, "expected 3 audit records on the topic")

	var body struct {
		Name     string `json:"name"`
		TenantID string `json:"tenant_id"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &body))
	assert.Equal(t, string(audit.EventTenantCreated), body.Name)
	assert.Equal(t, tenantID, body.TenantID)

	// Once the broker acknowledged, the rows are stamped and never re-sent.
	require.Eventually(t, func() bool {
		pending, err := outbox.PendingBatch(ctx, 10)
		return err == nil && len(pending) == 0
	}, 10*time.Second, 100*time.Millisecond)
}
