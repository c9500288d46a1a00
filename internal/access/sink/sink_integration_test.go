//go:build integration

package sink_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/access/sink"
	"custodia/pkg/testutil/containers"
)

func TestRedisSink(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, rc.FlushAll(ctx))
	}

	t.Run("records and returns newest first", func(t *testing.T) {
		reset(t)
		s := sink.NewRedisSink(rc.Client)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Record(ctx, sink.Denial{
				ActorID:          fmt.Sprintf("user-%d", i),
				ActorTenantID:    "tenant-a",
				ResourceTenantID: "tenant-b",
				Action:           "tenant:read",
				At:               time.Now().UTC(),
			}))
		}

		denials, err := s.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, denials, 3)
		assert.Equal(t, "user-2", denials[0].ActorID)
		assert.Equal(t, "user-0", denials[2].ActorID)
	})

	t.Run("recent honours the limit", func(t *testing.T) {
		reset(t)
		s := sink.NewRedisSink(rc.Client)

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Record(ctx, sink.Denial{ActorID: fmt.Sprintf("user-%d", i), Action: "tenant:read"}))
		}

		denials, err := s.Recent(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, denials, 2)
	})

	t.Run("markers expire with the review window", func(t *testing.T) {
		reset(t)
		s := sink.NewRedisSink(rc.Client, sink.WithTTL(time.Second))

		require.NoError(t, s.Record(ctx, sink.Denial{ActorID: "user-1", Action: "tenant:read"}))

		require.Eventually(t, func() bool {
			denials, err := s.Recent(ctx, 10)
			return err == nil && len(denials) == 0
		}, 5*time.Second, 200*time.Millisecond)
	})
}
