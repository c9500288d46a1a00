package testutil

import (
	"context"
	"testing"
	"time"

	"custodia/pkg/requestcontext"
)

// Context returns a background context that is cancelled when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// ContextAt returns a test context pinned to a fixed clock so cutoff math
// in retention tests is deterministic.
func ContextAt(t *testing.T, now time.Time) context.Context {
	t.Helper()
	return requestcontext.WithTime(Context(t), now)
}
