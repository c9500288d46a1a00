package access

import (
	"context"

	"custodia/internal/access/sink"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/audit"
	"custodia/pkg/requestcontext"
)

// DenialSink records isolation violations for later security review.
type DenialSink interface {
	Record(ctx context.Context, denial sink.Denial) error
}

// Auditor appends audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Guard is the engine as seen from use-case call sites: denials come back
// as the generic forbidden error so responses never leak which rule fired,
// and cross-tenant attempts are recorded for review. Recording is
// best-effort: a sink or audit outage must not turn a deny into a
// different deny.
type Guard struct {
	engine  *Engine
	sink    DenialSink
	auditor Auditor
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithDenialSink enables security-review recording of isolation denials.
func WithDenialSink(s DenialSink) GuardOption {
	return func(g *Guard) { g.sink = s }
}

// WithAuditor mirrors isolation denials into the audit trail as
// security events.
func WithAuditor(a Auditor) GuardOption {
	return func(g *Guard) { g.auditor = a }
}

// NewGuard wraps an engine.
func NewGuard(engine *Engine, opts ...GuardOption) *Guard {
	g := &Guard{engine: engine}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Require returns nil when actor may perform action, or the generic
// forbidden error otherwise.
func (g *Guard) Require(ctx context.Context, actor Actor, action Action, resource *Resource) error {
	decision := g.engine.Check(actor, action, resource)
	if decision.Allowed {
		return nil
	}
	if decision.RuleID == RuleCrossTenantDenied && resource != nil {
		if g.sink != nil {
			_ = g.sink.Record(ctx, sink.Denial{
				ActorID:          actor.ActorID().String(),
				ActorTenantID:    actor.TenantID().String(),
				ResourceTenantID: resource.TenantID.String(),
				Action:           string(action),
			})
		}
		if g.auditor != nil {
			_ = g.auditor.Emit(ctx, audit.Event{
				Name:       audit.EventCrossTenantDenied,
				Timestamp:  requestcontext.Now(ctx),
				ActorScope: string(actor.Scope()),
				ActorID:    actor.ActorID().String(),
				TenantID:   actor.TenantID().String(),
				TargetID:   resource.TenantID.String(),
				RequestID:  requestcontext.RequestID(ctx),
				Metadata:   map[string]any{"action": string(action)},
			})
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
}
