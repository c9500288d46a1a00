package access

import (
	"log/slog"

	"custodia/internal/access/metrics"
)

// Engine evaluates policy decisions. Evaluation is a pure, synchronous
// function over the closed set of scopes and actions: no I/O, no caching,
// no partial evaluation. Decisions are always recomputed from their inputs.
//
// Deny is a first-class return value, never an error.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger enables security logging of cross-tenant denials. Only actor
// and tenant identifiers are logged, never content.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics enables decision counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine constructs an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check decides whether actor may perform action on resource. A nil resource
// (or one without a tenant ID) defaults to same-tenant semantics.
func (e *Engine) Check(actor Actor, action Action, resource *Resource) Decision {
	decision := evaluate(actor, action, resource)

	if e.metrics != nil {
		e.metrics.ObserveDecision(string(actor.Scope()), string(action), decision.Allowed)
	}
	if decision.RuleID == RuleCrossTenantDenied {
		if e.metrics != nil {
			e.metrics.IncCrossTenantDenied()
		}
		if e.logger != nil && resource != nil {
			e.logger.Warn("cross-tenant access denied",
				"actor_id", actor.ActorID().String(),
				"actor_tenant_id", actor.TenantID().String(),
				"resource_tenant_id", resource.TenantID.String(),
				"action", string(action),
			)
		}
	}
	return decision
}

// evaluate is the total decision function. Each scope branch matches the
// action vocabulary exhaustively; the default arm denies unknown actions
// fail-closed.
func evaluate(actor Actor, action Action, resource *Resource) Decision {
	switch actor.Scope() {
	case ScopeSystem:
		return evaluateSystem(actor, action)
	case ScopePlatform:
		return evaluatePlatform(action)
	case ScopeTenant:
		return evaluateTenant(actor, action, resource)
	default:
		// Unreachable through the closed builders; deny anyway.
		return deny(RuleUnknownAction, "unknown scope")
	}
}

func evaluateSystem(actor Actor, action Action) Decision {
	if !actor.Bootstrap() {
		return deny(RuleBootstrapRequired, "requires bootstrap mode")
	}
	if bootstrapAllowlist[action] {
		return allow(RuleSystemBootstrapAllowed)
	}
	switch action {
	case ActionPlatformManage, ActionTenantRead, ActionTenantUsersRead, ActionTenantUsersWrite:
		return deny(RuleBootstrapOutOfScope, "bootstrap mode does not permit "+string(action))
	default:
		return deny(RuleUnknownAction, "unknown action "+string(action))
	}
}

func evaluatePlatform(action Action) Decision {
	switch action {
	case ActionPlatformManage, ActionTenantCreate, ActionTenantAdminCreate, ActionTenantUserCreate:
		return allow(RulePlatformAllowed)
	case ActionTenantRead, ActionTenantUsersRead, ActionTenantUsersWrite:
		// Platform operators manage tenants as objects; they do not inherit
		// tenant-internal permissions.
		return deny(RulePlatformNotTenant, "platform scope holds no tenant-internal permission")
	default:
		return deny(RuleUnknownAction, "unknown action "+string(action))
	}
}

func evaluateTenant(actor Actor, action Action, resource *Resource) Decision {
	switch action {
	case ActionTenantRead, ActionTenantUsersRead, ActionTenantUsersWrite:
		if resource != nil && !resource.TenantID.IsNil() && resource.TenantID != actor.TenantID() {
			return deny(RuleCrossTenantDenied,
				"tenant isolation: actor belongs to "+actor.TenantID().String()+
					", resource belongs to "+resource.TenantID.String())
		}
		return allow(RuleTenantAllowed)
	case ActionPlatformManage, ActionTenantCreate, ActionTenantAdminCreate, ActionTenantUserCreate:
		return deny(RuleTenantActionForbidden, "tenant scope may not perform "+string(action))
	default:
		return deny(RuleUnknownAction, "unknown action "+string(action))
	}
}
