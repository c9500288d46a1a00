// Package access implements the authorization core: the actor scope model
// and the policy engine that decides, for every actor and resource, whether
// an action is permitted under strict cross-tenant isolation.
package access

import (
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Scope is the level at which an actor operates. The hierarchy is strict:
// a scope never inherits another scope's permissions.
type Scope string

const (
	// ScopeSystem is held by the bootstrap process only. It may create the
	// first tenant and its admin while bootstrap mode is on, and nothing else.
	ScopeSystem Scope = "system"

	// ScopePlatform is held by platform operators. They manage tenants as
	// objects but hold no permission inside any tenant.
	ScopePlatform Scope = "platform"

	// ScopeTenant is held by tenant members. All their actions are confined
	// to their own tenant.
	ScopeTenant Scope = "tenant"
)

// Actor is the immutable identity a request or job acts under.
//
// Fields are unexported so the three builders below are the only way to
// construct one: a SYSTEM actor with a tenant ID, or a TENANT actor without
// one, cannot be expressed. The engine therefore never validates shape.
type Actor struct {
	scope     Scope
	actorID   id.ActorID
	tenantID  id.TenantID
	bootstrap bool
}

// SystemContext builds the identity of the bootstrap/system process.
// The bootstrap flag is only meaningful at this scope.
func SystemContext(bootstrap bool) Actor {
	return Actor{scope: ScopeSystem, actorID: "system", bootstrap: bootstrap}
}

// PlatformContext builds a platform operator identity.
func PlatformContext(actorID id.ActorID) Actor {
	return Actor{scope: ScopePlatform, actorID: actorID}
}

// TenantContext builds a tenant member identity. A nil tenant ID is a
// programming error at the trust boundary, rejected fail-closed.
func TenantContext(tenantID id.TenantID, actorID id.ActorID) (Actor, error) {
	if tenantID.IsNil() {
		return Actor{}, dErrors.New(dErrors.CodeInvalidTenant, "tenantId required")
	}
	return Actor{scope: ScopeTenant, actorID: actorID, tenantID: tenantID}, nil
}

// Scope returns the level this actor operates at.
func (a Actor) Scope() Scope { return a.scope }

// ActorID returns the acting principal's identifier.
func (a Actor) ActorID() id.ActorID { return a.actorID }

// TenantID returns the actor's tenant. Nil unless Scope is ScopeTenant.
func (a Actor) TenantID() id.TenantID { return a.tenantID }

// Bootstrap reports whether the one-time bootstrap window is open.
// Always false outside ScopeSystem.
func (a Actor) Bootstrap() bool { return a.scope == ScopeSystem && a.bootstrap }
