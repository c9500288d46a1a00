package access

// Action is the closed vocabulary of permissible operations. The engine
// matches actions exhaustively per scope; anything outside this set is
// denied fail-closed, never an error.
type Action string

const (
	// ActionPlatformManage covers platform-wide administration.
	ActionPlatformManage Action = "platform:manage"

	// Tenant lifecycle actions: tenants managed as objects.
	ActionTenantCreate      Action = "tenant:create"
	ActionTenantAdminCreate Action = "tenant-admin:create"
	ActionTenantUserCreate  Action = "tenant-user:create"

	// Tenant-internal actions: confined to the actor's own tenant.
	ActionTenantRead       Action = "tenant:read"
	ActionTenantUsersRead  Action = "tenant:users:read"
	ActionTenantUsersWrite Action = "tenant:users:write"
)

// bootstrapAllowlist is the narrow set a SYSTEM actor may perform, and only
// while bootstrap mode is on. platform:manage is deliberately absent:
// bootstrap must never escalate to platform-wide control.
var bootstrapAllowlist = map[Action]bool{
	ActionTenantCreate:      true,
	ActionTenantAdminCreate: true,
	ActionTenantUserCreate:  true,
}

// tenantScoped reports whether an action operates on tenant-internal data and
// therefore requires same-tenant semantics.
func (a Action) tenantScoped() bool {
	switch a {
	case ActionTenantRead, ActionTenantUsersRead, ActionTenantUsersWrite:
		return true
	default:
		return false
	}
}
