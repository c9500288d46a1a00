package access

import id "custodia/pkg/domain"

// Resource carries the optional attributes of the object an action targets.
// A zero Resource (or nil pointer) means "no resource constraint": the
// decision defaults to same-tenant semantics.
type Resource struct {
	TenantID   id.TenantID
	ResourceID string
}

// RuleID names the rule that produced a decision. Callers and tests branch
// on the rule, never on Detail phrasing; Detail is for operators reading
// logs, not a machine contract.
type RuleID string

const (
	// Allow rules.
	RuleSystemBootstrapAllowed RuleID = "system_bootstrap_allowed"
	RulePlatformAllowed        RuleID = "platform_allowed"
	RuleTenantAllowed          RuleID = "tenant_allowed"

	// Deny rules.
	RuleBootstrapRequired     RuleID = "bootstrap_required"
	RuleBootstrapOutOfScope   RuleID = "bootstrap_out_of_scope"
	RulePlatformNotTenant     RuleID = "platform_not_tenant_member"
	RuleCrossTenantDenied     RuleID = "cross_tenant_denied"
	RuleTenantActionForbidden RuleID = "tenant_action_forbidden"
	RuleUnknownAction         RuleID = "unknown_action"
)

// Decision is the structured outcome of a policy check. Computed fresh per
// call, never cached or persisted.
type Decision struct {
	Allowed bool
	RuleID  RuleID
	Detail  string
}

func allow(rule RuleID) Decision {
	return Decision{Allowed: true, RuleID: rule}
}

func deny(rule RuleID, detail string) Decision {
	return Decision{Allowed: false, RuleID: rule, Detail: detail}
}
