package authz

import (
	"sort"
	"time"
)

// Policy is a named conditional rule. Policies have the final word in a
// decision.
type Policy struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Effect      Effect      `json:"effect" yaml:"effect"`
	Resource    Resource    `json:"resource" yaml:"resource"`
	Action      Action      `json:"action" yaml:"action"`
	Conditions  []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	CompanyID   string      `json:"company_id,omitempty" yaml:"company_id,omitempty"`
	RoleID      string      `json:"role_id,omitempty" yaml:"role_id,omitempty"`
	UserID      string      `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Priority    int         `json:"priority" yaml:"priority"`
	ValidFrom   *time.Time  `json:"valid_from,omitempty" yaml:"valid_from,omitempty"`
	ValidUntil  *time.Time  `json:"valid_until,omitempty" yaml:"valid_until,omitempty"`
	IsActive    bool        `json:"is_active" yaml:"is_active"`
	CreatedBy   string      `json:"created_by,omitempty" yaml:"created_by,omitempty"`
}

// PolicyResult is the outcome of evaluating one policy.
type PolicyResult struct {
	Allowed bool   `json:"allowed"`
	Effect  Effect `json:"effect"`
}

// IsGlobal reports whether the policy is a system policy with no company.
func (p Policy) IsGlobal() bool {
	return p.CompanyID == ""
}

// InForce is true when the policy is active and now is inside its
// validity window. Both bounds are inclusive.
func (p Policy) InForce(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}

// Targets reports whether the policy is about (resource, action).
func (p Policy) Targets(resource Resource, action Action) bool {
	return p.Resource == resource && p.Action == action
}

// AppliesTo reports whether the policy's company, role and user scoping
// admit actor.
func (p Policy) AppliesTo(actor Actor) bool {
	if p.CompanyID != "" && p.CompanyID != actor.CompanyID {
		return false
	}
	if p.RoleID != "" && !actor.HasRole(p.RoleID) {
		return false
	}
	if p.UserID != "" && p.UserID != actor.ID {
		return false
	}
	return true
}

// Evaluate ANDs every condition. A policy that is not in force, or whose
// conditions fail, yields DENY. An empty condition list always passes.
func (p Policy) Evaluate(ctx *EvalContext) (PolicyResult, error) {
	if !p.InForce(ctx.Time) {
		return PolicyResult{Effect: EffectDeny}, nil
	}
	for _, c := range p.Conditions {
		ok, err := c.Evaluate(ctx)
		if err != nil {
			return PolicyResult{Effect: EffectDeny}, err
		}
		if !ok {
			return PolicyResult{Effect: EffectDeny}, nil
		}
	}
	return PolicyResult{Allowed: p.Effect.Allows(), Effect: p.Effect}, nil
}

// SortPolicies orders policies by ascending priority, then name, so that
// the highest priority policy is applied last.
func SortPolicies(policies []Policy) {
	sort.SliceStable(policies, func(i, j int) bool {
		if policies[i].Priority != policies[j].Priority {
			return policies[i].Priority < policies[j].Priority
		}
		return policies[i].Name < policies[j].Name
	})
}
