package authz

import (
	"strings"
	"time"
)

const (
	ReasonNoMatch        = "no matching permissions found"
	ReasonRolePermission = "role permission"
	ReasonUserPermission = "user permission"
	ReasonUserOverride   = "user permission override"
	ReasonInactiveUser   = "user account is inactive"
)

// Check is one (resource, action) question. Target is the snapshot of the
// resource instance supplied by the service that owns it.
type Check struct {
	Resource   Resource         `json:"resource" yaml:"resource"`
	Action     Action           `json:"action" yaml:"action"`
	Scope      *Scope           `json:"scope,omitempty" yaml:"scope,omitempty"`
	ResourceID string           `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
	Target     ResourceSnapshot `json:"target,omitempty" yaml:"target,omitempty"`
}

// Key formats "resource:action[:scope][:resourceId]", the key of batch
// results.
func (c Check) Key() string {
	parts := []string{c.Resource.String(), c.Action.String()}
	if c.Scope != nil {
		parts = append(parts, c.Scope.String())
	}
	if c.ResourceID != "" {
		parts = append(parts, c.ResourceID)
	}
	return strings.Join(parts, ":")
}

// resourceID prefers the explicit id and falls back to the snapshot's.
func (c Check) resourceID() string {
	if c.ResourceID != "" {
		return c.ResourceID
	}
	return c.Target.ID
}

// Stage names the precedence step a trace step comes from.
type Stage string

const (
	StageRole     Stage = "role"
	StageOverride Stage = "override"
	StagePolicy   Stage = "policy"
	StageContext  Stage = "context"
)

// TraceStep records one rule that contributed to a decision.
type TraceStep struct {
	Stage  Stage  `json:"stage"`
	Rule   string `json:"rule"`
	Effect Effect `json:"effect"`
	Risk   int    `json:"risk"`
}

// Decision is the outcome of one check.
type Decision struct {
	Check       string      `json:"check"`
	Allowed     bool        `json:"allowed"`
	Reason      string      `json:"reason"`
	RiskScore   int         `json:"risk_score"`
	Trace       []TraceStep `json:"trace,omitempty"`
	Failure     string      `json:"failure,omitempty"`
	AuditID     string      `json:"audit_id,omitempty"`
	AuditFailed bool        `json:"audit_failed,omitempty"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

func (d *Decision) add(stage Stage, rule string, effect Effect, risk int) {
	d.RiskScore += risk
	d.Trace = append(d.Trace, TraceStep{Stage: stage, Rule: rule, Effect: effect, Risk: risk})
}

// matched reports whether any rule contributed to the decision.
func (d *Decision) matched() bool {
	for _, step := range d.Trace {
		if step.Stage != StageContext {
			return true
		}
	}
	return false
}
