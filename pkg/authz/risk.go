package authz

import "time"

// Risk contributions of a decision. The total is capped by the engine.
const (
	RiskRolePermission       = 10
	RiskTemporaryGrant       = 20
	RiskPermanentOverride    = 15
	RiskOverrideDeny         = 25
	RiskPolicyAllow          = 5
	RiskPolicyDeny           = 30
	RiskSuspiciousNetwork    = 20
	RiskOutsideBusinessHours = 10

	DefaultRiskCap = 100
)

// BusinessHours is the local window in which decisions carry no time
// penalty. Start is inclusive, End exclusive.
type BusinessHours struct {
	Start    int
	End      int
	Location *time.Location
}

// DefaultBusinessHours is 06:00 to 22:00 UTC.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{Start: 6, End: 22, Location: time.UTC}
}

// Contains reports whether t falls inside the window.
func (b BusinessHours) Contains(t time.Time) bool {
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	h := t.In(loc).Hour()
	return h >= b.Start && h < b.End
}

func clampRisk(score, limit int) int {
	if limit <= 0 || limit > DefaultRiskCap {
		limit = DefaultRiskCap
	}
	switch {
	case score < 0:
		return 0
	case score > limit:
		return limit
	}
	return score
}
