package report

import (
	"context"
	"errors"
	"sort"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
)

// DefaultHighRiskLimit caps the high risk table.
const DefaultHighRiskLimit = 20

// AnalyticsSource validates the target and aggregates the ledger.
type AnalyticsSource interface {
	GetSecurityAnalytics(ctx context.Context, targetID string, targetType audit.TargetType, days int) (audit.SecurityAnalytics, error)
}

// Build gathers the analytics of a target, its most recent high risk
// entries and, when the ledger has an integrity key, the seal status of
// every entry in the window.
func Build(ctx context.Context, src AnalyticsSource, ledger *audit.Ledger, targetID string, targetType audit.TargetType, days, limit int) (Report, error) {
	a, err := src.GetSecurityAnalytics(ctx, targetID, targetType, days)
	if err != nil {
		return Report{}, err
	}
	if limit <= 0 {
		limit = DefaultHighRiskLimit
	}

	f := audit.Filter{Since: a.Since}
	switch targetType {
	case audit.TargetUser:
		f.ActorID = targetID
	case audit.TargetCompany:
		f.CompanyID = targetID
	}
	entries, err := ledger.List(ctx, f)
	if err != nil {
		return Report{}, err
	}

	r := Report{Analytics: &a}
	for _, e := range entries {
		ok, err := ledger.Verify(e)
		switch {
		case errors.Is(err, audit.ErrNoSealer):
		case err != nil:
			return Report{}, err
		case ok:
			r.Verified++
		default:
			r.Tampered++
		}
		if e.RiskScore >= audit.HighRiskThreshold {
			r.HighRisk = append(r.HighRisk, e)
		}
	}
	sort.SliceStable(r.HighRisk, func(i, j int) bool {
		return r.HighRisk[i].CreatedAt.After(r.HighRisk[j].CreatedAt)
	})
	if len(r.HighRisk) > limit {
		r.HighRisk = r.HighRisk[:limit]
	}
	return r, nil
}
