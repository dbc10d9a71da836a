package audit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// HighRiskThreshold is the score at and above which an entry counts as
// high risk in analytics.
const HighRiskThreshold = 70

// TargetType selects what GetSecurityAnalytics aggregates over.
type TargetType string

const (
	TargetUser    TargetType = "user"
	TargetCompany TargetType = "company"
)

func ParseTargetType(s string) (TargetType, error) {
	switch TargetType(s) {
	case TargetUser, TargetCompany:
		return TargetType(s), nil
	}
	return "", fmt.Errorf("unknown analytics target type %q", s)
}

// DayStats is one bucket of the analytics timeline.
type DayStats struct {
	Date        string  `json:"date"`
	Total       int     `json:"total"`
	Denied      int     `json:"denied"`
	AverageRisk float64 `json:"average_risk"`
}

type SecurityAnalytics struct {
	TargetID    string         `json:"target_id"`
	TargetType  TargetType     `json:"target_type"`
	Days        int            `json:"days"`
	Since       time.Time      `json:"since"`
	Total       int            `json:"total"`
	Denied      int            `json:"denied"`
	SuccessRate float64        `json:"success_rate"`
	AverageRisk float64        `json:"average_risk"`
	HighRisk    int            `json:"high_risk"`
	ByCategory  map[string]int `json:"by_category"`
	Timeline    []DayStats     `json:"timeline"`
}

// Analytics aggregates the last days of entries for a user (as actor or
// as the subject of a change) or for a company.
func (l *Ledger) Analytics(ctx context.Context, targetID string, targetType TargetType, days int) (SecurityAnalytics, error) {
	if days <= 0 {
		days = 30
	}
	now := l.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(days - 1))

	var entries []Entry
	switch targetType {
	case TargetUser:
		asActor, err := l.store.List(ctx, Filter{ActorID: targetID, Since: since})
		if err != nil {
			return SecurityAnalytics{}, err
		}
		asTarget, err := l.store.List(ctx, Filter{TargetUserID: targetID, Since: since})
		if err != nil {
			return SecurityAnalytics{}, err
		}
		seen := make(map[string]bool, len(asActor))
		for _, e := range asActor {
			seen[e.ID] = true
			entries = append(entries, e)
		}
		for _, e := range asTarget {
			if !seen[e.ID] {
				entries = append(entries, e)
			}
		}
	case TargetCompany:
		var err error
		entries, err = l.store.List(ctx, Filter{CompanyID: targetID, Since: since})
		if err != nil {
			return SecurityAnalytics{}, err
		}
	default:
		return SecurityAnalytics{}, fmt.Errorf("unknown analytics target type %q", targetType)
	}

	return Summarize(targetID, targetType, days, since, entries), nil
}

// Summarize folds entries into analytics with a zero-filled daily
// timeline starting at since.
func Summarize(targetID string, targetType TargetType, days int, since time.Time, entries []Entry) SecurityAnalytics {
	out := SecurityAnalytics{
		TargetID:   targetID,
		TargetType: targetType,
		Days:       days,
		Since:      since,
		ByCategory: make(map[string]int),
		Timeline:   make([]DayStats, days),
	}
	riskPerDay := make([]int, days)
	for i := range out.Timeline {
		out.Timeline[i].Date = since.AddDate(0, 0, i).Format("2006-01-02")
	}

	riskSum := 0
	for _, e := range entries {
		out.Total++
		riskSum += e.RiskScore
		if !e.Success {
			out.Denied++
		}
		if e.RiskScore >= HighRiskThreshold {
			out.HighRisk++
		}
		out.ByCategory[e.Category.String()]++

		day := int(e.CreatedAt.UTC().Sub(since).Hours() / 24)
		if day < 0 || day >= days {
			continue
		}
		out.Timeline[day].Total++
		if !e.Success {
			out.Timeline[day].Denied++
		}
		riskPerDay[day] += e.RiskScore
	}

	if out.Total > 0 {
		out.SuccessRate = round2(float64(out.Total-out.Denied) / float64(out.Total) * 100)
		out.AverageRisk = round2(float64(riskSum) / float64(out.Total))
	}
	for i := range out.Timeline {
		if n := out.Timeline[i].Total; n > 0 {
			out.Timeline[i].AverageRisk = round2(float64(riskPerDay[i]) / float64(n))
		}
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
