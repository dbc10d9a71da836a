// Package report renders security analytics as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
)

// Report is the input of a rendering: the aggregate view plus the most
// recent high risk entries and the outcome of seal verification.
type Report struct {
	Analytics *audit.SecurityAnalytics
	HighRisk  []audit.Entry
	// Verified and Tampered count checked seals; both zero when no
	// integrity key was configured.
	Verified int
	Tampered int
}

// Markdown renders r as a GitHub flavoured Markdown document.
func (r Report) Markdown() string {
	a := r.Analytics
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Security report: %s %s\n\n", a.TargetType, a.TargetID)
	fmt.Fprintf(&sb, "Window: last %d days (since %s)\n\n", a.Days, a.Since.Format("2006-01-02"))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Total events | %d |\n", a.Total)
	fmt.Fprintf(&sb, "| Denied | %d |\n", a.Denied)
	fmt.Fprintf(&sb, "| Success rate | %.2f%% |\n", a.SuccessRate)
	fmt.Fprintf(&sb, "| Average risk | %.2f |\n", a.AverageRisk)
	fmt.Fprintf(&sb, "| High risk (>= %d) | %d |\n", audit.HighRiskThreshold, a.HighRisk)
	if r.Verified+r.Tampered > 0 {
		fmt.Fprintf(&sb, "| Seals verified | %d |\n", r.Verified)
		fmt.Fprintf(&sb, "| Seals broken | %d |\n", r.Tampered)
	}
	sb.WriteString("\n")

	if len(a.ByCategory) > 0 {
		sb.WriteString("## By category\n\n| Category | Events |\n|---|---|\n")
		categories := make([]string, 0, len(a.ByCategory))
		for c := range a.ByCategory {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Fprintf(&sb, "| %s | %d |\n", c, a.ByCategory[c])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Timeline\n\n| Date | Total | Denied | Average risk |\n|---|---|---|---|\n")
	for _, day := range a.Timeline {
		fmt.Fprintf(&sb, "| %s | %d | %d | %.2f |\n", day.Date, day.Total, day.Denied, day.AverageRisk)
	}
	sb.WriteString("\n")

	if len(r.HighRisk) > 0 {
		sb.WriteString("## High risk events\n\n| Time | Category | Actor | Risk | Description |\n|---|---|---|---|---|\n")
		for _, e := range r.HighRisk {
			fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n",
				e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), e.Category, cell(e.ActorID), e.RiskScore, cell(e.Description))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// HTML renders the Markdown form to an HTML fragment.
func (r Report) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

// cell keeps free text from breaking the table.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
