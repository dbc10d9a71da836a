package audit

import (
	"fmt"
	"strconv"
	"time"
)

// Entry is one immutable ledger record.
type Entry struct {
	ID           string         `json:"id"`
	Category     Category       `json:"category"`
	ActorID      string         `json:"actor_id"`
	TargetUserID string         `json:"target_user_id,omitempty"`
	CompanyID    string         `json:"company_id,omitempty"`
	Resource     string         `json:"resource,omitempty"`
	Action       string         `json:"action,omitempty"`
	Effect       string         `json:"effect,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Description  string         `json:"description"`
	Context      map[string]any `json:"context,omitempty"`
	Success      bool           `json:"success"`
	RiskScore    int            `json:"risk_score"`
	Level        Severity       `json:"severity"`
	Seal         string         `json:"seal,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewAdminEntry starts an administrative entry with its risk score and
// severity derived from the category table.
func NewAdminEntry(category Category, actorID string, success bool) Entry {
	e := Entry{
		Category:  category,
		ActorID:   actorID,
		Success:   success,
		RiskScore: Score(category, success),
		Level:     SeverityInfo,
	}
	switch {
	case category == CategoryPrivilegeEscalation:
		e.Level = SeverityAlert
	case !success:
		e.Level = SeverityWarning
	case category == CategoryPolicyDeleted || category == CategoryRoleRemoved:
		e.Level = SeverityNotice
	}
	return e
}

func (e Entry) MessageID() string {
	return e.Category.String()
}

func (e Entry) Message() string {
	if e.Description != "" {
		return e.Description
	}
	subject := e.Resource
	if e.Action != "" {
		subject = fmt.Sprintf("%s %s", e.Action, e.Resource)
	}
	if e.Success {
		return fmt.Sprintf("%s: %s succeeded for %s", e.Category, subject, e.ActorID)
	}
	return fmt.Sprintf("%s: %s failed for %s", e.Category, subject, e.ActorID)
}

func (e Entry) Severity() Severity {
	return e.Level
}

func (e Entry) Facility() int {
	return FacilityAuthPriv
}

func (e Entry) StructuredData() map[string]map[string]string {
	result := "failure"
	if e.Success {
		result = "success"
	}
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorID,
		},
		SDIDAction: {
			"operation": e.Category.String(),
			"result":    result,
		},
		SDIDRisk: {
			"score": strconv.Itoa(e.RiskScore),
		},
	}
	if e.ID != "" {
		sd[SDIDAction]["id"] = e.ID
	}
	if e.Effect != "" {
		sd[SDIDAction]["effect"] = e.Effect
	}
	if e.CompanyID != "" {
		sd[SDIDAuth]["company"] = e.CompanyID
	}

	subject := map[string]string{}
	if e.Resource != "" {
		subject["resource"] = e.Resource
	}
	if e.Action != "" {
		subject["action"] = e.Action
	}
	if e.ResourceID != "" {
		subject["resource_id"] = e.ResourceID
	}
	if e.TargetUserID != "" {
		subject["user"] = e.TargetUserID
	}
	if len(subject) > 0 {
		sd[SDIDSubject] = subject
	}
	if ip, ok := e.Context["ip_address"].(string); ok && ip != "" {
		sd[SDIDClient] = map[string]string{"ip": ip}
	}
	return sd
}
