package authz

import (
	"context"
	"sort"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
)

// EffectivePermissions answers "what can this user do" for UI rendering.
type EffectivePermissions struct {
	UserID               string           `json:"user_id"`
	RoleID               string           `json:"role_id,omitempty"`
	CompanyID            string           `json:"company_id,omitempty"`
	RolePermissions      []Permission     `json:"role_permissions"`
	UserPermissions      []UserPermission `json:"user_permissions"`
	AllPermissionStrings []string         `json:"all_permissions"`
}

// GetEffectivePermissions resolves a user's role permissions and valid
// overrides. The flattened strings hold every granted "resource:action:SCOPE"
// minus the ones a valid DENY override removes. Conditions and policies
// are not evaluated here.
func (e *Engine) GetEffectivePermissions(ctx context.Context, userID string) (EffectivePermissions, error) {
	out := EffectivePermissions{UserID: userID}
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return out, err
	}
	out.RoleID = user.RoleID
	out.CompanyID = user.CompanyID
	now := e.clock.Now()

	granted := make(map[string]bool)
	if user.RoleID != "" {
		graph, err := LoadRoleGraph(ctx, e.store, user.RoleID)
		if err != nil {
			return out, err
		}
		perms, err := graph.EffectivePermissions(user.RoleID, user.CompanyID)
		if err != nil {
			return out, err
		}
		for _, p := range perms {
			if !p.IsActive {
				continue
			}
			out.RolePermissions = append(out.RolePermissions, p)
			granted[PermissionKey(p.Resource, p.Action, p.Scope)] = true
		}
	}

	overrides, err := e.store.ListUserPermissions(ctx, userID)
	if err != nil {
		return out, err
	}
	denied := make(map[string]bool)
	for _, up := range overrides {
		if !up.IsValid(now) {
			continue
		}
		out.UserPermissions = append(out.UserPermissions, up)
		if up.Effect.Allows() {
			granted[up.Key()] = true
		} else {
			denied[up.Key()] = true
		}
	}

	out.AllPermissionStrings = make([]string, 0, len(granted))
	for key := range granted {
		if !denied[key] {
			out.AllPermissionStrings = append(out.AllPermissionStrings, key)
		}
	}
	sort.Strings(out.AllPermissionStrings)
	if out.RolePermissions == nil {
		out.RolePermissions = []Permission{}
	}
	if out.UserPermissions == nil {
		out.UserPermissions = []UserPermission{}
	}
	return out, nil
}

// GetSecurityAnalytics aggregates the audit ledger for a user or company
// over the last days.
func (e *Engine) GetSecurityAnalytics(ctx context.Context, targetID string, targetType audit.TargetType, days int) (audit.SecurityAnalytics, error) {
	if targetID == "" {
		return audit.SecurityAnalytics{}, InvalidInput("analytics target id is required")
	}
	if days < 1 || days > 366 {
		return audit.SecurityAnalytics{}, InvalidInput("days must be between 1 and 366")
	}
	switch targetType {
	case audit.TargetUser:
		if _, err := e.store.GetUser(ctx, targetID); err != nil {
			return audit.SecurityAnalytics{}, err
		}
	case audit.TargetCompany:
	default:
		return audit.SecurityAnalytics{}, InvalidInput("unknown analytics target type %q", targetType)
	}
	return e.ledger.Analytics(ctx, targetID, targetType, days)
}
