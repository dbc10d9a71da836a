package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
)

func newUUID() string {
	return uuid.New().String()
}

// GrantRequest describes a new override or ad-hoc grant. When
// PermissionID is set the resource, action and scope come from the
// catalog permission.
type GrantRequest struct {
	UserID       string        `json:"user_id"`
	PermissionID string        `json:"permission_id,omitempty"`
	Resource     Resource      `json:"resource"`
	Action       Action        `json:"action"`
	Scope        Scope         `json:"scope"`
	Effect       Effect        `json:"effect"`
	ResourceID   string        `json:"resource_id,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// adminContext is the resolved acting administrator.
type adminContext struct {
	user User
	role Role
}

func (e *Engine) resolveAdmin(ctx context.Context, admin Actor) (adminContext, error) {
	user, err := e.store.GetUser(ctx, admin.ID)
	if err != nil {
		return adminContext{}, err
	}
	if !user.IsActive {
		return adminContext{}, Forbidden("administrator %q is inactive", admin.ID)
	}
	if user.RoleID == "" {
		return adminContext{}, Forbidden("administrator %q has no role", admin.ID)
	}
	role, err := e.store.GetRole(ctx, user.RoleID)
	if err != nil {
		return adminContext{}, err
	}
	return adminContext{user: user, role: role}, nil
}

func (a adminContext) isSystem() bool {
	return a.role.Type == RoleTypeSuperAdmin && a.role.IsSystem
}

// mayManageUser requires a manager or above who outranks the target
// user's role inside the same company. Nobody but the system role edits their
// own grants.
func (e *Engine) mayManageUser(ctx context.Context, a adminContext, target User) error {
	if a.isSystem() {
		return nil
	}
	if target.ID == a.user.ID {
		return Forbidden("%q may not change their own access", a.user.ID)
	}
	if target.CompanyID != a.user.CompanyID {
		return Forbidden("%q may not manage users of company %q", a.user.ID, target.CompanyID)
	}
	if a.role.Type > RoleTypeManager {
		return Forbidden("role %q may not manage users", a.role.ID)
	}
	if target.RoleID == "" {
		return nil
	}
	targetRole, err := e.store.GetRole(ctx, target.RoleID)
	if err != nil {
		return err
	}
	if !a.role.CanManage(targetRole) {
		return Forbidden("role %q may not manage holders of role %q", a.role.ID, targetRole.ID)
	}
	return nil
}

func (e *Engine) mayManageRole(a adminContext, target Role) error {
	if a.role.CanManage(target) {
		return nil
	}
	return Forbidden("role %q may not manage role %q", a.role.ID, target.ID)
}

// mayManagePolicy requires the system role for global policies and a
// company administrator of the same company otherwise.
func (e *Engine) mayManagePolicy(a adminContext, p Policy) error {
	if a.isSystem() {
		return nil
	}
	if p.IsGlobal() {
		return Forbidden("only the system role manages global policy %q", p.Name)
	}
	if p.CompanyID != a.user.CompanyID {
		return Forbidden("%q may not manage policies of company %q", a.user.ID, p.CompanyID)
	}
	if a.role.Type > RoleTypeCompanyAdmin {
		return Forbidden("role %q may not manage policies", a.role.ID)
	}
	return nil
}

// recordAdmin writes the ledger entry for an administrative outcome. A
// Forbidden error turns the entry into a privilege escalation record.
func (e *Engine) recordAdmin(ctx context.Context, category audit.Category, admin Actor, entry audit.Entry, err error) {
	success := err == nil
	if errors.Is(err, ErrForbidden) {
		category = audit.CategoryPrivilegeEscalation
	}
	base := audit.NewAdminEntry(category, admin.ID, success)
	base.TargetUserID = entry.TargetUserID
	base.CompanyID = entry.CompanyID
	if base.CompanyID == "" {
		base.CompanyID = admin.CompanyID
	}
	base.Resource = entry.Resource
	base.Action = entry.Action
	base.Effect = entry.Effect
	base.ResourceID = entry.ResourceID
	base.Description = entry.Description
	base.Context = entry.Context
	if base.Context == nil {
		base.Context = map[string]any{}
	}
	base.Context["version"] = ContextSchemaVersion
	if err != nil {
		base.Description = strings.TrimSpace(fmt.Sprintf("%s: %s", entry.Description, ReasonOf(err)))
		base.Context["failure"] = CategoryOf(err)
	}
	_, _ = e.ledger.Record(context.WithoutCancel(ctx), base)
}

// GrantPermission creates an ALLOW or DENY row for a user.
func (e *Engine) GrantPermission(ctx context.Context, admin Actor, req GrantRequest) (UserPermission, error) {
	category := audit.CategoryPermissionGranted
	if !req.Effect.Allows() {
		category = audit.CategoryPermissionDenied
	}
	up, err := e.grantPermission(ctx, admin, req)
	e.recordAdmin(ctx, category, admin, audit.Entry{
		TargetUserID: req.UserID,
		Resource:     up.Resource.String(),
		Action:       up.Action.String(),
		Effect:       req.Effect.String(),
		ResourceID:   up.ResourceID,
		Description:  fmt.Sprintf("%s %s on %s for %s", req.Effect, up.Key(), orDash(up.ResourceID), req.UserID),
		Context:      map[string]any{"user_permission_id": up.ID, "reason": req.Reason, "temporary": up.IsTemporary},
	}, err)
	if err != nil {
		return UserPermission{}, err
	}
	return up, nil
}

func (e *Engine) grantPermission(ctx context.Context, admin Actor, req GrantRequest) (UserPermission, error) {
	up := UserPermission{
		UserID:     req.UserID,
		Resource:   req.Resource,
		Action:     req.Action,
		Scope:      req.Scope,
		Effect:     req.Effect,
		ResourceID: req.ResourceID,
		Reason:     req.Reason,
	}
	if req.UserID == "" {
		return up, InvalidInput("user id is required")
	}
	if req.Duration < 0 {
		return up, InvalidInput("duration must not be negative")
	}
	if req.PermissionID != "" {
		p, err := e.store.GetPermission(ctx, req.PermissionID)
		if err != nil {
			return up, err
		}
		up.PermissionID = p.ID
		up.Resource, up.Action, up.Scope = p.Resource, p.Action, p.Scope
		if up.ResourceID == "" {
			up.ResourceID = p.ResourceID
		}
	}
	if !up.Resource.IsAResource() || !up.Action.IsAAction() || !up.Scope.IsAScope() || !up.Effect.IsAEffect() {
		return up, InvalidInput("grant must name a known resource, action, scope and effect")
	}

	a, err := e.resolveAdmin(ctx, admin)
	if err != nil {
		return up, err
	}
	target, err := e.store.GetUser(ctx, req.UserID)
	if err != nil {
		return up, err
	}
	if err := e.mayManageUser(ctx, a, target); err != nil {
		return up, err
	}

	if up.IsOverride() {
		existing, err := e.store.FindOverride(ctx, up.UserID, up.PermissionID)
		switch {
		case err == nil && existing.IsActive:
			return up, InvalidState("user %q already has override %q for permission %q", up.UserID, existing.ID, up.PermissionID)
		case err != nil && !errors.Is(err, ErrNotFound):
			return up, err
		}
	}

	now := e.clock.Now()
	up.ID = e.newID()
	up.IsActive = true
	up.GrantedBy = a.user.ID
	up.CreatedAt = now
	if req.Duration > 0 {
		up.SetExpiration(now, req.Duration)
	}
	if err := e.store.CreateUserPermission(ctx, up); err != nil {
		return up, err
	}
	return up, nil
}

// RevokePermission deactivates an override. Revocation is final.
func (e *Engine) RevokePermission(ctx context.Context, admin Actor, id, reason string) (UserPermission, error) {
	up, err := e.revokePermission(ctx, admin, id)
	e.recordAdmin(ctx, audit.CategoryPermissionDenied, admin, audit.Entry{
		TargetUserID: up.UserID,
		Resource:     up.Resource.String(),
		Action:       up.Action.String(),
		Effect:       EffectDeny.String(),
		ResourceID:   up.ResourceID,
		Description:  fmt.Sprintf("revoked user permission %s", id),
		Context:      map[string]any{"user_permission_id": id, "reason": reason},
	}, err)
	return up, err
}

func (e *Engine) revokePermission(ctx context.Context, admin Actor, id string) (UserPermission, error) {
	a, err := e.resolveAdmin(ctx, admin)
	if err != nil {
		return UserPermission{}, err
	}
	up, err := e.store.GetUserPermission(ctx, id)
	if err != nil {
		return UserPermission{}, err
	}
	if !up.IsActive {
		return up, InvalidState("user permission %q is already revoked", id)
	}
	target, err := e.store.GetUser(ctx, up.UserID)
	if err != nil {
		return up, err
	}
	if err := e.mayManageUser(ctx, a, target); err != nil {
		return up, err
	}
	up.Revoke()
	if err := e.store.UpdateUserPermission(ctx, up); err != nil {
		return up, err
	}
	return up, nil
}

// ExtendPermission pushes an override's expiry out by d.
func (e *Engine) ExtendPermission(ctx context.Context, admin Actor, id string, d time.Duration) (UserPermission, error) {
	up, err := e.extendPermission(ctx, admin, id, d)
	e.recordAdmin(ctx, audit.CategoryPermissionGranted, admin, audit.Entry{
		TargetUserID: up.UserID,
		Resource:     up.Resource.String(),
		Action:       up.Action.String(),
		Effect:       up.Effect.String(),
		ResourceID:   up.ResourceID,
		Description:  fmt.Sprintf("extended user permission %s by %s", id, d),
		Context:      map[string]any{"user_permission_id": id, "expires_at": formatTime(up.ExpiresAt)},
	}, err)
	return up, err
}

func (e *Engine) extendPermission(ctx context.Context, admin Actor, id string, d time.Duration) (UserPermission, error) {
	if d <= 0 {
		return UserPermission{}, InvalidInput("extension must be positive")
	}
	a, err := e.resolveAdmin(ctx, admin)
	if err != nil {
		return UserPermission{}, err
	}
	up, err := e.store.GetUserPermission(ctx, id)
	if err != nil {
		return UserPermission{}, err
	}
	now := e.clock.Now()
	if !up.IsValid(now) {
		return up, InvalidState("user permission %q is revoked or expired", id)
	}
	target, err := e.store.GetUser(ctx, up.UserID)
	if err != nil {
		return up, err
	}
	if err := e.mayManageUser(ctx, a, target); err != nil {
		return up, err
	}
	up.Extend(now, d)
	if err := e.store.UpdateUserPermission(ctx, up); err != nil {
		return up, err
	}
	return up, nil
}

// AssignRole gives userID the role roleID.
func (e *Engine) AssignRole(ctx context.Context, admin Actor, userID, roleID string) error {
	err := e.assignRole(ctx, admin, userID, roleID)
	e.recordAdmin(ctx, audit.CategoryRoleAssigned, admin, audit.Entry{
		TargetUserID: userID,
		Resource:     ResourceRoles.String(),
		Action:       ActionAssign.String(),
		ResourceID:   roleID,
		Description:  fmt.Sprintf("assigned role %s to %s", roleID, userID),
	}, err)
	return err
}

func (e *Engine) assignRole(ctx context.Context, admin Actor, userID, roleID string) error {
	a, err := e.resolveAdmin(ctx, admin)
	if err != nil {
		return err
	}
	target, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	role, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if !role.IsActive {
		return InvalidState("role %q is inactive", roleID)
	}
	if role.CompanyID != "" && role.CompanyID != target.CompanyID {
		return InvalidInput("role %q belongs to another company than user %q", roleID, userID)
	}
	if err := e.mayManageRole(a, role); err != nil {
		return err
	}
	if err := e.mayManageUser(ctx, a, target); err != nil {
		return err
	}
	return e.store.SetUserRole(ctx, userID, roleID)
}

// RemoveRole clears the role of userID.
func (e *Engine) RemoveRole(ctx context.Context, admin Actor, userID string) error {
	var previous string
	err := func() error {
		a, err := e.resolveAdmin(ctx, admin)
		if err != nil {
			return err
		}
		target, err := e.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		previous = target.RoleID
		if previous == "" {
			return InvalidState("user %q has no role", userID)
		}
		if err := e.mayManageUser(ctx, a, target); err != nil {
			return err
		}
		return e.store.SetUserRole(ctx, userID, "")
	}()
	e.recordAdmin(ctx, audit.CategoryRoleRemoved, admin, audit.Entry{
		TargetUserID: userID,
		Resource:     ResourceRoles.String(),
		Action:       ActionAssign.String(),
		ResourceID:   previous,
		Description:  fmt.Sprintf("removed role %s from %s", orDash(previous), userID),
	}, err)
	return err
}

// CreateRole stores a new role. Its parent must exist and must not lead
// back to it.
func (e *Engine) CreateRole(ctx context.Context, admin Actor, role Role) (Role, error) {
	created, err := e.createRole(ctx, admin, role)
	e.recordAdmin(ctx, audit.CategoryRoleAssigned, admin, audit.Entry{
		CompanyID:   role.CompanyID,
		Resource:    ResourceRoles.String(),
		Action:      ActionCreate.String(),
		ResourceID:  created.ID,
		Description: fmt.Sprintf("created role %s", role.Name),
		Context:     map[string]any{"parent_id": role.ParentID, "type": role.Type.String()},
	}, err)
	return created, err
}

func (e *Engine) createRole(ctx context.Context, admin Actor, role Role) (Role, error) {
	if strings.TrimSpace(role.Name) == "" {
		return role, InvalidInput("role name is required")
	}
	if !role.Type.IsARoleType() {
		return role, InvalidInput("unknown role type %d", int(role.Type))
	}
	a, err := e.resolveAdmin(ctx, admin)
	if err != nil {
		return role, err
	}
	if role.ID == "" {
		role.ID = e.newID()
	}
	if err := e.mayManageRole(a, role); err != nil {
		return role, err
	}
	if role.ParentID != "" {
		if err := e.checkParent(ctx, role.ID, role.ParentID); err != nil {
			return role, err
		}
	}
	if err := e.store.CreateRole(ctx, role); err != nil {
		return role, err
	}
	return role, nil
}

// checkParent loads the parent's chain and rejects it if roleID is on it.
func (e *Engine) checkParent(ctx context.Context, roleID, parentID string) error {
	graph, err := LoadRoleGraph(ctx, e.store, parentID)
	if err != nil {
		return err
	}
	return graph.ValidateParent(roleID, parentID)
}

// SetRoleParent re-parents a role. An empty parentID detaches it.
func (e *Engine) SetRoleParent(ctx context.Context, admin Actor, roleID, parentID string) error {
	err := e.setRoleParent(ctx, admin, roleID, parentID)
	e.recordAdmin(ctx, audit.CategoryRoleAssigned, admin, audit.Entry{
		Resource:    ResourceRoles.String(),
		Action:      ActionUpdate.String(),
		ResourceID:  roleID,
		Description: fmt.Sprintf("role %s now inherits from %s", roleID, orDash(parentID)),
		Context:     map[string]any{"parent_id": parentID},
	}, err)
	return err
}

func (e *Engine) setRoleParent(ctx context.Context, admin Actor, roleID, parentID string) error {
	a, err := e.resolveAdmin(ctx, admin)
	if err != nil {
		return err
	}
	role, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := e.mayManageRole(a, role); err != nil {
		return err
	}
	if parentID != "" {
		parent, err := e.store.GetRole(ctx, parentID)
		if err != nil {
			return err
		}
		if err := e.mayManageRole(a, parent); err != nil {
			return err
		}
		if err := e.checkParent(ctx, roleID, parentID); err != nil {
			return err
		}
	}
	return e.store.SetRoleParent(ctx, roleID, parentID)
}

// DeleteRole removes a non-system role.
func (e *Engine) DeleteRole(ctx context.Context, admin Actor, roleID string) error {
	err := func() error {
		a, err := e.resolveAdmin(ctx, admin)
		if err != nil {
			return err
		}
		role, err := e.store.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if role.IsSystem {
			return Forbidden("role %q is a system role", roleID)
		}
		if err := e.mayManageRole(a, role); err != nil {
			return err
		}
		return e.store.DeleteRole(ctx, roleID)
	}()
	e.recordAdmin(ctx, audit.CategoryRoleRemoved, admin, audit.Entry{
		Resource:    ResourceRoles.String(),
		Action:      ActionDelete.String(),
		ResourceID:  roleID,
		Description: fmt.Sprintf("deleted role %s", roleID),
	}, err)
	return err
}

// ValidatePolicy checks a policy's shape before it is stored.
func ValidatePolicy(p Policy) error {
	if strings.TrimSpace(p.Name) == "" {
		return InvalidInput("policy name is required")
	}
	if !p.Effect.IsAEffect() || !p.Resource.IsAResource() || !p.Action.IsAAction() {
		return InvalidInput("policy %q must name a known effect, resource and action", p.Name)
	}
	if p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom) {
		return InvalidInput("policy %q ends before it starts", p.Name)
	}
	for i, c := range p.Conditions {
		if !c.Operator.IsAOperator() {
			return InvalidInput("policy %q condition %d: unknown operator", p.Name, i)
		}
		if !c.ContextType.IsAContextType() {
			return InvalidInput("policy %q condition %d: unknown context type", p.Name, i)
		}
		switch c.Operator {
		case OperatorIn, OperatorNotIn:
			if c.Value.Kind() != KindList {
				return InvalidInput("policy %q condition %d: %s needs a list", p.Name, i, c.Operator)
			}
		case OperatorTimeBetween:
			items := c.Value.Items()
			if len(items) != 2 {
				return InvalidInput("policy %q condition %d: TIME_BETWEEN needs [start, end]", p.Name, i)
			}
			for _, item := range items {
				if _, ok := item.AsTime(); !ok {
					return InvalidInput("policy %q condition %d: %s is not a timestamp", p.Name, i, item)
				}
			}
		}
	}
	return nil
}

// CreatePolicy stores a new policy.
func (e *Engine) CreatePolicy(ctx context.Context, admin Actor, p Policy) (Policy, error) {
	created, err := func() (Policy, error) {
		if err := ValidatePolicy(p); err != nil {
			return p, err
		}
		a, err := e.resolveAdmin(ctx, admin)
		if err != nil {
			return p, err
		}
		if err := e.mayManagePolicy(a, p); err != nil {
			return p, err
		}
		if p.ID == "" {
			p.ID = e.newID()
		}
		p.CreatedBy = a.user.ID
		if err := e.store.CreatePolicy(ctx, p); err != nil {
			return p, err
		}
		return p, nil
	}()
	e.recordAdmin(ctx, audit.CategoryPolicyCreated, admin, policyEntry(created, ActionCreate), err)
	return created, err
}

// UpdatePolicy replaces a stored policy.
func (e *Engine) UpdatePolicy(ctx context.Context, admin Actor, p Policy) (Policy, error) {
	updated, err := func() (Policy, error) {
		if err := ValidatePolicy(p); err != nil {
			return p, err
		}
		a, err := e.resolveAdmin(ctx, admin)
		if err != nil {
			return p, err
		}
		existing, err := e.store.GetPolicy(ctx, p.ID)
		if err != nil {
			return p, err
		}
		if err := e.mayManagePolicy(a, existing); err != nil {
			return p, err
		}
		if err := e.mayManagePolicy(a, p); err != nil {
			return p, err
		}
		p.CreatedBy = existing.CreatedBy
		if err := e.store.UpdatePolicy(ctx, p); err != nil {
			return p, err
		}
		return p, nil
	}()
	e.recordAdmin(ctx, audit.CategoryPolicyUpdated, admin, policyEntry(updated, ActionUpdate), err)
	return updated, err
}

// SetPolicyActive switches a policy on or off.
func (e *Engine) SetPolicyActive(ctx context.Context, admin Actor, id string, active bool) (Policy, error) {
	p, err := e.store.GetPolicy(ctx, id)
	if err != nil {
		e.recordAdmin(ctx, audit.CategoryPolicyUpdated, admin, audit.Entry{
			Resource:    ResourcePolicies.String(),
			Action:      ActionUpdate.String(),
			ResourceID:  id,
			Description: fmt.Sprintf("set policy %s active=%t", id, active),
		}, err)
		return Policy{}, err
	}
	p.IsActive = active
	return e.UpdatePolicy(ctx, admin, p)
}

// DeletePolicy removes a policy.
func (e *Engine) DeletePolicy(ctx context.Context, admin Actor, id string) error {
	var p Policy
	err := func() error {
		a, err := e.resolveAdmin(ctx, admin)
		if err != nil {
			return err
		}
		p, err = e.store.GetPolicy(ctx, id)
		if err != nil {
			return err
		}
		if err := e.mayManagePolicy(a, p); err != nil {
			return err
		}
		return e.store.DeletePolicy(ctx, id)
	}()
	if p.ID == "" {
		p.ID = id
	}
	e.recordAdmin(ctx, audit.CategoryPolicyDeleted, admin, policyEntry(p, ActionDelete), err)
	return err
}

func policyEntry(p Policy, action Action) audit.Entry {
	return audit.Entry{
		CompanyID:   p.CompanyID,
		Resource:    ResourcePolicies.String(),
		Action:      action.String(),
		Effect:      p.Effect.String(),
		ResourceID:  p.ID,
		Description: fmt.Sprintf("%s policy %s", action, orDash(p.Name)),
		Context: map[string]any{
			"policy_name": p.Name,
			"target":      p.Resource.String() + ":" + p.Action.String(),
			"priority":    p.Priority,
			"active":      p.IsActive,
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
