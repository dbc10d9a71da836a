package authz

import (
	"context"
)

// User is the stored identity record the engine resolves an actor against.
type User struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	CompanyID string `json:"company_id,omitempty" yaml:"company_id,omitempty"`
	RoleID    string `json:"role_id,omitempty" yaml:"role_id,omitempty"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
}

// PolicyFilter narrows ListPolicies. Global policies are always returned
// alongside the ones of CompanyID.
type PolicyFilter struct {
	CompanyID string
	Resource  *Resource
	Action    *Action
}

// RuleStore is the read side used by decisions. Implementations return
// errors matching ErrNotFound for missing records.
type RuleStore interface {
	RoleReader
	GetUser(ctx context.Context, id string) (User, error)
	ListUserPermissions(ctx context.Context, userID string) ([]UserPermission, error)
	ListPolicies(ctx context.Context, filter PolicyFilter) ([]Policy, error)
}

// Store adds the administrative writes. Each method is atomic for the row
// it touches.
type Store interface {
	RuleStore

	GetPermission(ctx context.Context, id string) (Permission, error)
	FindPermission(ctx context.Context, resource Resource, action Action, scope Scope) (Permission, error)

	GetUserPermission(ctx context.Context, id string) (UserPermission, error)
	// FindOverride returns the active override row for (userID,
	// permissionID), if any.
	FindOverride(ctx context.Context, userID, permissionID string) (UserPermission, error)
	CreateUserPermission(ctx context.Context, up UserPermission) error
	UpdateUserPermission(ctx context.Context, up UserPermission) error

	SetUserRole(ctx context.Context, userID, roleID string) error

	CreateRole(ctx context.Context, role Role) error
	// SetRoleParent must re-check for cycles inside its own transaction.
	SetRoleParent(ctx context.Context, roleID, parentID string) error
	DeleteRole(ctx context.Context, roleID string) error

	GetPolicy(ctx context.Context, id string) (Policy, error)
	CreatePolicy(ctx context.Context, p Policy) error
	UpdatePolicy(ctx context.Context, p Policy) error
	DeletePolicy(ctx context.Context, id string) error
}

// NetworkInspector flags suspicious source addresses. Implementations may
// be slow; the engine bounds every call.
type NetworkInspector interface {
	IsSuspicious(ctx context.Context, ip string) (bool, error)
}

// AttemptRecorder is told about every decision so that the surrounding
// authentication flow can throttle repeated denials.
type AttemptRecorder interface {
	RecordDecision(actorID string, allowed bool)
}

// DecisionObserver receives every finished decision, e.g. for metrics.
type DecisionObserver interface {
	ObserveDecision(d Decision)
}
