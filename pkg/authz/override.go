package authz

import (
	"time"
)

// UserPermission is a per-user grant or denial. PermissionID is set when
// the row overrides a catalog permission and empty for ad-hoc grants.
type UserPermission struct {
	ID           string     `json:"id" yaml:"id"`
	UserID       string     `json:"user_id" yaml:"user_id"`
	PermissionID string     `json:"permission_id,omitempty" yaml:"permission_id,omitempty"`
	Resource     Resource   `json:"resource" yaml:"resource"`
	Action       Action     `json:"action" yaml:"action"`
	Scope        Scope      `json:"scope" yaml:"scope"`
	Effect       Effect     `json:"effect" yaml:"effect"`
	ResourceID   string     `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	IsTemporary  bool       `json:"is_temporary" yaml:"is_temporary"`
	IsActive     bool       `json:"is_active" yaml:"is_active"`
	GrantedBy    string     `json:"granted_by,omitempty" yaml:"granted_by,omitempty"`
	Reason       string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
}

// IsOverride reports whether the row backs a catalog permission.
func (u UserPermission) IsOverride() bool {
	return u.PermissionID != ""
}

// IsValid is true while the row is active and unexpired.
func (u UserPermission) IsValid(now time.Time) bool {
	if !u.IsActive {
		return false
	}
	return u.ExpiresAt == nil || now.Before(*u.ExpiresAt)
}

func (u UserPermission) Matches(resource Resource, action Action, scope *Scope, now time.Time) bool {
	if !u.IsValid(now) {
		return false
	}
	return scopedMatch(u.Resource, u.Action, u.Scope, resource, action, scope)
}

func (u UserPermission) AllowsAccessToResource(resourceID string, now time.Time) bool {
	if !u.IsValid(now) {
		return false
	}
	return pinnedMatch(u.ResourceID, resourceID)
}

// Key is the "resource:action:SCOPE" string of the grant.
func (u UserPermission) Key() string {
	return PermissionKey(u.Resource, u.Action, u.Scope)
}

// SetExpiration makes the row temporary, expiring d after now.
func (u *UserPermission) SetExpiration(now time.Time, d time.Duration) {
	expires := now.Add(d)
	u.ExpiresAt = &expires
	u.IsTemporary = true
}

// Extend pushes an existing expiry out by d, or sets one d after now.
func (u *UserPermission) Extend(now time.Time, d time.Duration) {
	if u.ExpiresAt == nil {
		u.SetExpiration(now, d)
		return
	}
	expires := u.ExpiresAt.Add(d)
	u.ExpiresAt = &expires
	u.IsTemporary = true
}

// Revoke deactivates the row for good. Re-granting needs a new row.
func (u *UserPermission) Revoke() {
	u.IsActive = false
}
