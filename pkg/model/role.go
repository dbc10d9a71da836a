package model

import (
	"time"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// Role is a named bundle of permissions with an optional parent
type Role struct {
	ID          string         `gorm:"column:id;primaryKey"`
	Name        string         `gorm:"column:name"`
	Description string         `gorm:"column:description"`
	Type        authz.RoleType `gorm:"column:type"`
	CompanyID   *string        `gorm:"column:company_id"`
	ParentID    *string        `gorm:"column:parent_id"`
	Priority    int            `gorm:"column:priority"`
	IsSystem    bool           `gorm:"column:is_system"`
	IsDefault   bool           `gorm:"column:is_default"`
	IsActive    bool           `gorm:"column:is_active"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// ToDomain converts the row; permissions are loaded separately.
func (r Role) ToDomain(perms []Permission) authz.Role {
	role := authz.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		CompanyID:   deref(r.CompanyID),
		ParentID:    deref(r.ParentID),
		Priority:    r.Priority,
		IsSystem:    r.IsSystem,
		IsDefault:   r.IsDefault,
		IsActive:    r.IsActive,
	}
	for _, p := range perms {
		role.Permissions = append(role.Permissions, p.ToDomain())
	}
	return role
}

func RoleFromDomain(r authz.Role) Role {
	return Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		CompanyID:   nullable(r.CompanyID),
		ParentID:    nullable(r.ParentID),
		Priority:    r.Priority,
		IsSystem:    r.IsSystem,
		IsDefault:   r.IsDefault,
		IsActive:    r.IsActive,
	}
}

// RolePermission links a role to a catalog permission. Roles reference
// permissions, never copy them.
type RolePermission struct {
	RoleID       string `gorm:"column:role_id;primaryKey"`
	PermissionID string `gorm:"column:permission_id;primaryKey"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
