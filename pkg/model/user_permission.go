package model

import (
	"time"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// UserPermission is a per-user override or ad-hoc grant
type UserPermission struct {
	ID           string         `gorm:"column:id;primaryKey"`
	UserID       string         `gorm:"column:user_id"`
	PermissionID *string        `gorm:"column:permission_id"`
	Resource     authz.Resource `gorm:"column:resource"`
	Action       authz.Action   `gorm:"column:action"`
	Scope        authz.Scope    `gorm:"column:scope"`
	Effect       authz.Effect   `gorm:"column:effect"`
	ResourceID   *string        `gorm:"column:resource_id"`
	ExpiresAt    *time.Time     `gorm:"column:expires_at"`
	IsTemporary  bool           `gorm:"column:is_temporary"`
	IsActive     bool           `gorm:"column:is_active"`
	GrantedBy    *string        `gorm:"column:granted_by"`
	Reason       string         `gorm:"column:reason"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}

func (u UserPermission) ToDomain() authz.UserPermission {
	return authz.UserPermission{
		ID:           u.ID,
		UserID:       u.UserID,
		PermissionID: deref(u.PermissionID),
		Resource:     u.Resource,
		Action:       u.Action,
		Scope:        u.Scope,
		Effect:       u.Effect,
		ResourceID:   deref(u.ResourceID),
		ExpiresAt:    u.ExpiresAt,
		IsTemporary:  u.IsTemporary,
		IsActive:     u.IsActive,
		GrantedBy:    deref(u.GrantedBy),
		Reason:       u.Reason,
		CreatedAt:    u.CreatedAt,
	}
}

func UserPermissionFromDomain(u authz.UserPermission) UserPermission {
	return UserPermission{
		ID:           u.ID,
		UserID:       u.UserID,
		PermissionID: nullable(u.PermissionID),
		Resource:     u.Resource,
		Action:       u.Action,
		Scope:        u.Scope,
		Effect:       u.Effect,
		ResourceID:   nullable(u.ResourceID),
		ExpiresAt:    u.ExpiresAt,
		IsTemporary:  u.IsTemporary,
		IsActive:     u.IsActive,
		GrantedBy:    nullable(u.GrantedBy),
		Reason:       u.Reason,
		CreatedAt:    u.CreatedAt,
	}
}
