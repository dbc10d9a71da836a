package model

import (
	"time"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// Permission is a row of the permission catalog
type Permission struct {
	ID          string         `gorm:"column:id;primaryKey"`
	Name        string         `gorm:"column:name"`
	Description string         `gorm:"column:description"`
	Resource    authz.Resource `gorm:"column:resource"`
	Action      authz.Action   `gorm:"column:action"`
	Scope       authz.Scope    `gorm:"column:scope"`
	ResourceID  *string        `gorm:"column:resource_id"`
	Conditions  ConditionMap   `gorm:"column:conditions;type:jsonb"`
	IsActive    bool           `gorm:"column:is_active"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

func (p Permission) ToDomain() authz.Permission {
	return authz.Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Resource:    p.Resource,
		Action:      p.Action,
		Scope:       p.Scope,
		ResourceID:  deref(p.ResourceID),
		Conditions:  p.Conditions,
		IsActive:    p.IsActive,
	}
}

func PermissionFromDomain(p authz.Permission) Permission {
	return Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Resource:    p.Resource,
		Action:      p.Action,
		Scope:       p.Scope,
		ResourceID:  nullable(p.ResourceID),
		Conditions:  p.Conditions,
		IsActive:    p.IsActive,
	}
}
