package model

import (
	"time"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// Policy is a conditional rule. Conditions keep their order.
type Policy struct {
	ID          string         `gorm:"column:id;primaryKey"`
	Name        string         `gorm:"column:name"`
	Description string         `gorm:"column:description"`
	Effect      authz.Effect   `gorm:"column:effect"`
	Resource    authz.Resource `gorm:"column:resource"`
	Action      authz.Action   `gorm:"column:action"`
	Conditions  ConditionList  `gorm:"column:conditions;type:jsonb"`
	CompanyID   *string        `gorm:"column:company_id"`
	RoleID      *string        `gorm:"column:role_id"`
	UserID      *string        `gorm:"column:user_id"`
	Priority    int            `gorm:"column:priority"`
	ValidFrom   *time.Time     `gorm:"column:valid_from"`
	ValidUntil  *time.Time     `gorm:"column:valid_until"`
	IsActive    bool           `gorm:"column:is_active"`
	CreatedBy   *string        `gorm:"column:created_by"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Policy) TableName() string {
	return "policies"
}

func (p Policy) ToDomain() authz.Policy {
	return authz.Policy{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Effect:      p.Effect,
		Resource:    p.Resource,
		Action:      p.Action,
		Conditions:  p.Conditions,
		CompanyID:   deref(p.CompanyID),
		RoleID:      deref(p.RoleID),
		UserID:      deref(p.UserID),
		Priority:    p.Priority,
		ValidFrom:   p.ValidFrom,
		ValidUntil:  p.ValidUntil,
		IsActive:    p.IsActive,
		CreatedBy:   deref(p.CreatedBy),
	}
}

func PolicyFromDomain(p authz.Policy) Policy {
	return Policy{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Effect:      p.Effect,
		Resource:    p.Resource,
		Action:      p.Action,
		Conditions:  p.Conditions,
		CompanyID:   nullable(p.CompanyID),
		RoleID:      nullable(p.RoleID),
		UserID:      nullable(p.UserID),
		Priority:    p.Priority,
		ValidFrom:   p.ValidFrom,
		ValidUntil:  p.ValidUntil,
		IsActive:    p.IsActive,
		CreatedBy:   nullable(p.CreatedBy),
	}
}
