package model

import (
	"time"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// User is the actor record decisions are resolved against
type User struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Email     string    `gorm:"column:email"`
	CompanyID *string   `gorm:"column:company_id"`
	RoleID    *string   `gorm:"column:role_id"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u User) ToDomain() authz.User {
	return authz.User{
		ID:        u.ID,
		Email:     u.Email,
		CompanyID: deref(u.CompanyID),
		RoleID:    deref(u.RoleID),
		IsActive:  u.IsActive,
	}
}

func UserFromDomain(u authz.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		CompanyID: nullable(u.CompanyID),
		RoleID:    nullable(u.RoleID),
		IsActive:  u.IsActive,
	}
}
