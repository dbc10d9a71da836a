package gorm

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/model"
)

func (s *Store) GetUser(ctx context.Context, id string) (authz.User, error) {
	var u model.User
	if err := s.conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return authz.User{}, translate(err, "user %q", id)
	}
	return u.ToDomain(), nil
}

func (s *Store) UpsertUser(ctx context.Context, u authz.User) error {
	row := model.UserFromDomain(u)
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "company_id", "role_id", "is_active", "updated_at"}),
	}).Create(&row).Error
	return translate(err, "user %q", u.ID)
}

// SetUserRole assigns roleID to the user; an empty roleID clears it.
func (s *Store) SetUserRole(ctx context.Context, userID, roleID string) error {
	var role interface{}
	if roleID != "" {
		var exists bool
		if err := s.conn(ctx).Raw(`SELECT EXISTS(SELECT 1 FROM roles WHERE id = ?)`, roleID).Scan(&exists).Error; err != nil {
			return translate(err, "role %q", roleID)
		}
		if !exists {
			return authz.NotFound("role %q", roleID)
		}
		role = roleID
	}
	res := s.conn(ctx).Model(&model.User{}).Where("id = ?", userID).Update("role_id", role)
	if res.Error != nil {
		return translate(res.Error, "user %q", userID)
	}
	if res.RowsAffected == 0 {
		return authz.NotFound("user %q", userID)
	}
	return nil
}
