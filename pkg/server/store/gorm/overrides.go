package gorm

import (
	"context"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/model"
)

// ListUserPermissions returns every row of the user, valid or not; the
// engine filters by validity at decision time.
func (s *Store) ListUserPermissions(ctx context.Context, userID string) ([]authz.UserPermission, error) {
	var rows []model.UserPermission
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, translate(err, "permissions of user %q", userID)
	}
	out := make([]authz.UserPermission, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out, nil
}

func (s *Store) GetUserPermission(ctx context.Context, id string) (authz.UserPermission, error) {
	var r model.UserPermission
	if err := s.conn(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return authz.UserPermission{}, translate(err, "user permission %q", id)
	}
	return r.ToDomain(), nil
}

func (s *Store) FindOverride(ctx context.Context, userID, permissionID string) (authz.UserPermission, error) {
	var r model.UserPermission
	err := s.conn(ctx).
		Where("user_id = ? AND permission_id = ? AND is_active", userID, permissionID).
		First(&r).Error
	if err != nil {
		return authz.UserPermission{}, translate(err, "override of %q for %q", permissionID, userID)
	}
	return r.ToDomain(), nil
}

// CreateUserPermission inserts the row. The partial unique index on
// (user_id, permission_id) turns a second active override into
// ErrInvalidState.
func (s *Store) CreateUserPermission(ctx context.Context, up authz.UserPermission) error {
	row := model.UserPermissionFromDomain(up)
	return translate(s.conn(ctx).Create(&row).Error, "user permission %q", up.ID)
}

// UpdateUserPermission rewrites the mutable columns of one row.
func (s *Store) UpdateUserPermission(ctx context.Context, up authz.UserPermission) error {
	res := s.conn(ctx).Model(&model.UserPermission{}).Where("id = ?", up.ID).Updates(map[string]interface{}{
		"expires_at":   up.ExpiresAt,
		"is_temporary": up.IsTemporary,
		"is_active":    up.IsActive,
		"reason":       up.Reason,
	})
	if res.Error != nil {
		return translate(res.Error, "user permission %q", up.ID)
	}
	if res.RowsAffected == 0 {
		return authz.NotFound("user permission %q", up.ID)
	}
	return nil
}
