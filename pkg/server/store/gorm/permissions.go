package gorm

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/model"
)

func (s *Store) GetPermission(ctx context.Context, id string) (authz.Permission, error) {
	var p model.Permission
	if err := s.conn(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return authz.Permission{}, translate(err, "permission %q", id)
	}
	return p.ToDomain(), nil
}

// FindPermission returns the unpinned catalog entry for the triple.
func (s *Store) FindPermission(ctx context.Context, resource authz.Resource, action authz.Action, scope authz.Scope) (authz.Permission, error) {
	var p model.Permission
	err := s.conn(ctx).
		Where("resource = ? AND action = ? AND scope = ? AND resource_id IS NULL", resource, action, scope).
		Order("id").
		First(&p).Error
	if err != nil {
		return authz.Permission{}, translate(err, "permission %s", authz.PermissionKey(resource, action, scope))
	}
	return p.ToDomain(), nil
}

func (s *Store) UpsertPermission(ctx context.Context, p authz.Permission) error {
	row := model.PermissionFromDomain(p)
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "resource", "action", "scope", "resource_id", "conditions", "is_active", "updated_at",
		}),
	}).Create(&row).Error
	return translate(err, "permission %q", p.ID)
}
