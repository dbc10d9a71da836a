package gorm

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/model"
)

// GetRole loads a role with its own (not inherited) permissions.
func (s *Store) GetRole(ctx context.Context, id string) (authz.Role, error) {
	var r model.Role
	if err := s.conn(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return authz.Role{}, translate(err, "role %q", id)
	}
	perms, err := s.rolePermissions(ctx, id)
	if err != nil {
		return authz.Role{}, err
	}
	return r.ToDomain(perms), nil
}

func (s *Store) rolePermissions(ctx context.Context, roleID string) ([]model.Permission, error) {
	var perms []model.Permission
	err := s.conn(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.id").
		Find(&perms).Error
	if err != nil {
		return nil, translate(err, "permissions of role %q", roleID)
	}
	return perms, nil
}

// ListRoles returns the roles of companyID together with system roles.
// An empty companyID lists every role.
func (s *Store) ListRoles(ctx context.Context, companyID string) ([]authz.Role, error) {
	q := s.conn(ctx).Order("priority, name")
	if companyID != "" {
		q = q.Where("(company_id IS NULL OR company_id = ?)", companyID)
	}
	var rows []model.Role
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "roles")
	}
	roles := make([]authz.Role, 0, len(rows))
	for _, r := range rows {
		perms, err := s.rolePermissions(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r.ToDomain(perms))
	}
	return roles, nil
}

func (s *Store) CreateRole(ctx context.Context, r authz.Role) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &Store{db: tx}
		if r.ParentID != "" {
			if err := txStore.checkParent(tx, r.ID, r.ParentID); err != nil {
				return err
			}
		}
		row := model.RoleFromDomain(r)
		if err := tx.Create(&row).Error; err != nil {
			return translate(err, "role %q", r.ID)
		}
		return txStore.linkPermissions(tx, r)
	})
}

// UpsertRole replaces the role row and its permission links.
func (s *Store) UpsertRole(ctx context.Context, r authz.Role) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := &Store{db: tx}
		if r.ParentID != "" {
			if err := txStore.checkParent(tx, r.ID, r.ParentID); err != nil {
				return err
			}
		}
		row := model.RoleFromDomain(r)
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "type", "company_id", "parent_id", "priority", "is_system", "is_default", "is_active", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			return translate(err, "role %q", r.ID)
		}
		if err := tx.Where("role_id = ?", r.ID).Delete(&model.RolePermission{}).Error; err != nil {
			return translate(err, "permissions of role %q", r.ID)
		}
		return txStore.linkPermissions(tx, r)
	})
}

func (s *Store) linkPermissions(tx *gorm.DB, r authz.Role) error {
	for _, p := range r.Permissions {
		link := model.RolePermission{RoleID: r.ID, PermissionID: p.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return translate(err, "permission %q of role %q", p.ID, r.ID)
		}
	}
	return nil
}

// checkParent walks up from parentID with row locks held, so two
// concurrent re-parentings cannot close a cycle between them.
func (s *Store) checkParent(tx *gorm.DB, roleID, parentID string) error {
	if roleID == parentID {
		return authz.InvalidState("role %q cannot be its own parent", roleID)
	}
	visited := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == roleID {
			return authz.InvalidState("setting parent of %q to %q creates a cycle", roleID, parentID)
		}
		if visited[cur] {
			return authz.InvalidState("role hierarchy cycle through %q", cur)
		}
		visited[cur] = true
		var r model.Role
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", cur).First(&r).Error
		if err != nil {
			return translate(err, "role %q", cur)
		}
		cur = deref(r.ParentID)
	}
	return nil
}

func (s *Store) SetRoleParent(ctx context.Context, roleID, parentID string) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var r model.Role
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", roleID).First(&r).Error; err != nil {
			return translate(err, "role %q", roleID)
		}
		var parent interface{}
		if parentID != "" {
			if err := s.checkParent(tx, roleID, parentID); err != nil {
				return err
			}
			parent = parentID
		}
		return translate(tx.Model(&model.Role{}).Where("id = ?", roleID).Update("parent_id", parent).Error, "role %q", roleID)
	})
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var r model.Role
		if err := tx.Where("id = ?", roleID).First(&r).Error; err != nil {
			return translate(err, "role %q", roleID)
		}
		if r.IsSystem {
			return authz.Forbidden("role %q is a system role", roleID)
		}
		var children, holders int64
		if err := tx.Model(&model.Role{}).Where("parent_id = ?", roleID).Count(&children).Error; err != nil {
			return translate(err, "children of role %q", roleID)
		}
		if children > 0 {
			return authz.InvalidState("role %q still has %d child roles", roleID, children)
		}
		if err := tx.Model(&model.User{}).Where("role_id = ?", roleID).Count(&holders).Error; err != nil {
			return translate(err, "holders of role %q", roleID)
		}
		if holders > 0 {
			return authz.InvalidState("role %q is still assigned to %d users", roleID, holders)
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error; err != nil {
			return translate(err, "permissions of role %q", roleID)
		}
		return translate(tx.Where("id = ?", roleID).Delete(&model.Role{}).Error, "role %q", roleID)
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
