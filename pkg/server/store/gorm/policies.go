package gorm

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/model"
)

// ListPolicies returns global policies and those of f.CompanyID, ordered
// by priority then name.
func (s *Store) ListPolicies(ctx context.Context, f authz.PolicyFilter) ([]authz.Policy, error) {
	q := s.conn(ctx).Where("(company_id IS NULL OR company_id = ?)", f.CompanyID)
	if f.Resource != nil {
		q = q.Where("resource = ?", *f.Resource)
	}
	if f.Action != nil {
		q = q.Where("action = ?", *f.Action)
	}
	var rows []model.Policy
	if err := q.Order("priority, name").Find(&rows).Error; err != nil {
		return nil, translate(err, "policies")
	}
	out := make([]authz.Policy, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out, nil
}

func (s *Store) GetPolicy(ctx context.Context, id string) (authz.Policy, error) {
	var r model.Policy
	if err := s.conn(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return authz.Policy{}, translate(err, "policy %q", id)
	}
	return r.ToDomain(), nil
}

func (s *Store) CreatePolicy(ctx context.Context, p authz.Policy) error {
	row := model.PolicyFromDomain(p)
	return translate(s.conn(ctx).Create(&row).Error, "policy %q", p.Name)
}

var policyColumns = []string{
	"name", "description", "effect", "resource", "action", "conditions", "company_id", "role_id", "user_id",
	"priority", "valid_from", "valid_until", "is_active", "updated_at",
}

func (s *Store) UpdatePolicy(ctx context.Context, p authz.Policy) error {
	row := model.PolicyFromDomain(p)
	res := s.conn(ctx).Model(&model.Policy{}).Where("id = ?", p.ID).Select(policyColumns).Updates(&row)
	if res.Error != nil {
		return translate(res.Error, "policy %q", p.ID)
	}
	if res.RowsAffected == 0 {
		return authz.NotFound("policy %q", p.ID)
	}
	return nil
}

// UpsertPolicy matches on the unique policy name.
func (s *Store) UpsertPolicy(ctx context.Context, p authz.Policy) error {
	row := model.PolicyFromDomain(p)
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns(policyColumns),
	}).Create(&row).Error
	return translate(err, "policy %q", p.Name)
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&model.Policy{})
	if res.Error != nil {
		return translate(res.Error, "policy %q", id)
	}
	if res.RowsAffected == 0 {
		return authz.NotFound("policy %q", id)
	}
	return nil
}
