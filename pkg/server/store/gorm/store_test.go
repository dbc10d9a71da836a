package gorm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 db,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	require.NoError(t, err)
	return New(gormDB), mock
}

var uniqueViolationErr = &pgconn.PgError{Code: uniqueViolation, Message: "duplicate key value violates unique constraint"}

func TestCheckConnectivity(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.CheckConnectivity(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "email", "company_id", "role_id", "is_active"}).
		AddRow("u1", "u1@acme.test", "acme", "acme-clerk", true)
	mock.ExpectQuery(`SELECT .* FROM "users"`).WithArgs("u1").WillReturnRows(rows)

	u, err := s.GetUser(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, authz.User{ID: "u1", Email: "u1@acme.test", CompanyID: "acme", RoleID: "acme-clerk", IsActive: true}, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM "users"`).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUser(context.Background(), "ghost")

	assert.ErrorIs(t, err, authz.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRole(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM "roles"`).WithArgs("acme-manager").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "company_id", "parent_id", "is_active"}).
			AddRow("acme-manager", "Acme Manager", "manager", "acme", "acme-clerk", true))
	mock.ExpectQuery(`SELECT .* FROM "permissions" JOIN role_permissions`).WithArgs("acme-manager").
		WillReturnRows(sqlmock.NewRows([]string{"id", "resource", "action", "scope", "resource_id", "conditions", "is_active"}).
			AddRow("tx-read", "transactions", "read", "COMPANY", nil, []byte(`{"status":"pending"}`), true))

	r, err := s.GetRole(context.Background(), "acme-manager")
	require.NoError(t, err)

	assert.Equal(t, authz.RoleTypeManager, r.Type)
	assert.Equal(t, "acme-clerk", r.ParentID)
	require.Len(t, r.Permissions, 1)
	p := r.Permissions[0]
	assert.Equal(t, authz.ResourceTransactions, p.Resource)
	assert.Equal(t, authz.ScopeCompany, p.Scope)
	assert.Empty(t, p.ResourceID)
	assert.Equal(t, authz.String("pending"), p.Conditions["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUserRole(t *testing.T) {
	t.Run("unknown role", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM roles WHERE id = \$1\)`).WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := s.SetUserRole(context.Background(), "u1", "ghost")

		assert.ErrorIs(t, err, authz.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "users" SET "role_id"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := s.SetUserRole(context.Background(), "ghost", "")

		assert.ErrorIs(t, err, authz.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteRole_System(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "roles"`).WithArgs("super-admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "is_system"}).
			AddRow("super-admin", "Super Admin", "super_admin", true))
	mock.ExpectRollback()

	err := s.DeleteRole(context.Background(), "super-admin")

	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRole_StillParent(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "roles"`).WithArgs("acme-clerk").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type"}).AddRow("acme-clerk", "Acme Clerk", "clerk"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "roles"`).WithArgs("acme-clerk").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := s.DeleteRole(context.Background(), "acme-clerk")

	assert.ErrorIs(t, err, authz.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRoleParent_Cycle(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "roles" .* FOR UPDATE`).WithArgs("acme-clerk").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("acme-clerk", "Acme Clerk"))
	mock.ExpectQuery(`SELECT .* FROM "roles" .* FOR UPDATE`).WithArgs("acme-manager").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id"}).AddRow("acme-manager", "Acme Manager", "acme-clerk"))
	mock.ExpectRollback()

	err := s.SetRoleParent(context.Background(), "acme-clerk", "acme-manager")

	assert.ErrorIs(t, err, authz.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserPermission_Conflict(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "user_permissions"`).WillReturnError(uniqueViolationErr)
	mock.ExpectRollback()

	err := s.CreateUserPermission(context.Background(), authz.UserPermission{
		ID: "up-2", UserID: "u1", PermissionID: "tx-read", Resource: authz.ResourceTransactions,
		Action: authz.ActionRead, Scope: authz.ScopeCompany, Effect: authz.EffectDeny, IsActive: true,
	})

	assert.ErrorIs(t, err, authz.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserPermission_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_permissions" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.UpdateUserPermission(context.Background(), authz.UserPermission{ID: "ghost"})

	assert.ErrorIs(t, err, authz.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPolicies(t *testing.T) {
	s, mock := newMockStore(t)
	tx := authz.ResourceTransactions
	conditions := `[{"field":"mfa_verified","operator":"EQUALS","value":true,"context_type":"SESSION"}]`
	mock.ExpectQuery(`SELECT \* FROM "policies" WHERE \(company_id IS NULL OR company_id = \$1\) AND resource = \$2 ORDER BY priority, name`).
		WithArgs("acme", "transactions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "effect", "resource", "action", "conditions", "company_id", "priority", "is_active"}).
			AddRow("p1", "global-freeze", "DENY", "transactions", "approve", []byte(`[]`), nil, 10, true).
			AddRow("p2", "approve-with-mfa", "ALLOW", "transactions", "approve", []byte(conditions), "acme", 100, true))

	policies, err := s.ListPolicies(context.Background(), authz.PolicyFilter{CompanyID: "acme", Resource: &tx})
	require.NoError(t, err)

	require.Len(t, policies, 2)
	assert.True(t, policies[0].IsGlobal())
	assert.Equal(t, authz.EffectDeny, policies[0].Effect)
	assert.Equal(t, "acme", policies[1].CompanyID)
	require.Len(t, policies[1].Conditions, 1)
	assert.Equal(t, authz.OperatorEquals, policies[1].Conditions[0].Operator)
	assert.Equal(t, authz.Bool(true), policies[1].Conditions[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePolicy_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "policies" WHERE id = \$1`).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.DeletePolicy(context.Background(), "ghost")

	assert.ErrorIs(t, err, authz.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	boom := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", gorm.ErrRecordNotFound, authz.ErrNotFound},
		{"unique violation", uniqueViolationErr, authz.ErrInvalidState},
		{"other", boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(tt.err, "role %q", "r1")
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), `role "r1"`)
		})
	}
	assert.NoError(t, translate(nil, "role"))
}
