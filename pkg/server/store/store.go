package store

import (
	"context"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// Store is an authz.Store that can also be bulk loaded.
type Store interface {
	authz.Store

	// UpsertPermission inserts or replaces a catalog permission by id.
	UpsertPermission(ctx context.Context, p authz.Permission) error
	// UpsertRole inserts or replaces a role and its permission links. The
	// permissions are referenced by id and must already exist.
	UpsertRole(ctx context.Context, r authz.Role) error
	UpsertUser(ctx context.Context, u authz.User) error
	// UpsertPolicy inserts or replaces a policy, matched by name.
	UpsertPolicy(ctx context.Context, p authz.Policy) error
	ListRoles(ctx context.Context, companyID string) ([]authz.Role, error)

	// Transaction runs fn against a store whose writes commit together.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	CheckConnectivity(ctx context.Context) error
}
