package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

// Ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

// Store implements store.Store using GORM
type Store struct {
	db *gorm.DB
}

// New creates a new Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction wraps fn in a database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// CheckConnectivity verifies database connectivity
func (s *Store) CheckConnectivity(ctx context.Context) error {
	return s.conn(ctx).Exec("SELECT 1").Error
}

type sqlStateError interface {
	SQLState() string
}

const uniqueViolation = "23505"

// translate maps driver errors onto the authz taxonomy.
func translate(err error, what string, args ...any) error {
	if err == nil {
		return nil
	}
	subject := fmt.Sprintf(what, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return authz.NotFound("%s", subject)
	}
	var state sqlStateError
	if errors.As(err, &state) && state.SQLState() == uniqueViolation {
		return &authz.Error{Kind: authz.ErrInvalidState, Reason: subject + " conflicts with an existing row", Err: err}
	}
	return fmt.Errorf("%s: %w", subject, err)
}
