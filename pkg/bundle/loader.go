package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

// Result counts the records a load wrote, or would have written in a
// dry run.
type Result struct {
	Permissions int  `json:"permissions"`
	Roles       int  `json:"roles"`
	Users       int  `json:"users"`
	Policies    int  `json:"policies"`
	Overrides   int  `json:"overrides"`
	DryRun      bool `json:"dry_run"`
}

// Loader applies bundles to a store inside a single transaction.
type Loader struct {
	store  store.Store
	log    logrus.FieldLogger
	now    func() time.Time
	dryRun bool
}

// NewLoader creates a new bundle loader.
func NewLoader(s store.Store) *Loader {
	return &Loader{store: s, log: logrus.StandardLogger(), now: time.Now}
}

// WithDryRun sets whether to validate only without applying changes.
func (l *Loader) WithDryRun(dryRun bool) *Loader {
	l.dryRun = dryRun
	return l
}

func (l *Loader) WithLogger(log logrus.FieldLogger) *Loader {
	l.log = log
	return l
}

func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// LoadFile parses and loads the bundle at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.LoadFromReader(ctx, f)
}

// LoadFromReader parses and loads a bundle from an io.Reader.
func (l *Loader) LoadFromReader(ctx context.Context, r io.Reader) (*Result, error) {
	b, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, b)
}

// Load compiles b and writes every record. Nothing is written when any
// record fails.
func (l *Loader) Load(ctx context.Context, b *Bundle) (*Result, error) {
	compiled, err := b.Compile(l.now().UTC())
	if err != nil {
		return nil, err
	}
	result := &Result{
		Permissions: len(compiled.Permissions),
		Roles:       len(compiled.Roles),
		Users:       len(compiled.Users),
		Policies:    len(compiled.Policies),
		Overrides:   len(compiled.Overrides),
		DryRun:      l.dryRun,
	}
	if l.dryRun {
		return result, nil
	}

	err = l.store.Transaction(ctx, func(tx store.Store) error {
		for _, p := range compiled.Permissions {
			if err := tx.UpsertPermission(ctx, p); err != nil {
				return fmt.Errorf("permission %q: %w", p.Name, err)
			}
		}
		for _, r := range compiled.Roles {
			if err := tx.UpsertRole(ctx, r); err != nil {
				return fmt.Errorf("role %q: %w", r.Name, err)
			}
		}
		for _, u := range compiled.Users {
			if err := tx.UpsertUser(ctx, u); err != nil {
				return fmt.Errorf("user %q: %w", u.ID, err)
			}
		}
		for _, p := range compiled.Policies {
			if err := tx.UpsertPolicy(ctx, p); err != nil {
				return fmt.Errorf("policy %q: %w", p.Name, err)
			}
		}
		for _, up := range compiled.Overrides {
			if err := upsertOverride(ctx, tx, up); err != nil {
				return fmt.Errorf("override %q: %w", up.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"permissions": result.Permissions,
		"roles":       result.Roles,
		"users":       result.Users,
		"policies":    result.Policies,
		"overrides":   result.Overrides,
	}).Info("rule bundle loaded")
	return result, nil
}

func upsertOverride(ctx context.Context, tx store.Store, up authz.UserPermission) error {
	existing, err := tx.GetUserPermission(ctx, up.ID)
	switch {
	case errors.Is(err, authz.ErrNotFound):
		return tx.CreateUserPermission(ctx, up)
	case err != nil:
		return err
	}
	up.CreatedAt = existing.CreatedAt
	return tx.UpdateUserPermission(ctx, up)
}
