// Package store defines the rule store the server, the CLI and the bundle
// loader work against.
//
// The read and administrative methods come from authz.Store; this package
// adds the catalog upserts used when loading bundles, a transaction
// wrapper and a connectivity check.
//
// # Implementations
//
//   - gorm: PostgreSQL through gorm, used in production
//   - memory: maps guarded by a mutex, used by tests and offline checks
//
// # Usage
//
//	rules := gormstore.New(db)
//	err := rules.Transaction(ctx, func(tx store.Store) error {
//	    return tx.UpsertPermission(ctx, perm)
//	})
package store
