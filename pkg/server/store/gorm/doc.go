// Package gorm provides the GORM-based implementation of store.Store.
//
// Missing rows are reported as authz.ErrNotFound and unique violations as
// authz.ErrInvalidState so callers never need to inspect driver errors.
package gorm
