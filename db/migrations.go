// Package db carries the SQL migrations for the rule and audit schemas.
package db

import "embed"

// Migrations holds db/migrations/*.sql for builds tagged embed_migrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS
