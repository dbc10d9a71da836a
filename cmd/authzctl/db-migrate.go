package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/fincore-authz/pkg/db"
)

// dbMigrateCmd represents the db migrate command
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Create and/or upgrade the database schema.

This command runs all pending migrations against DATABASE_URL, and against
AUDIT_DATABASE_URL as well when the ledger lives in its own database.

Example:
  authzctl db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrations(); err != nil {
			fmt.Fprintln(os.Stderr, "Migration failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback database migrations",
	Long: `Rollback database migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  authzctl db down      # Rollback 1 migration
  authzctl db down 3    # Rollback 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				fmt.Fprintf(os.Stderr, "Invalid step count %q\n", args[0])
				os.Exit(1)
			}
			steps = n
		}

		if err := runMigrationsDown(steps); err != nil {
			fmt.Fprintln(os.Stderr, "Rollback failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current migration version",
	Long:  `Show the current migration version of each database.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := showMigrationStatus(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get status:", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbMigrateDownCmd)
	dbCmd.AddCommand(dbMigrateStatusCmd)
}

// migrationTarget is one database the schema is applied to.
type migrationTarget struct {
	name  string
	url   string
	table string
}

// migrationTargets lists the rule database and, when separate, the audit
// database. Each keeps its version in its own table.
func migrationTargets() ([]migrationTarget, error) {
	ruleURL := db.URL()
	if ruleURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	targets := []migrationTarget{{name: "rules", url: ruleURL, table: "authz_schema_migrations"}}
	if auditURL := db.AuditURL(); auditURL != ruleURL {
		targets = append(targets, migrationTarget{name: "audit", url: auditURL, table: "authz_audit_schema_migrations"})
	}
	return targets, nil
}

// withMigrationsTable points golang-migrate at a custom version table.
func withMigrationsTable(dbURL, table string) string {
	if strings.Contains(dbURL, "?") {
		return dbURL + "&x-migrations-table=" + table
	}
	return dbURL + "?x-migrations-table=" + table
}

func openMigrate(t migrationTarget) (*migrate.Migrate, error) {
	m, err := createMigrateInstance(withMigrationsTable(t.url, t.table))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance for %s: %w", t.name, err)
	}
	return m, nil
}

func runMigrations() error {
	targets, err := migrationTargets()
	if err != nil {
		return err
	}
	fmt.Printf("Running migrations from %s\n", migrationsSource())
	for _, t := range targets {
		if err := migrateUp(t); err != nil {
			return err
		}
	}
	fmt.Println("Migrations complete")
	return nil
}

func migrateUp(t migrationTarget) error {
	m, err := openMigrate(t)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	version, dirty, _ := m.Version()
	fmt.Printf("[%s] current version: %d (dirty: %v)\n", t.name, version, dirty)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Printf("[%s] no migrations to run - database is up to date\n", t.name)
			return nil
		}
		return fmt.Errorf("%s: migration failed: %w", t.name, err)
	}

	newVersion, _, _ := m.Version()
	fmt.Printf("[%s] migrated to version: %d\n", t.name, newVersion)
	return nil
}

func runMigrationsDown(steps int) error {
	targets, err := migrationTargets()
	if err != nil {
		return err
	}
	for _, t := range targets {
		m, err := openMigrate(t)
		if err != nil {
			return err
		}
		fmt.Printf("[%s] rolling back %d migration(s)...\n", t.name, steps)
		err = m.Steps(-steps)
		version, _, _ := m.Version()
		_, _ = m.Close()
		if err != nil {
			return fmt.Errorf("%s: rollback failed: %w", t.name, err)
		}
		fmt.Printf("[%s] rolled back to version: %d\n", t.name, version)
	}
	return nil
}

func showMigrationStatus() error {
	targets, err := migrationTargets()
	if err != nil {
		return err
	}
	files, err := listMigrationFiles()
	if err != nil {
		return err
	}
	fmt.Printf("Available migrations: %d (%s)\n", len(files), migrationsSource())

	for _, t := range targets {
		m, err := openMigrate(t)
		if err != nil {
			return err
		}
		version, dirty, err := m.Version()
		_, _ = m.Close()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			fmt.Printf("[%s] no migrations have been applied yet\n", t.name)
			continue
		case err != nil:
			return fmt.Errorf("%s: %w", t.name, err)
		}
		fmt.Printf("[%s] current version: %d\n", t.name, version)
		if dirty {
			fmt.Printf("[%s] warning: database is in a dirty state\n", t.name)
		}
	}
	return nil
}
