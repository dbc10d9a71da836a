package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/fincore-authz/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store/memory"
)

// resetTables lists every table written by a scenario, children first.
const resetTables = `TRUNCATE audit_log_entries, user_permissions, policies, role_permissions, users, roles, permissions CASCADE`

// TestContext holds the backing stores shared by all scenarios. Without a
// container the scenarios run against in-memory stores.
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	DatabaseURL string
	HTTPClient  *http.Client
}

// NewTestContext prepares the backend. With INTEGRATION_TEST set a
// PostgreSQL testcontainer is started and migrated; otherwise nothing is
// started.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	tc := &TestContext{HTTPClient: &http.Client{Timeout: 10 * time.Second}}
	if os.Getenv("INTEGRATION_TEST") == "" {
		log.Println("Using in-memory stores")
		return tc, nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("authz_test"),
		tcpostgres.WithUsername("authz"),
		tcpostgres.WithPassword("authz"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}
	tc.Container = pgContainer

	host, err := pgContainer.Host(ctx)
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	tc.DatabaseURL = fmt.Sprintf("postgres://authz:authz@%s:%s/authz_test?sslmode=disable", host, port.Port())

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  tc.DatabaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	tc.DB = db

	rawDB, err := db.DB()
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}
	tc.RawDB = rawDB

	if err := runMigrations(rawDB, migrationsDir); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return tc, nil
}

// Stores returns empty rule and audit stores for one scenario.
func (tc *TestContext) Stores(ctx context.Context) (store.Store, audit.Store, error) {
	if tc.DB == nil {
		return memory.New(), audit.NewMemoryStore(), nil
	}
	if err := tc.DB.WithContext(ctx).Exec(resetTables).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to reset tables: %w", err)
	}
	return gormstore.New(tc.DB), audit.NewSQLStore(tc.RawDB), nil
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

// runMigrations applies the up migrations in file name order.
func runMigrations(db *sql.DB, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", migrationsDir)
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", filepath.Base(file), err)
		}
	}

	return nil
}
