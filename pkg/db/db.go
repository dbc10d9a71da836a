package db

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
	// Log receives gorm's query log; nil keeps it silent
	Log *logrus.Logger
}

// Connect opens the rule store database.
// If no URL is provided, it reads from DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.Log != nil && cfg.Log.IsLevelEnabled(logrus.DebugLevel) {
		gormLogger = logger.New(cfg.Log, logger.Config{LogLevel: logger.Info}).LogMode(logger.Info)
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger: gormLogger,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// URL returns the rule database URL from environment.
func URL() string {
	return os.Getenv("DATABASE_URL")
}

// AuditURL returns the audit database URL, falling back to DATABASE_URL
// when the ledger shares the rule database.
func AuditURL() string {
	if u := os.Getenv("AUDIT_DATABASE_URL"); u != "" {
		return u
	}
	return URL()
}
