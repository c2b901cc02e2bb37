// Package repositories provides test utilities for repository testing.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// TestDBConfig holds test database configuration.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetTestDBConfig returns the test database configuration from environment.
func GetTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5432"),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "signal_engine_test"),
		SSLMode:  "disable",
	}
}

// GetConnectionString returns the database connection string.
func (c TestDBConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// SetupTestDB creates and initializes a test database.
func SetupTestDB(t *testing.T) *sql.DB {
	config := GetTestDBConfig()
	connStr := config.GetConnectionString()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(t, db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// CleanupTestDB cleans up test database and closes connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if err := rollbackMigrations(t, db); err != nil {
		t.Logf("Warning: Failed to rollback migrations: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}

// runMigrations creates the collection tables used by every repository.
func runMigrations(t *testing.T, db *sql.DB) error {
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS articles (
			id VARCHAR(255) PRIMARY KEY,
			url VARCHAR(2048) NOT NULL UNIQUE,
			fingerprint VARCHAR(64) NOT NULL,
			source VARCHAR(255) NOT NULL,
			source_type VARCHAR(20) NOT NULL,
			published_at TIMESTAMP,
			fetched_at TIMESTAMP NOT NULL,
			source_count INTEGER NOT NULL DEFAULT 1,
			veracity_score DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			processed BOOLEAN NOT NULL DEFAULT false,
			category VARCHAR(50) NOT NULL DEFAULT 'Unknown',
			category_confidence INTEGER NOT NULL DEFAULT 0,
			document JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create articles table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_articles_fingerprint ON articles (fingerprint)`)
	if err != nil {
		return fmt.Errorf("create fingerprint index: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS parsed_events (
			id VARCHAR(255) PRIMARY KEY,
			article_id VARCHAR(255) NOT NULL UNIQUE,
			event_type VARCHAR(50) NOT NULL,
			state VARCHAR(50) NOT NULL,
			lga VARCHAR(50) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			method VARCHAR(20) NOT NULL,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			scored BOOLEAN NOT NULL DEFAULT false,
			document JSONB NOT NULL,
			extracted_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create parsed_events table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_signals (
			id VARCHAR(255) PRIMARY KEY,
			event_type VARCHAR(50) NOT NULL,
			state VARCHAR(50) NOT NULL,
			lga VARCHAR(50) NOT NULL,
			risk_score DOUBLE PRECISION NOT NULL,
			risk_level VARCHAR(20) NOT NULL,
			source_url VARCHAR(2048) NOT NULL UNIQUE,
			document JSONB NOT NULL,
			calculated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create risk_signals table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_risk_signals_state_lga ON risk_signals (state, lga)`)
	if err != nil {
		return fmt.Errorf("create state/lga index: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS economic_data (
			state VARCHAR(50) NOT NULL,
			lga VARCHAR(50) NOT NULL,
			fuel_price DOUBLE PRECISION NOT NULL,
			inflation DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (state, lga)
		)
	`)
	if err != nil {
		return fmt.Errorf("create economic_data table: %w", err)
	}

	return nil
}

// rollbackMigrations drops all test tables.
func rollbackMigrations(t *testing.T, db *sql.DB) error {
	ctx := context.Background()

	tables := []string{
		"economic_data",
		"risk_signals",
		"parsed_events",
		"articles",
	}

	for _, table := range tables {
		_, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}

	return nil
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// TruncateTables clears all data from test tables.
func TruncateTables(t *testing.T, db *sql.DB) error {
	ctx := context.Background()

	tables := []string{
		"economic_data",
		"risk_signals",
		"parsed_events",
		"articles",
	}

	for _, table := range tables {
		_, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("truncate table %s: %w", table, err)
		}
	}

	return nil
}

// TestTransaction helper for testing transaction scenarios.
func TestTransaction(t *testing.T, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
