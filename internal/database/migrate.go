package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/migrations"
	"github.com/pressly/goose/v3"
)

// goose keeps its dialect and base FS in package state
var gooseMu sync.Mutex

func gooseDialect(driver string) (dialect, dir string, err error) {
	switch driver {
	case config.DriverSQLite:
		return "sqlite3", "sqlite", nil
	case config.DriverPostgres:
		return "postgres", "postgres", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func withGoose(driver string, fn func(dir string) error) error {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn(dir)
}

// Migrate applies all pending migrations
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	return withGoose(driver, func(dir string) error {
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the most recent migration
func MigrateDown(ctx context.Context, db *sql.DB, driver string) error {
	return withGoose(driver, func(dir string) error {
		if err := goose.DownContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		return nil
	})
}

// MigrationStatus logs the applied state of every migration through goose's logger
func MigrationStatus(ctx context.Context, db *sql.DB, driver string, log goose.Logger) error {
	return withGoose(driver, func(dir string) error {
		goose.SetLogger(log)
		defer goose.SetLogger(goose.NopLogger())
		if err := goose.StatusContext(ctx, db, dir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		return nil
	})
}

// MigrationVersion returns the current schema version
func MigrationVersion(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	var version int64
	err := withGoose(driver, func(string) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}
