// Package migrations applies schema migrations for the configuration store.
package migrations

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Apply runs all pending up migrations from dir against the database.
func Apply(dsn, dir string, logger *log.Logger) error {
	m, err := open(dsn, dir)
	if err != nil {
		return err
	}
	defer closeMigrator(m, logger)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logf(logger, "no pending migrations")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	logf(logger, "migrations applied")
	return nil
}

// Rollback reverts the given number of migrations.
func Rollback(dsn, dir string, steps int, logger *log.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	m, err := open(dsn, dir)
	if err != nil {
		return err
	}
	defer closeMigrator(m, logger)

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logf(logger, "nothing to roll back")
			return nil
		}
		return fmt.Errorf("roll back %d migration(s): %w", steps, err)
	}
	logf(logger, "rolled back %d migration(s)", steps)
	return nil
}

func open(dsn, dir string) (*migrate.Migrate, error) {
	sourceURL := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(sourceURL, normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open migrator: %w", err)
	}
	return m, nil
}

// normalizeDSN rewrites common postgres schemes to the pgx/v5 driver scheme.
func normalizeDSN(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"):
		return "pgx5://" + strings.TrimPrefix(dsn, "postgres://")
	case strings.HasPrefix(dsn, "postgresql://"):
		return "pgx5://" + strings.TrimPrefix(dsn, "postgresql://")
	default:
		return dsn
	}
}

func closeMigrator(m *migrate.Migrate, logger *log.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logf(logger, "close migration source: %v", srcErr)
	}
	if dbErr != nil {
		logf(logger, "close migration database: %v", dbErr)
	}
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
