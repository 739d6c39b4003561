// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration applies the SQL files under data/migrations with
// golang-migrate before the API starts serving.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const pgx5Scheme = "pgx5://"

// ErrDirty means a previous run failed halfway; the schema_migrations row
// must be fixed by hand before the server can start.
var ErrDirty = errors.New("migration: database is dirty")

/*
RunUp brings the schema to the newest version found in dir.

Parameters:
  - dsn: string (postgres:// URL as used by the pool)
  - dir: string (directory holding NNNN_name.up.sql / .down.sql pairs)
  - logger: *slog.Logger

Returns:
  - error: ErrDirty, or any driver/source failure
*/
func RunUp(dsn, dir string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+dir, convertToPgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = newMigrateLogger(logger)

	from, err := version(migrator)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migration_up_to_date", slog.Uint64("version", uint64(from)))
		return nil
	case err != nil:
		return fmt.Errorf("migration: up from %d failed: %w", from, err)
	}

	to, err := version(migrator)
	if err != nil {
		return err
	}

	logger.Info("migration_applied",
		slog.Uint64("from_version", uint64(from)),
		slog.Uint64("to_version", uint64(to)),
	)
	return nil
}

// version returns 0 for a fresh database.
func version(migrator *migrate.Migrate) (uint, error) {
	current, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migration: failed to read version: %w", err)
	}
	if dirty {
		return current, fmt.Errorf("%w at version %d", ErrDirty, current)
	}
	return current, nil
}

func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := migrator.Close()
	if err := errors.Join(sourceErr, databaseErr); err != nil {
		logger.Warn("migration_close_failed", slog.Any("error", err))
	}
}

// convertToPgx5DSN maps postgres:// URLs onto the scheme the pgx/v5 driver
// registers. Keyword/value DSNs pass through unchanged.
func convertToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return pgx5Scheme + rest
		}
	}
	return dsn
}

// migrateLogger forwards golang-migrate chatter to slog at debug level.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func newMigrateLogger(logger *slog.Logger) *migrateLogger {
	return &migrateLogger{
		logger:  logger,
		verbose: logger.Enabled(context.Background(), slog.LevelDebug),
	}
}

func (adapter *migrateLogger) Printf(format string, args ...any) {
	adapter.logger.Debug("migration_progress", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (adapter *migrateLogger) Verbose() bool { return adapter.verbose }
