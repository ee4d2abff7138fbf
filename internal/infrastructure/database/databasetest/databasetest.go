// Package databasetest opens throwaway SQLite stores migrated with the bundled schema.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/agent-middleware/internal/infrastructure/database"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/transaction"
)

// Config returns a SQLite config for a fresh file under t.TempDir().
func Config(t testing.TB) database.Config {
	t.Helper()
	return database.Config{
		Driver:   database.DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "agent_middleware.db"),
		LogLevel: gormlogger.Silent,
	}
}

// Open connects to a migrated SQLite store that is closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	return OpenWith(t, Config(t))
}

// OpenWith connects and migrates using cfg.
func OpenWith(t testing.TB, cfg database.Config) *gorm.DB {
	t.Helper()

	db, err := database.Connect(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, database.Migrate(context.Background(), db, cfg, zerolog.Nop()))
	return db
}

// Transactional wraps a migrated store for repositories.
func Transactional(t testing.TB) *transaction.Database {
	t.Helper()
	return transaction.NewDatabase(Open(t))
}
