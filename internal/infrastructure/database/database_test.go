package database_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/agent-middleware/internal/infrastructure/database"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/databasetest"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/migrations"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain path", "/tmp/a.db", "/tmp/a.db?_busy_timeout=5000&_foreign_keys=on"},
		{"keeps explicit pragmas", "/tmp/a.db?_fk=0&_timeout=10", "/tmp/a.db?_fk=0&_timeout=10"},
		{"memory", ":memory:", ":memory:?_busy_timeout=5000&_foreign_keys=on"},
		{"shared memory", "file:test?mode=memory&cache=shared", "file:test?_busy_timeout=5000&_foreign_keys=on&cache=shared&mode=memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.SQLiteDSN(tt.in))
		})
	}
}

func TestConnect_Errors(t *testing.T) {
	_, err := database.Connect(database.Config{Driver: database.DriverSQLite}, zerolog.Nop())
	require.Error(t, err)

	_, err = database.Connect(database.Config{Driver: "mysql", DSN: "x"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")

	// private in-memory stores would never see the migrated schema
	for _, dsn := range []string{":memory:", "file:private?mode=memory"} {
		_, err = database.Connect(database.Config{Driver: database.DriverSQLite, DSN: dsn}, zerolog.Nop())
		require.Error(t, err, dsn)
		assert.Contains(t, err.Error(), "cache=shared")
	}
}

func TestSharedMemoryStore_EnforcesForeignKeys(t *testing.T) {
	cfg := database.Config{
		Driver:   database.DriverSQLite,
		DSN:      "file:fkcheck?mode=memory&cache=shared",
		LogLevel: gormlogger.Silent,
	}
	db := databasetest.OpenWith(t, cfg)

	err := db.Exec(`INSERT INTO conversations (identity_id, external_thread_id, created_at, last_message_at)
		VALUES (999, 'orphan', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error
	require.Error(t, err, "orphan conversation accepted")

	require.NoError(t, db.Exec(`INSERT INTO identities (id, external_subject_id, created_at)
		VALUES (1, 'alice', CURRENT_TIMESTAMP)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO conversations (identity_id, external_thread_id, created_at, last_message_at)
		VALUES (1, 'thread', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
	require.NoError(t, db.Exec("DELETE FROM identities WHERE id = 1").Error)

	var remaining int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM conversations").Scan(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestMigrate_Idempotent(t *testing.T) {
	cfg := databasetest.Config(t)
	db := databasetest.OpenWith(t, cfg)

	// second run finds nothing to apply
	require.NoError(t, database.Migrate(context.Background(), db, cfg, zerolog.Nop()))

	for _, table := range []string{"identities", "profiles", "conversations"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("identities", "ux_identities_external_subject_id"))
	assert.True(t, db.Migrator().HasIndex("profiles", "ux_profiles_identity_id"))
	assert.True(t, db.Migrator().HasIndex("conversations", "ix_conversations_identity_last_message"))

	var version int
	require.NoError(t, db.Raw("SELECT version FROM schema_migrations").Scan(&version).Error)
	assert.Equal(t, 1, version)
}

func TestMigrate_DirtySchema(t *testing.T) {
	cfg := databasetest.Config(t)
	db := databasetest.OpenWith(t, cfg)

	require.NoError(t, db.Exec("UPDATE schema_migrations SET dirty = 1").Error)

	err := database.Migrate(context.Background(), db, cfg, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrDirtySchema)
}

func TestPing(t *testing.T) {
	db := databasetest.Open(t)
	require.NoError(t, database.Ping(context.Background(), db))
}

func TestMigrationsFor(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		fsys, err := migrations.For(driver)
		require.NoError(t, err)
		_, err = fsys.Open("000001_init_schema.up.sql")
		assert.NoError(t, err, driver)
	}

	_, err := migrations.For("oracle")
	require.Error(t, err)
}
