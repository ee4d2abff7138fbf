package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/janhq/agent-middleware/internal/infrastructure/database/migrations"
)

const migrationsTable = "schema_migrations"

// ErrDirtySchema reports a migration that failed half way in an earlier run.
var ErrDirtySchema = errors.New("database schema is dirty; fix the failed migration before starting")

// Migrate applies all pending SQL migrations bundled with the service. It is safe to run from
// several instances at once on PostgreSQL: the migrate driver serializes them with an advisory
// lock and already-applied versions are skipped.
func Migrate(ctx context.Context, gormDB *gorm.DB, cfg Config, log zerolog.Logger) (err error) {
	driverName := cfg.Driver
	if driverName == "" {
		driverName = DriverPostgres
	}

	sourceFS, err := migrations.For(driverName)
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(sourceFS, ".")
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			log.Debug().Str("file", entry.Name()).Msg("found migration file")
		}
	}

	source, err := iofs.New(sourceFS, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	dbDriver, err := openMigrationDriver(ctx, gormDB, driverName, cfg.DSN)
	if err != nil {
		_ = source.Close()
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", source, driverName, dbDriver)
	if err != nil {
		_ = source.Close()
		_ = dbDriver.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		sourceErr, dbErr := migrator.Close()
		if err == nil && sourceErr != nil {
			err = fmt.Errorf("close migration source: %w", sourceErr)
		}
		if err == nil && dbErr != nil {
			err = fmt.Errorf("close migration connection: %w", dbErr)
		}
	}()

	version, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg("no migrations have been applied yet")
	case err != nil:
		return fmt.Errorf("read migration version: %w", err)
	default:
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current migration state")
	}
	if dirty {
		return fmt.Errorf("%w (version %d)", ErrDirtySchema, version)
	}

	if err := migrator.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Info().Msg("database schema up to date")
	} else {
		log.Info().Msg("migrations applied successfully")
	}

	if finalVersion, _, versionErr := migrator.Version(); versionErr == nil {
		log.Info().Uint("version", finalVersion).Msg("current migration version")
	}
	return nil
}

func openMigrationDriver(ctx context.Context, gormDB *gorm.DB, driverName, dsn string) (migratedb.Driver, error) {
	switch driverName {
	case DriverPostgres:
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, fmt.Errorf("retrieve sql db: %w", err)
		}
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire dedicated connection: %w", err)
		}
		driver, err := pgmigrate.WithConnection(ctx, conn, &pgmigrate.Config{
			MigrationsTable: migrationsTable,
		})
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("initialize postgres migration driver: %w", err)
		}
		return driver, nil
	case DriverSQLite:
		// the migrate driver closes the handle it owns, so it gets its own
		sqlDB, err := sql.Open("sqlite3", SQLiteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite for migrations: %w", err)
		}
		driver, err := sqlitemigrate.WithInstance(sqlDB, &sqlitemigrate.Config{
			MigrationsTable: migrationsTable,
		})
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("initialize sqlite migration driver: %w", err)
		}
		return driver, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}
}
