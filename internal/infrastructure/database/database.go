package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config controls GORM connectivity.
type Config struct {
	Driver          string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        gormlogger.LogLevel
}

// Connect initializes a GORM connection using the provided config.
func Connect(cfg Config, log zerolog.Logger) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = gormlogger.Warn
	}

	dialector, err := dialectorFor(&cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
		Logger: gormlogger.Default.LogMode(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("retrieve sql db: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// one writer; a single connection keeps transactions from tripping SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
	}
	// a shared in-memory store disappears with its last connection, so it is never recycled
	if cfg.ConnMaxLifetime > 0 && !(cfg.Driver == DriverSQLite && isSQLiteMemory(cfg.DSN)) {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info().Str("driver", cfg.Driver).Msg("connected to database")
	return db, nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverPostgres:
		cfg.Driver = DriverPostgres
		if err := ensureDatabaseExists(cfg.DSN); err != nil {
			return nil, fmt.Errorf("ensure database: %w", err)
		}
		return postgres.Open(cfg.DSN), nil
	case DriverSQLite:
		cfg.Driver = DriverSQLite
		if err := validateSQLiteDSN(cfg.DSN); err != nil {
			return nil, err
		}
		cfg.DSN = SQLiteDSN(cfg.DSN)
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDSN adds the pragmas the schema depends on: foreign keys drive the cascade deletes.
// Every DSN gets them, in-memory ones included.
func SQLiteDSN(dsn string) string {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	if query.Get("_foreign_keys") == "" && query.Get("_fk") == "" {
		query.Set("_foreign_keys", "on")
	}
	if query.Get("_busy_timeout") == "" && query.Get("_timeout") == "" {
		query.Set("_busy_timeout", "5000")
	}
	return path + "?" + query.Encode()
}

// validateSQLiteDSN rejects private in-memory stores. Migrations run on their own handle, so an
// in-memory database must use cache=shared for the schema to reach the serving connection.
func validateSQLiteDSN(dsn string) error {
	_, rawQuery, _ := strings.Cut(dsn, "?")
	query, _ := url.ParseQuery(rawQuery)
	if isSQLiteMemory(dsn) && query.Get("cache") != "shared" {
		return fmt.Errorf("in-memory sqlite DSN %q must set cache=shared", dsn)
	}
	return nil
}

func isSQLiteMemory(dsn string) bool {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	query, _ := url.ParseQuery(rawQuery)
	return strings.Contains(path, ":memory:") || query.Get("mode") == "memory"
}

func ensureDatabaseExists(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return nil // non-URL formats are ignored
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" || dbName == "postgres" {
		return nil
	}

	adminURL := *u
	adminURL.Path = "/postgres"

	sqlDB, err := sql.Open("postgres", adminURL.String())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var exists bool
	err = sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pqQuoteIdentifier(dbName))
	if err != nil && strings.Contains(err.Error(), "already exists") {
		// another instance created it first
		return nil
	}
	return err
}

func pqQuoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Ping verifies the store is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
