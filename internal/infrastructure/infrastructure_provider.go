package infrastructure

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/agent-middleware/internal/config"
	"github.com/janhq/agent-middleware/internal/domain/conversation"
	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/domain/storage"
	"github.com/janhq/agent-middleware/internal/infrastructure/auth"
	"github.com/janhq/agent-middleware/internal/infrastructure/database"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/transaction"
	"github.com/janhq/agent-middleware/internal/infrastructure/logger"
	"github.com/janhq/agent-middleware/internal/infrastructure/metrics"
)

// ProvideSanitizer provides the PII sanitizer used by request logging.
func ProvideSanitizer(cfg *config.Config) *logger.Sanitizer {
	return logger.NewSanitizer(cfg.LogPIILevel, cfg.ServiceName)
}

// ProvideDatabaseConfig maps service configuration onto the storage layer.
func ProvideDatabaseConfig(cfg *config.Config) database.Config {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}
	return database.Config{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DSN(),
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        level,
	}
}

// ProvideDatabase connects and migrates the store. Any migration failure aborts startup so the
// listener never opens against an incompatible schema.
func ProvideDatabase(ctx context.Context, dbCfg database.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	db, err := database.Connect(dbCfg, log)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	log.Info().Msg("running database migrations")
	if err := database.Migrate(ctx, db, dbCfg, log); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	log.Info().Msg("database migrations completed successfully")

	return db, cleanup, nil
}

// ProvideTransactionDatabase provides a transaction database wrapper
func ProvideTransactionDatabase(db *gorm.DB) *transaction.Database {
	return transaction.NewDatabase(db)
}

// ProvideTransactor exposes the transaction wrapper to the domain layer.
func ProvideTransactor(db *transaction.Database) storage.Transactor {
	return db
}

// ProvideTokenValidator provides the JWT validator, or nil when authentication is disabled.
func ProvideTokenValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (auth.TokenValidator, func(), error) {
	if !cfg.AuthEnabled {
		log.Warn().Msg("authentication disabled: trusting X-User-Subject header")
		return nil, func() {}, nil
	}

	validator, err := auth.NewOIDCValidator(ctx, auth.ValidatorConfig{
		JWKSURL:      cfg.AuthJWKSURL,
		Issuer:       cfg.AuthIssuer,
		Audience:     cfg.AuthAudience,
		SubjectClaim: cfg.AuthSubjectClaim,
		RefreshEvery: cfg.AuthJWKSRefresh,
		ClockSkew:    cfg.AuthClockSkew,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return validator, validator.Close, nil
}

// ProvideIdentityRecorder and ProvideConversationRecorder bind the Prometheus recorder.
func ProvideIdentityRecorder(r metrics.Recorder) identity.Recorder {
	return r
}

func ProvideConversationRecorder(r metrics.Recorder) conversation.Recorder {
	return r
}

// Infrastructure holds all infrastructure dependencies
type Infrastructure struct {
	DB             *gorm.DB
	TokenValidator auth.TokenValidator
	Logger         zerolog.Logger
	Sanitizer      *logger.Sanitizer
}

// NewInfrastructure creates a new infrastructure instance
func NewInfrastructure(
	db *gorm.DB,
	tokenValidator auth.TokenValidator,
	log zerolog.Logger,
	sanitizer *logger.Sanitizer,
) *Infrastructure {
	return &Infrastructure{
		DB:             db,
		TokenValidator: tokenValidator,
		Logger:         log,
		Sanitizer:      sanitizer,
	}
}

// Ping checks store connectivity.
func (i *Infrastructure) Ping(ctx context.Context) error {
	return database.Ping(ctx, i.DB)
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Logging
	ProvideSanitizer,

	// Database
	ProvideDatabaseConfig,
	ProvideDatabase,
	ProvideTransactionDatabase,
	ProvideTransactor,

	// Repositories
	repository.RepositoryProvider,

	// Auth
	ProvideTokenValidator,

	// Metrics
	metrics.NewRecorder,
	ProvideIdentityRecorder,
	ProvideConversationRecorder,

	// Infrastructure struct
	NewInfrastructure,
)
