package platformerrors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// pgCheckViolation is the PostgreSQL SQLSTATE for a failed CHECK constraint.
const pgCheckViolation = "23514"

// FromStorageError classifies a gorm/driver error into a PlatformError for the repository layer.
// Expects the gorm session to run with TranslateError enabled.
func FromStorageError(ctx context.Context, err error, message string, code string) *PlatformError {
	if err == nil {
		return nil
	}
	if platformErr := GetPlatformError(err); platformErr != nil {
		return AsError(ctx, LayerRepository, platformErr, message)
	}
	return NewError(ctx, LayerRepository, classifyStorageError(err), message, err, code)
}

func classifyStorageError(err error) ErrorType {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated),
		isCheckViolation(err):
		return ErrorTypeConflict
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ErrorTypeUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeUnavailable
	}
	return ErrorTypeDatabaseError
}

// isCheckViolation catches CHECK failures the gorm dialects pass through untranslated.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	return false
}
