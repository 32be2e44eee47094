package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wigg/datalayer/pkg/datasource"
)

const defaultRetryInterval = time.Second

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, set PG_CONN_URL")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
)

// IsNotFoundError detects pgx.ErrNoRows for consistent "not found" handling across queries.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError detects PostgreSQL unique constraint violations (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	return hasCode(err, "23505")
}

// IsForeignKeyViolationError detects referential integrity violations (SQLSTATE 23503).
func IsForeignKeyViolationError(err error) bool {
	return hasCode(err, "23503")
}

// IsConnectionError reports errors raised before or while talking to the
// server (SQLSTATE class 08) as well as pool-level dial failures.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "08"
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr) || pgconn.SafeToRetry(err)
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// IsCheckViolationError detects rejected column values (SQLSTATE 23514).
func IsCheckViolationError(err error) bool {
	return hasCode(err, "23514")
}

// AdapterError maps a query failure onto a *datasource.Error attributed to
// adapter. Errors that are already mapped pass through unchanged.
func AdapterError(adapter, op string, err error) error {
	if err == nil {
		return nil
	}
	var dsErr *datasource.Error
	if errors.As(err, &dsErr) {
		return err
	}

	code := datasource.CodeInternal
	switch {
	case IsNotFoundError(err):
		code = datasource.CodeNotFound
	case IsCheckViolationError(err), IsForeignKeyViolationError(err):
		code = datasource.CodeInvalid
	case IsConnectionError(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		code = datasource.CodeNetwork
	}
	return datasource.NewError(code, adapter, op, err)
}
