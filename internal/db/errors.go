package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("db: record not found")

	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("db: duplicate key")

	// ErrForeignKeyViolation is returned when a referenced row does not exist.
	ErrForeignKeyViolation = errors.New("db: foreign key violation")

	ErrTimeout          = errors.New("db: query timeout")
	ErrConnectionFailed = errors.New("db: connection failed")
)

func IsNotFound(err error) bool            { return errors.Is(err, ErrNotFound) }
func IsDuplicateKey(err error) bool        { return errors.Is(err, ErrDuplicateKey) }
func IsForeignKeyViolation(err error) bool { return errors.Is(err, ErrForeignKeyViolation) }

// Error keeps the driver error behind one of the sentinels above, so callers
// can use errors.Is for the kind and errors.As for the driver details.
type Error struct {
	Sentinel error
	Cause    error
}

func (e *Error) Error() string        { return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause) }
func (e *Error) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *Error) Unwrap() error        { return e.Cause }

// MapError translates pgx and sqlite3 driver errors into the package
// sentinels. Unknown errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var mapped *Error
	if errors.As(err, &mapped) {
		return err
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &Error{Sentinel: ErrNotFound, Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Sentinel: ErrTimeout, Cause: err}
	case errors.Is(err, driver.ErrBadConn):
		return &Error{Sentinel: ErrConnectionFailed, Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel := sentinelForSQLState(pgErr.Code); sentinel != nil {
			return &Error{Sentinel: sentinel, Cause: err}
		}
		return err
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return &Error{Sentinel: ErrConnectionFailed, Cause: err}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if sentinel := sentinelForSQLite(liteErr); sentinel != nil {
			return &Error{Sentinel: sentinel, Cause: err}
		}
	}
	return err
}

// PostgreSQL SQLSTATE codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
func sentinelForSQLState(code string) error {
	switch code {
	case "23505": // unique_violation
		return ErrDuplicateKey
	case "23503": // foreign_key_violation
		return ErrForeignKeyViolation
	case "57014": // query_canceled
		return ErrTimeout
	case "08000", "08003", "08006", "08001", "08004", "08007", "08P01":
		return ErrConnectionFailed
	}
	return nil
}

func sentinelForSQLite(e sqlite3.Error) error {
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return ErrDuplicateKey
	case sqlite3.ErrConstraintForeignKey:
		return ErrForeignKeyViolation
	}
	if e.Code == sqlite3.ErrCantOpen {
		return ErrConnectionFailed
	}
	return nil
}
