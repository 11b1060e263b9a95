package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConnectError reports a failed connection attempt. Fatal is set only for
// authentication failures, which are never retried.
type ConnectError struct {
	Target string
	Fatal  bool
	Cause  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to database %s: %v", e.Target, e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// TimeoutError reports that the retry deadline elapsed before a connection
// could be established. It is distinct from ConnectError so callers can tell
// "the database never became ready" apart from "a connection attempt failed".
type TimeoutError struct {
	Target string
	Wait   time.Duration
	Cause  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for database %s to connect: %v", e.Wait, e.Target, e.Cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// MigrationError reports a migration that failed to apply. Migrations after
// the failed one are not attempted.
type MigrationError struct {
	Version int64
	Name    string
	Cause   error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration V%d %s failed: %v", e.Version, e.Name, e.Cause)
}

func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// Postgres reports authentication problems with SQLSTATE class 28
// (invalid_authorization_specification, invalid_password).
const sqlstateAuthClass = "28"

// isAuthError classifies an error as an authentication failure using the
// server-reported SQLSTATE rather than matching on the error text.
func isAuthError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return len(pgErr.Code) >= 2 && pgErr.Code[:2] == sqlstateAuthClass
}
