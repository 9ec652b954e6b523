package sql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrStatementFailed is matched by every *StatementFailedError.
var ErrStatementFailed = errors.New("dialect/sql: statement failed")

// StatementFailedError is returned when the database rejects a statement:
// bad SQL, a constraint violation or a lost connection. The Driver logs it
// before returning; callers decide whether it means "not found" or
// "write failed".
type StatementFailedError struct {
	Query string // Statement template, without bound values
	Err   error  // Underlying driver error
}

// Error returns the error string.
func (e *StatementFailedError) Error() string {
	return fmt.Sprintf("dialect/sql: statement failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StatementFailedError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrStatementFailed.
func (e *StatementFailedError) Is(err error) bool {
	return err == ErrStatementFailed
}

// IsStatementFailed returns true if the error is a StatementFailedError.
func IsStatementFailed(err error) bool {
	return err != nil && errors.Is(err, ErrStatementFailed)
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	return matchConstraint(err, pgUniqueViolation,
		[]uint16{mysqlDuplicateEntry},
		"UNIQUE constraint failed", // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return matchConstraint(err, pgForeignKeyViolation,
		[]uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		"FOREIGN KEY constraint failed",
	)
}

// IsCheckConstraintError reports if the error resulted from a check constraint violation.
func IsCheckConstraintError(err error) bool {
	return matchConstraint(err, pgCheckViolation,
		[]uint16{mysqlCheckConstraintViolate},
		"CHECK constraint failed",
	)
}

func matchConstraint(err error, pgCode string, mysqlNumbers []uint16, sqliteMsg string) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		for _, n := range mysqlNumbers {
			if myErr.Number == n {
				return true
			}
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgCode
	}
	// modernc.org/sqlite only exposes numeric extended codes; the message
	// is stable across versions.
	return strings.Contains(err.Error(), sqliteMsg)
}
