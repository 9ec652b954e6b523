package tabula

import (
	"errors"
	"fmt"

	"github.com/syssam/tabula/dialect/sql"
)

// Standard sentinel errors.
var (
	// ErrRandomSourceUnavailable is returned when no cryptographically
	// secure random source can be read. Identifiers are never generated
	// from a weaker source.
	ErrRandomSourceUnavailable = errors.New("tabula: secure random source unavailable")

	// ErrNoConnectionConfigured is returned when a table has no connection
	// handle and neither a default handle nor a default configuration is set.
	ErrNoConnectionConfigured = errors.New("tabula: no connection configured")

	// ErrInvalidConfiguration is matched by every *InvalidConfigurationError.
	ErrInvalidConfiguration = errors.New("tabula: invalid configuration")

	// ErrConnectionFailed is matched by every *ConnectionFailedError.
	ErrConnectionFailed = errors.New("tabula: connection failed")

	// ErrInvalidIdentifier is matched by every *InvalidIdentifierError.
	ErrInvalidIdentifier = errors.New("tabula: invalid identifier")

	// ErrNothingToWrite is returned when no permitted field remains after
	// filtering a record.
	ErrNothingToWrite = errors.New("tabula: no permitted fields to write")
)

// StatementFailedError is returned by writes the database rejected.
// Reads log the same failure and return an empty result instead.
type StatementFailedError = sql.StatementFailedError

// IsStatementFailed returns true if the error is a StatementFailedError.
func IsStatementFailed(err error) bool {
	return sql.IsStatementFailed(err)
}

// InvalidConfigurationError names the configuration key that is missing or invalid.
type InvalidConfigurationError struct {
	Key    string // Configuration key, e.g. "host"
	Reason string // Optional detail; "is required" when empty
}

// Error returns the error string.
func (e *InvalidConfigurationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is required"
	}
	return fmt.Sprintf("tabula: invalid configuration: %s %s", e.Key, reason)
}

// Is reports whether the target error matches ErrInvalidConfiguration.
func (e *InvalidConfigurationError) Is(err error) bool {
	return err == ErrInvalidConfiguration
}

// NewInvalidConfigurationError returns a new InvalidConfigurationError for a missing key.
func NewInvalidConfigurationError(key string) *InvalidConfigurationError {
	return &InvalidConfigurationError{Key: key}
}

// IsInvalidConfiguration returns true if the error is an InvalidConfigurationError.
func IsInvalidConfiguration(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidConfiguration)
}

// ConnectionFailedError wraps the transport error of a failed handshake.
type ConnectionFailedError struct {
	Dialect string // Dialect of the attempted connection
	Addr    string // Host:port or socket path
	Err     error  // Underlying transport error
}

// Error returns the error string.
func (e *ConnectionFailedError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("tabula: connecting to %s at %s: %v", e.Dialect, e.Addr, e.Err)
	}
	return fmt.Sprintf("tabula: connecting to %s: %v", e.Dialect, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionFailedError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrConnectionFailed.
func (e *ConnectionFailedError) Is(err error) bool {
	return err == ErrConnectionFailed
}

// IsConnectionFailed returns true if the error is a ConnectionFailedError.
func IsConnectionFailed(err error) bool {
	return err != nil && errors.Is(err, ErrConnectionFailed)
}

// InvalidIdentifierError is returned when a table or column name cannot be
// used in a statement.
type InvalidIdentifierError struct {
	Name string
}

// Error returns the error string.
func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("tabula: invalid identifier %q", e.Name)
}

// Is reports whether the target error matches ErrInvalidIdentifier.
func (e *InvalidIdentifierError) Is(err error) bool {
	return err == ErrInvalidIdentifier
}

// checkIdentifiers returns an *InvalidIdentifierError for the first name
// that is not a valid SQL identifier.
func checkIdentifiers(names ...string) error {
	for _, n := range names {
		if !sql.IsValidIdentifier(n) {
			return &InvalidIdentifierError{Name: n}
		}
	}
	return nil
}
