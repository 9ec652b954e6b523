package dialect

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect names for supported databases. They double as the database/sql
// driver names registered by the respective driver packages.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Supported reports whether name is a known dialect.
func Supported(name string) bool {
	switch name {
	case MySQL, SQLite, Postgres:
		return true
	default:
		return false
	}
}

// Normalize maps driver names wrapped by telemetry or test drivers
// (e.g. "mysql-traced", "sqlite3") back to a dialect name.
func Normalize(name string) string {
	for _, d := range []string{MySQL, SQLite, Postgres} {
		if strings.HasPrefix(name, d) {
			return d
		}
	}
	return name
}

// BindType returns the sqlx bindvar type used to rebind named queries.
func BindType(name string) int {
	if Normalize(name) == Postgres {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

// Quote quotes an identifier for the given dialect.
// Identifiers are expected to be validated by the caller.
func Quote(name, ident string) string {
	if Normalize(name) == MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// UpsertClause returns the clause that turns an INSERT into an atomic
// insert-or-update for the dialect. The returned string is followed by the
// column assignments. quotedKey is the conflict target and is ignored by
// MySQL, which resolves conflicts against any unique key.
func UpsertClause(name, quotedKey string) (string, error) {
	switch Normalize(name) {
	case MySQL:
		return "ON DUPLICATE KEY UPDATE", nil
	case Postgres, SQLite:
		return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET", quotedKey), nil
	default:
		return "", fmt.Errorf("dialect: upsert is not supported by %q", name)
	}
}
