// Package sql provides the connection handle and statement executor used by
// tabula table adapters.
//
// A Driver wraps one *sqlx.DB. Statements are SQL templates with named
// placeholders and a map of values; the map is bound through sqlx, so values
// are never interpolated into the statement text:
//
//	drv, err := sql.Open(dialect.MySQL, dsn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	rows, err := drv.Query(ctx,
//	    "SELECT * FROM users WHERE email = :email",
//	    map[string]any{"email": "ada@example.com"},
//	)
//
// # Logging
//
// Every statement is passed to the LogFunc before execution (title "sql") and
// every failure after it (title "error"). Without WithLog the Driver logs to
// slog.Default at debug and error level.
//
// # Failures
//
// A statement the database rejects is returned as a *StatementFailedError.
// The Driver never panics on statement errors; callers decide whether a
// failure means "no rows" or "write failed". Constraint violations can be
// told apart with IsUniqueConstraintError and friends, which understand
// MySQL error numbers, PostgreSQL SQLSTATE codes and SQLite messages.
//
// # Statistics
//
// WithStats collects statement counts, errors and durations; WithSlowQueryHook
// and WithSlowQueryLog report statements slower than WithSlowThreshold.
package sql
