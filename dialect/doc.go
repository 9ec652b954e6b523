// Package dialect provides database dialect abstraction for tabula.
//
// The core speaks MySQL first: its upsert is a single
// INSERT ... ON DUPLICATE KEY UPDATE statement. PostgreSQL and SQLite are
// supported through their ON CONFLICT form so the same table adapters run
// against an embedded database in tests.
//
// # Dialect Constants
//
// Each dialect is identified by a constant string that is also the
// database/sql driver name:
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//
// # Helpers
//
//   - BindType: sqlx bindvar type for rebinding named queries (? or $n)
//   - Quote: identifier quoting (`name` or "name")
//   - UpsertClause: the insert-or-update clause for the dialect
//
// # Sub-packages
//
//   - dialect/sql: connection handle and statement executor
package dialect
