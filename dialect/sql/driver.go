package sql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syssam/tabula/dialect"
)

// validIdentifierRe validates SQL identifiers (table and column names).
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// IsValidIdentifier reports whether s can be used as a table or column name.
// Column names double as placeholder names, so dots are not accepted.
func IsValidIdentifier(s string) bool {
	return s != "" && len(s) <= 64 && validIdentifierRe.MatchString(s)
}

// Driver is a single database handle. It executes parameterized statements,
// logs them through a LogFunc and records optional statistics.
type Driver struct {
	db            *sqlx.DB
	dialect       string
	log           LogFunc
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
}

// Option configures a Driver.
type Option func(*Driver)

// WithLog sets the logging callback. A nil LogFunc keeps the default sink.
func WithLog(fn LogFunc) Option {
	return func(d *Driver) {
		if fn != nil {
			d.log = fn
		}
	}
}

// WithMaxOpenConns limits the number of open connections of the handle.
// In-memory SQLite databases need 1 so every statement sees the same data.
func WithMaxOpenConns(n int) Option {
	return func(d *Driver) {
		d.db.SetMaxOpenConns(n)
	}
}

// NewDriver creates a new Driver from an sqlx handle.
func NewDriver(dialect string, db *sqlx.DB, opts ...Option) *Driver {
	d := &Driver{
		db:            db,
		dialect:       dialect,
		log:           DefaultLog(),
		slowThreshold: defaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open wraps sqlx.Open and returns a Driver for the dialect.
// The dialect name is used as the database/sql driver name.
func Open(dialect, source string, opts ...Option) (*Driver, error) {
	db, err := sqlx.Open(dialect, source)
	if err != nil {
		return nil, err
	}
	return NewDriver(dialect, db, opts...), nil
}

// OpenDB wraps an existing database/sql handle with a Driver.
func OpenDB(dialect string, db *sql.DB, opts ...Option) *Driver {
	return NewDriver(dialect, sqlx.NewDb(db, dialect), opts...)
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB {
	return d.db.DB
}

// Dialect returns the dialect name of the handle.
func (d *Driver) Dialect() string {
	return dialect.Normalize(d.dialect)
}

// Conn returns the driver itself, so an explicit handle can be used
// anywhere a connection resolver is expected.
func (d *Driver) Conn(context.Context) (*Driver, error) {
	return d, nil
}

// Ping verifies the connection to the database is alive.
func (d *Driver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// Result describes the outcome of a statement that returns no rows.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Query executes a statement that returns rows. The template uses :name
// placeholders that are bound from params; values are never interpolated.
//
// Text columns scanned as []byte are returned as strings. On failure the
// error is logged under the "error" title and returned as a
// *StatementFailedError.
func (d *Driver) Query(ctx context.Context, query string, params map[string]any) (rows []map[string]any, rerr error) {
	start := time.Now()
	defer func() { d.record(ctx, query, params, start, rerr, true) }()

	q, args, err := d.bind(query, params)
	if err != nil {
		return nil, d.fail(query, err)
	}
	rs, err := d.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, d.fail(query, err)
	}
	defer rs.Close()
	for rs.Next() {
		row := make(map[string]any)
		if err := rs.MapScan(row); err != nil {
			return nil, d.fail(query, fmt.Errorf("scan: %w", err))
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, d.fail(query, err)
	}
	return rows, nil
}

// Exec executes a statement that does not return rows, binding params the
// same way as Query.
func (d *Driver) Exec(ctx context.Context, query string, params map[string]any) (res Result, rerr error) {
	start := time.Now()
	defer func() { d.record(ctx, query, params, start, rerr, false) }()

	q, args, err := d.bind(query, params)
	if err != nil {
		return Result{}, d.fail(query, err)
	}
	r, err := d.db.ExecContext(ctx, q, args...)
	if err != nil {
		return Result{}, d.fail(query, err)
	}
	// Some drivers (lib/pq) support neither value; zero is reported then.
	res.RowsAffected, _ = r.RowsAffected()
	res.LastInsertID, _ = r.LastInsertId()
	return res, nil
}

// bind compiles :name placeholders into the dialect's bindvars and logs the
// statement before it is sent.
func (d *Driver) bind(query string, params map[string]any) (string, []any, error) {
	d.log(fmt.Sprintf("query: %s params: %v", query, params), TitleSQL)
	if len(params) == 0 {
		return query, nil, nil
	}
	q, args, err := sqlx.Named(query, params)
	if err != nil {
		return "", nil, fmt.Errorf("bind: %w", err)
	}
	return sqlx.Rebind(dialect.BindType(d.dialect), q), args, nil
}

func (d *Driver) fail(query string, err error) error {
	d.log(err.Error(), TitleError)
	return &StatementFailedError{Query: query, Err: err}
}
