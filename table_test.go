package tabula_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
)

const usersDDL = `CREATE TABLE users (
	id TEXT PRIMARY KEY,
	username TEXT,
	password TEXT,
	email TEXT,
	active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT
)`

var usersSchema = tabula.Schema{
	Name:     "User",
	IDPrefix: "usr_",
	Fields:   []string{"username", "password", "email", "active", "created_at"},
}

// openSQLite returns a driver on a fresh in-memory database with the users
// table created.
func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sql.Open(dialect.SQLite, ":memory:", sql.WithMaxOpenConns(1), sql.WithLog(sql.NopLog()))
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	_, err = drv.Exec(context.Background(), usersDDL, nil)
	require.NoError(t, err)
	return drv
}

func newUsers(t *testing.T, conn tabula.Connector, opts ...tabula.TableOption) *tabula.Table {
	t.Helper()
	tbl, err := tabula.NewTable(conn, usersSchema, opts...)
	require.NoError(t, err)
	return tbl
}

func TestTableCreateThenPartialUpdate(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, openSQLite(t))
	assert.Equal(t, "users", users.Schema().Table)

	created, err := users.Update(ctx, tabula.Record{"username": "x", "password": "hash1"})
	require.NoError(t, err)
	id := created.String("id")
	require.True(t, strings.HasPrefix(id, "usr_"))
	assert.Len(t, id, len("usr_")+tabula.DefaultIDLength)
	assert.Equal(t, tabula.Record{"id": id, "username": "x", "password": "hash1"}, created)

	updated, err := users.Update(ctx, tabula.Record{"id": id, "active": 0})
	require.NoError(t, err)
	assert.Equal(t, tabula.Record{"id": id, "active": 0}, updated)

	row, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "x", row["username"])
	assert.Equal(t, "hash1", row["password"])
	assert.EqualValues(t, 0, row["active"])

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestTableUpdateIdempotent(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, openSQLite(t))

	rec := tabula.Record{"id": "usr_fixed", "username": "ada", "password": "h", "email": "ada@example.com", "active": 1}
	for range 2 {
		_, err := users.Save(ctx, rec)
		require.NoError(t, err)

		rows, err := users.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "ada", rows[0]["username"])
		assert.Equal(t, "ada@example.com", rows[0]["email"])
		assert.EqualValues(t, 1, rows[0]["active"])
	}
}

func TestTableWhitelist(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, openSQLite(t))

	written, err := users.Update(ctx, tabula.Record{"username": "x", "is_admin": true})
	require.NoError(t, err)
	assert.NotContains(t, written, "is_admin")

	_, err = users.Update(ctx, tabula.Record{"is_admin": true, "id": written["id"]})
	require.NoError(t, err)
	row, err := users.GetByID(ctx, written["id"])
	require.NoError(t, err)
	assert.NotContains(t, row, "is_admin")
}

func TestTableReads(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, openSQLite(t))

	for _, r := range []tabula.Record{
		{"id": "usr_1", "username": "ada", "email": "ada@example.com", "created_at": "2024-01-10"},
		{"id": "usr_2", "username": "bob", "email": "bob@example.com", "created_at": "2024-02-10", "active": 0},
		{"id": "usr_3", "username": "cy", "email": "cy@example.com", "created_at": "2024-03-10", "active": 0},
	} {
		_, err := users.Create(ctx, r)
		require.NoError(t, err)
	}

	t.Run("GetBy", func(t *testing.T) {
		row, err := users.GetBy(ctx, "username", "bob")
		require.NoError(t, err)
		assert.Equal(t, "usr_2", row["id"])

		row, err = users.GetBy(ctx, "username", "nobody")
		require.NoError(t, err)
		assert.Empty(t, row)
		assert.NotNil(t, row)
	})

	t.Run("ListBy", func(t *testing.T) {
		rows, err := users.ListBy(ctx, "active", 0)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("GetByEmail", func(t *testing.T) {
		row, err := users.GetByEmail(ctx, "cy@example.com")
		require.NoError(t, err)
		assert.Equal(t, "cy", row["username"])
	})

	t.Run("GetAll", func(t *testing.T) {
		rows, err := users.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		rows, err = users.GetAll(ctx,
			tabula.WithDateRange("created_at", "2024-02-01", ""),
			tabula.WithOrderBy("created_at DESC"),
		)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "usr_3", rows[0]["id"])
		assert.Equal(t, "usr_2", rows[1]["id"])

		rows, err = users.GetAll(ctx, tabula.WithDateRange("created_at", "2024-01-01", "2024-02-28"))
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		_, err = users.GetAll(ctx, tabula.WithOrderBy("created_at; DROP TABLE users"))
		assert.ErrorIs(t, err, tabula.ErrInvalidIdentifier)
		_, err = users.GetAll(ctx, tabula.WithOrderBy("created_at SIDEWAYS"))
		assert.ErrorIs(t, err, tabula.ErrInvalidIdentifier)
	})

	t.Run("invalid_key", func(t *testing.T) {
		_, err := users.GetBy(ctx, "1=1 OR username", "x")
		assert.ErrorIs(t, err, tabula.ErrInvalidIdentifier)
	})

	t.Run("unknown_column", func(t *testing.T) {
		// The database rejects the statement; reads report no rows.
		rows, err := users.ListBy(ctx, "nickname", "ada")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestTableWrites(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, openSQLite(t))

	_, err := users.Create(ctx, tabula.Record{"id": "usr_1", "username": "ada"})
	require.NoError(t, err)
	_, err = users.Create(ctx, tabula.Record{"id": "usr_2", "username": "bob"})
	require.NoError(t, err)

	t.Run("Create_duplicate", func(t *testing.T) {
		got, err := users.Create(ctx, tabula.Record{"id": "usr_1", "username": "eve"})
		require.Error(t, err)
		assert.Empty(t, got)
		assert.True(t, tabula.IsStatementFailed(err))
		assert.True(t, sql.IsUniqueConstraintError(err))
	})

	t.Run("UpdateWhere", func(t *testing.T) {
		_, err := users.UpdateWhere(ctx, tabula.Record{"active": 0}, "username = :name", map[string]any{"name": "bob"})
		require.NoError(t, err)
		row, err := users.GetByID(ctx, "usr_2")
		require.NoError(t, err)
		assert.EqualValues(t, 0, row["active"])
		row, err = users.GetByID(ctx, "usr_1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, row["active"])

		_, err = users.UpdateWhere(ctx, tabula.Record{"active": 0}, "", nil)
		require.Error(t, err)
	})

	t.Run("UpdateWhere_blank_id", func(t *testing.T) {
		written, err := users.UpdateWhere(ctx, tabula.Record{"id": "", "active": 0}, "id = :key", map[string]any{"key": "usr_1"})
		require.NoError(t, err)
		assert.Equal(t, tabula.Record{"active": 0}, written)

		row, err := users.GetByID(ctx, "usr_1")
		require.NoError(t, err)
		assert.Equal(t, "usr_1", row["id"])
		assert.EqualValues(t, 0, row["active"])

		row, err = users.GetByID(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, row)

		_, err = users.UpdateWhere(ctx, tabula.Record{"active": 1}, "id = :key", map[string]any{"key": "usr_1"})
		require.NoError(t, err)
	})

	t.Run("DeleteByID", func(t *testing.T) {
		n, err := users.DeleteByID(ctx, "usr_2")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = users.DeleteByID(ctx, "usr_2")
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		count, err := users.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestTableExpander(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, openSQLite(t), tabula.WithExpander(func(_ context.Context, rec tabula.Record) (tabula.Record, error) {
		if u := rec.String("username"); u != "" {
			rec["email"] = u + "@example.com"
		}
		return rec, nil
	}))

	in := tabula.Record{"username": "ada"}
	written, err := users.Update(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", written["email"])
	assert.NotContains(t, in, "email")

	failing := newUsers(t, openSQLite(t), tabula.WithExpander(func(context.Context, tabula.Record) (tabula.Record, error) {
		return nil, errors.New("no slug")
	}))
	_, err = failing.Update(ctx, in)
	assert.ErrorContains(t, err, "no slug")
}

func TestTableIDGenerator(t *testing.T) {
	users := newUsers(t, openSQLite(t), tabula.WithIDGenerator(tabula.UUIDs{}))
	written, err := users.Update(context.Background(), tabula.Record{"username": "ada"})
	require.NoError(t, err)
	assert.Regexp(t, `^usr_[0-9a-f-]{36}$`, written["id"])
}

func TestTableNoConnection(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, nil)

	_, err := users.GetByID(ctx, "usr_1")
	assert.ErrorIs(t, err, tabula.ErrNoConnectionConfigured)
	_, err = users.Update(ctx, tabula.Record{"username": "x"})
	assert.ErrorIs(t, err, tabula.ErrNoConnectionConfigured)
	_, err = users.Count(ctx)
	assert.ErrorIs(t, err, tabula.ErrNoConnectionConfigured)
}

func TestNewTableInvalidSchema(t *testing.T) {
	_, err := tabula.NewTable(nil, tabula.Schema{Table: "users", Fields: []string{"bad name"}})
	assert.ErrorIs(t, err, tabula.ErrInvalidIdentifier)
}

func TestTableStatementShapes(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.MySQL)
	users := newUsers(t, drv)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `email` = ? LIMIT 1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow("usr_1", []byte("ada")))
	row, err := users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, tabula.Record{"id": "usr_1", "username": "ada"}, row)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `created_at` >= ? AND `created_at` <= ? ORDER BY `created_at` DESC, `username`")).
		WithArgs("2024-01-01", "2024-12-31").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	rows, err := users.GetAll(ctx,
		tabula.WithDateRange("created_at", "2024-01-01", "2024-12-31"),
		tabula.WithOrderBy("created_at desc, username"),
	)
	require.NoError(t, err)
	assert.Empty(t, rows)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `id` = ? LIMIT 1")).
		WithArgs("usr_1").
		WillReturnError(errors.New("server has gone away"))
	row, err = users.GetByID(ctx, "usr_1")
	require.NoError(t, err)
	assert.Empty(t, row)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `users` WHERE `id` = ?")).
		WithArgs("usr_1").
		WillReturnError(errors.New("lock wait timeout exceeded"))
	_, err = users.DeleteByID(ctx, "usr_1")
	assert.True(t, tabula.IsStatementFailed(err))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS n FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(42)))
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableCache(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.MySQL)
	cache := tabula.NewMemoryCache(0, 0)
	users := newUsers(t, drv, tabula.WithCache(cache), tabula.WithIDGenerator(fixedIDs("1")))

	selectByID := regexp.QuoteMeta("SELECT * FROM `users` WHERE `id` = ? LIMIT 1")
	mock.ExpectQuery(selectByID).WithArgs("usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow("usr_1", "ada"))

	for range 3 {
		row, err := users.GetByID(ctx, "usr_1")
		require.NoError(t, err)
		assert.Equal(t, "ada", row["username"])
	}
	assert.Equal(t, 1, cache.Len())

	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(0, 2))
	_, err := users.Update(ctx, tabula.Record{"id": "usr_1", "username": "ada2"})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	mock.ExpectQuery(selectByID).WithArgs("usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow("usr_1", "ada2"))
	row, err := users.GetByID(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, "ada2", row["username"])

	mock.ExpectExec("UPDATE `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = users.UpdateWhere(ctx, tabula.Record{"active": 0}, "1 = 1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	require.NoError(t, mock.ExpectationsWereMet())
}
