package tabula

import (
	"context"
	"fmt"
	"strconv"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
)

// Connector resolves the handle a Table runs its statements on.
// *sql.Driver implements it for an explicit handle; provider.Provider
// resolves a shared default.
type Connector interface {
	Conn(ctx context.Context) (*sql.Driver, error)
}

// Expander derives additional fields of a record before it is written,
// e.g. a slug from a title. It runs before the permitted-field filter.
type Expander func(ctx context.Context, rec Record) (Record, error)

// TableOption configures a Table.
type TableOption func(*Table)

// WithCache enables the GetByID read cache.
func WithCache(c Cache) TableOption {
	return func(t *Table) {
		t.cache = c
	}
}

// WithIDGenerator replaces the identifier generator. Defaults to HexIDs{}.
func WithIDGenerator(g IDGenerator) TableOption {
	return func(t *Table) {
		if g != nil {
			t.ids = g
		}
	}
}

// WithExpander sets the hook Update and Create run on incoming records.
func WithExpander(fn Expander) TableOption {
	return func(t *Table) {
		t.expand = fn
	}
}

// Table is the base of a table adapter. Adapters embed *Table and shadow
// methods that need table-specific processing.
//
// Reads return an empty result when the database rejects the statement;
// the failure is logged by the driver. They return errors only when no
// connection can be resolved or a column name is invalid. Writes return
// every failure.
type Table struct {
	conn   Connector
	schema Schema
	fields []string
	ids    IDGenerator
	cache  Cache
	expand Expander
}

// NewTable returns a Table for the schema. Statements run on the handle
// resolved by conn.
func NewTable(conn Connector, s Schema, opts ...TableOption) (*Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s = s.Defaults()
	t := &Table{
		conn:   conn,
		schema: s,
		fields: s.Permitted(),
		ids:    HexIDs{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Schema returns the schema of the table with defaults applied.
func (t *Table) Schema() Schema {
	return t.schema
}

// Driver resolves the connection handle of the table.
func (t *Table) Driver(ctx context.Context) (*sql.Driver, error) {
	if t.conn == nil {
		return nil, ErrNoConnectionConfigured
	}
	return t.conn.Conn(ctx)
}

// GetBy returns the first row where key equals value, or an empty Record.
func (t *Table) GetBy(ctx context.Context, key string, value any) (Record, error) {
	rows, err := t.selectBy(ctx, key, value, true)
	if err != nil || len(rows) == 0 {
		return Record{}, err
	}
	return rows[0], nil
}

// ListBy returns every row where key equals value.
func (t *Table) ListBy(ctx context.Context, key string, value any) ([]Record, error) {
	return t.selectBy(ctx, key, value, false)
}

// GetByID returns the row with the given identifier, or an empty Record.
func (t *Table) GetByID(ctx context.Context, id any) (Record, error) {
	key := CacheKey{Table: t.schema.Table, ID: id}.String()
	if t.cache != nil {
		if rec, ok := t.cache.Get(ctx, key); ok {
			return rec, nil
		}
	}
	rec, err := t.GetBy(ctx, t.schema.IDField, id)
	if err != nil {
		return Record{}, err
	}
	if t.cache != nil && len(rec) > 0 {
		t.cache.Set(ctx, key, rec)
	}
	return rec, nil
}

// GetByEmail returns the first row whose email column matches. Adapters
// whose address lives elsewhere set Schema.EmailField or shadow the method.
func (t *Table) GetByEmail(ctx context.Context, email string) (Record, error) {
	return t.GetBy(ctx, t.schema.EmailField, email)
}

// GetAll returns every row of the table, optionally restricted to a date
// range and sorted.
func (t *Table) GetAll(ctx context.Context, opts ...QueryOption) ([]Record, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	drv, err := t.Driver(ctx)
	if err != nil {
		return nil, err
	}
	name := drv.Dialect()
	query := "SELECT * FROM " + dialect.Quote(name, t.schema.Table)
	var params map[string]any
	if o.dateField != "" {
		if err := checkIdentifiers(o.dateField); err != nil {
			return nil, err
		}
		var clause string
		clause, params = BuildDateRangeClause(dialect.Quote(name, o.dateField), o.from, o.to)
		if clause != "" {
			query += " WHERE " + clause
		}
	}
	if o.orderBy != "" {
		order, err := orderByClause(name, o.orderBy)
		if err != nil {
			return nil, err
		}
		query += " ORDER BY " + order
	}
	return t.query(ctx, drv, query, params)
}

// Count returns the number of rows in the table, or 0 when the statement
// fails.
func (t *Table) Count(ctx context.Context) (int64, error) {
	drv, err := t.Driver(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := t.query(ctx, drv, "SELECT COUNT(*) AS n FROM "+dialect.Quote(drv.Dialect(), t.schema.Table), nil)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return toInt64(rows[0]["n"]), nil
}

// Update writes rec with a single insert-or-update keyed on the identifier.
// A record without identifier is inserted under a generated one. Only
// permitted fields are written; the written record is returned.
func (t *Table) Update(ctx context.Context, rec Record) (Record, error) {
	return t.write(ctx, rec, "", nil)
}

// Save is an alias of Update.
//
// Deprecated: Use Update.
func (t *Table) Save(ctx context.Context, rec Record) (Record, error) {
	return t.Update(ctx, rec)
}

// UpdateWhere sets the permitted fields of rec on every row matching
// criteria. criteria is trusted SQL whose values are bound from params.
func (t *Table) UpdateWhere(ctx context.Context, rec Record, criteria string, params map[string]any) (Record, error) {
	if criteria == "" {
		return Record{}, fmt.Errorf("tabula: update %s: empty criteria", t.schema.Table)
	}
	return t.write(ctx, rec, criteria, params)
}

// Create inserts rec as a new row. Unlike Update it fails with a
// *StatementFailedError when the identifier already exists.
func (t *Table) Create(ctx context.Context, rec Record) (Record, error) {
	drv, err := t.Driver(ctx)
	if err != nil {
		return Record{}, err
	}
	if rec, err = t.expandRecord(ctx, rec); err != nil {
		return Record{}, err
	}
	write, keys, err := prepareWrite(t.request("", nil), rec, true)
	if err != nil {
		return Record{}, err
	}
	if _, err := drv.Exec(ctx, insertStatement(drv.Dialect(), t.schema.Table, keys), write); err != nil {
		return Record{}, err
	}
	t.invalidate(ctx, write[t.schema.IDField])
	return write, nil
}

// DeleteByID deletes the row with the given identifier and returns the
// number of deleted rows.
func (t *Table) DeleteByID(ctx context.Context, id any) (int64, error) {
	drv, err := t.Driver(ctx)
	if err != nil {
		return 0, err
	}
	name := drv.Dialect()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = :%s",
		dialect.Quote(name, t.schema.Table), dialect.Quote(name, t.schema.IDField), t.schema.IDField)
	res, err := drv.Exec(ctx, query, map[string]any{t.schema.IDField: id})
	if err != nil {
		return 0, err
	}
	t.invalidate(ctx, id)
	return res.RowsAffected, nil
}

func (t *Table) write(ctx context.Context, rec Record, criteria string, params map[string]any) (Record, error) {
	drv, err := t.Driver(ctx)
	if err != nil {
		return Record{}, err
	}
	if rec, err = t.expandRecord(ctx, rec); err != nil {
		return Record{}, err
	}
	written, err := Upsert(ctx, drv, t.request(criteria, params), rec)
	if err != nil {
		return Record{}, err
	}
	if criteria != "" {
		t.invalidate(ctx, nil)
	} else {
		t.invalidate(ctx, written[t.schema.IDField])
	}
	return written, nil
}

func (t *Table) request(criteria string, params map[string]any) UpsertRequest {
	return UpsertRequest{
		Table:          t.schema.Table,
		IDField:        t.schema.IDField,
		IDPrefix:       t.schema.IDPrefix,
		Fields:         t.fields,
		Criteria:       criteria,
		CriteriaParams: params,
		IDs:            t.ids,
	}
}

func (t *Table) expandRecord(ctx context.Context, rec Record) (Record, error) {
	if t.expand == nil {
		return rec, nil
	}
	out, err := t.expand(ctx, rec.Clone())
	if err != nil {
		return nil, fmt.Errorf("tabula: expand %s record: %w", t.schema.Table, err)
	}
	return out, nil
}

// invalidate drops the cached row for id, or every cached row of the table
// when id is nil.
func (t *Table) invalidate(ctx context.Context, id any) {
	if t.cache == nil {
		return
	}
	if id == nil {
		t.cache.DeletePrefix(ctx, t.schema.Table+":")
		return
	}
	t.cache.Delete(ctx, CacheKey{Table: t.schema.Table, ID: id}.String())
}

func (t *Table) selectBy(ctx context.Context, key string, value any, first bool) ([]Record, error) {
	if err := checkIdentifiers(key); err != nil {
		return nil, err
	}
	drv, err := t.Driver(ctx)
	if err != nil {
		return nil, err
	}
	name := drv.Dialect()
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = :%s",
		dialect.Quote(name, t.schema.Table), dialect.Quote(name, key), key)
	if first {
		query += " LIMIT 1"
	}
	return t.query(ctx, drv, query, map[string]any{key: value})
}

// query runs a read. Statement failures yield an empty result.
func (t *Table) query(ctx context.Context, drv *sql.Driver, query string, params map[string]any) ([]Record, error) {
	rows, err := drv.Query(ctx, query, params)
	if err != nil {
		if sql.IsStatementFailed(err) {
			return []Record{}, nil
		}
		return nil, err
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Record(r)
	}
	return out, nil
}

func toInt64(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
