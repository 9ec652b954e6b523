package tabula

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
)

// UpsertRequest describes one insert-or-update.
type UpsertRequest struct {
	// Table is the target table.
	Table string
	// IDField is the primary-key column. Defaults to "id".
	IDField string
	// IDPrefix is prepended to a generated identifier.
	IDPrefix string
	// Fields are the permitted columns, in write order. A caller-supplied
	// identifier is written only when IDField is listed here.
	Fields []string
	// Criteria, when set, turns the write into
	// "UPDATE table SET ... WHERE <Criteria>". It is trusted SQL; values
	// belong in CriteriaParams and are referenced as :name.
	Criteria string
	// CriteriaParams binds the placeholders of Criteria. Names must not
	// collide with the written columns.
	CriteriaParams map[string]any
	// IDs generates missing identifiers. Defaults to HexIDs{}.
	IDs IDGenerator
}

// Upsert writes the permitted fields of incoming to req.Table and returns
// the record that was written.
//
// Fields not listed in req.Fields are dropped. Without criteria, a missing
// or blank identifier is generated and the row is written with a single
// atomic insert-or-update keyed on the identifier. With criteria, matching
// rows are updated and no identifier is generated.
//
// On failure the returned Record is empty and the error is a
// *StatementFailedError, an *InvalidIdentifierError, ErrNothingToWrite or
// an ErrRandomSourceUnavailable wrap.
func Upsert(ctx context.Context, drv *sql.Driver, req UpsertRequest, incoming Record) (Record, error) {
	if req.IDField == "" {
		req.IDField = "id"
	}
	if err := checkIdentifiers(append([]string{req.Table, req.IDField}, req.Fields...)...); err != nil {
		return Record{}, err
	}
	write, keys, err := prepareWrite(req, incoming, req.Criteria == "")
	if err != nil {
		return Record{}, err
	}
	name := drv.Dialect()
	var (
		query  string
		params = map[string]any(write)
	)
	if req.Criteria != "" {
		query = fmt.Sprintf("UPDATE %s SET %s WHERE %s",
			dialect.Quote(name, req.Table), assignments(name, keys), req.Criteria)
		if len(req.CriteriaParams) > 0 {
			params = make(map[string]any, len(write)+len(req.CriteriaParams))
			for k, v := range write {
				params[k] = v
			}
			for k, v := range req.CriteriaParams {
				if _, ok := params[k]; ok {
					return Record{}, fmt.Errorf("tabula: criteria parameter %q collides with a written column", k)
				}
				params[k] = v
			}
		}
	} else {
		clause, err := dialect.UpsertClause(name, dialect.Quote(name, req.IDField))
		if err != nil {
			return Record{}, err
		}
		query = insertStatement(name, req.Table, keys) + " " + clause + " " + assignments(name, keys)
	}
	if _, err := drv.Exec(ctx, query, params); err != nil {
		return Record{}, err
	}
	return write, nil
}

// prepareWrite filters incoming by the permitted fields and, when genID is
// set, assigns a generated identifier to a record that lacks one. The
// generated identifier is written even when IDField is not permitted.
// Otherwise a blank identifier is dropped from the write-set.
func prepareWrite(req UpsertRequest, incoming Record, genID bool) (Record, []string, error) {
	write, keys := incoming.Pick(req.Fields)
	if genID && isBlank(incoming[req.IDField]) {
		ids := req.IDs
		if ids == nil {
			ids = HexIDs{}
		}
		id, err := ids.NewID(req.IDPrefix)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := write[req.IDField]; !ok {
			keys = append([]string{req.IDField}, keys...)
		}
		write[req.IDField] = id
	} else if v, ok := write[req.IDField]; ok && isBlank(v) {
		// A blank identifier never overwrites stored keys.
		delete(write, req.IDField)
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == req.IDField })
	}
	if len(keys) == 0 {
		return nil, nil, ErrNothingToWrite
	}
	return write, keys, nil
}

// insertStatement returns "INSERT INTO t (a, b) VALUES (:a, :b)".
func insertStatement(name, table string, keys []string) string {
	cols := make([]string, len(keys))
	vals := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = dialect.Quote(name, k)
		vals[i] = ":" + k
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		dialect.Quote(name, table), strings.Join(cols, ", "), strings.Join(vals, ", "))
}

// assignments returns "a = :a, b = :b".
func assignments(name string, keys []string) string {
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = dialect.Quote(name, k) + " = :" + k
	}
	return strings.Join(sets, ", ")
}
