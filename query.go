package tabula

import (
	"fmt"
	"strings"

	"github.com/syssam/tabula/dialect"
)

// Placeholder names used by the date-range helpers.
const (
	FromParam = "from"
	ToParam   = "to"
)

// BuildDateRangeClause returns "field >= :from", "field <= :to" or both
// joined by AND, with the matching parameters. Empty bounds are skipped;
// with neither bound the clause and the map are empty.
//
// field is written into the statement as is and must be a trusted column
// name.
func BuildDateRangeClause(field, from, to string) (string, map[string]any) {
	var (
		preds  []string
		params = make(map[string]any, 2)
	)
	if from != "" {
		preds = append(preds, field+" >= :"+FromParam)
		params[FromParam] = from
	}
	if to != "" {
		preds = append(preds, field+" <= :"+ToParam)
		params[ToParam] = to
	}
	return strings.Join(preds, " AND "), params
}

// AppendDateRangeToSQL appends a date-range filter to base. It uses AND when
// base already contains " where " (case-insensitive) and WHERE otherwise.
//
// The check is textual: a " where " inside a string literal or a subquery
// of base is taken for the top-level WHERE. Callers with such queries
// should build the clause with BuildDateRangeClause instead.
func AppendDateRangeToSQL(base, from, to, field string) (string, map[string]any) {
	clause, params := BuildDateRangeClause(field, from, to)
	if clause == "" {
		return base, params
	}
	if strings.Contains(strings.ToLower(base), " where ") {
		return base + " AND " + clause, params
	}
	return base + " WHERE " + clause, params
}

// BuildInClause returns "field IN (:p0, :p1, ...)" with one parameter per
// value. An empty list yields an empty clause and an empty map, which
// callers must treat as "no filter".
func BuildInClause[T any](field string, values []T) (string, map[string]any) {
	params := make(map[string]any, len(values))
	if len(values) == 0 {
		return "", params
	}
	names := make([]string, len(values))
	for i, v := range values {
		name := fmt.Sprintf("p%d", i)
		names[i] = ":" + name
		params[name] = v
	}
	return field + " IN (" + strings.Join(names, ", ") + ")", params
}

// QueryOption configures GetAll.
type QueryOption func(*queryOptions)

type queryOptions struct {
	dateField string
	from, to  string
	orderBy   string
}

// WithDateRange limits GetAll to rows whose field lies between from and to.
// Either bound may be empty.
func WithDateRange(field, from, to string) QueryOption {
	return func(o *queryOptions) {
		o.dateField, o.from, o.to = field, from, to
	}
}

// WithOrderBy sorts GetAll results. The clause is a comma-separated list of
// columns, each optionally followed by ASC or DESC.
func WithOrderBy(clause string) QueryOption {
	return func(o *queryOptions) {
		o.orderBy = clause
	}
}

// orderByClause validates and quotes an ORDER BY list.
func orderByClause(name, clause string) (string, error) {
	var terms []string
	for _, part := range strings.Split(clause, ",") {
		fs := strings.Fields(part)
		if len(fs) == 0 || len(fs) > 2 {
			return "", &InvalidIdentifierError{Name: strings.TrimSpace(part)}
		}
		if err := checkIdentifiers(fs[0]); err != nil {
			return "", err
		}
		term := dialect.Quote(name, fs[0])
		if len(fs) == 2 {
			dir := strings.ToUpper(fs[1])
			if dir != "ASC" && dir != "DESC" {
				return "", &InvalidIdentifierError{Name: fs[1]}
			}
			term += " " + dir
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, ", "), nil
}
