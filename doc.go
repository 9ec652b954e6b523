// Package tabula is a per-table access layer for relational databases.
//
// A table adapter declares its table as a Schema and embeds a *Table, which
// provides reads (GetBy, ListBy, GetByID, GetByEmail, GetAll, Count) and
// writes (Update, UpdateWhere, Create, DeleteByID):
//
//	type Posts struct{ *tabula.Table }
//
//	func NewPosts(conn tabula.Connector) (*Posts, error) {
//		t, err := tabula.NewTable(conn, tabula.Schema{
//			Name:     "Post",
//			IDPrefix: "pst_",
//			Fields:   []string{"title", "body", "published_at"},
//		})
//		if err != nil {
//			return nil, err
//		}
//		return &Posts{t}, nil
//	}
//
// Update is an atomic insert-or-update keyed on the identifier column:
// a record without identifier is stored under a generated one, a record
// with one overwrites the fields it carries and leaves the others alone.
// Only the columns listed in Schema.Fields are ever written.
//
// The connection is resolved per call through a Connector: a *sql.Driver
// for an explicit handle, or a provider.Provider that falls back to the
// process-wide default.
//
// Reads treat a failed statement as "no rows"; writes return it as a
// *StatementFailedError.
package tabula
