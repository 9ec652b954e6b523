package tabula

import (
	"slices"

	"github.com/go-openapi/inflect"
)

// Schema describes the table behind an adapter: its name, identifier
// conventions and the ordered list of columns that may be written.
//
//	var Users = tabula.Schema{
//		Name:     "User",
//		IDPrefix: "usr_",
//		Fields:   []string{"username", "password", "email", "active"},
//	}
type Schema struct {
	// Name is the adapter name. When Table is empty the table name is
	// derived from it: "BlogPost" maps to "blog_posts".
	Name string
	// Table is the table name.
	Table string
	// IDField is the primary-key column. Defaults to "id".
	IDField string
	// IDPrefix is prepended to generated identifiers.
	IDPrefix string
	// Fields are the permitted columns. Anything else in a written
	// record is dropped. The identifier column is always permitted.
	Fields []string
	// EmailField is the column GetByEmail filters on. Defaults to "email".
	EmailField string
}

// Defaults returns a copy of s with empty names filled in.
func (s Schema) Defaults() Schema {
	if s.Table == "" && s.Name != "" {
		s.Table = inflect.Pluralize(inflect.Underscore(s.Name))
	}
	if s.IDField == "" {
		s.IDField = "id"
	}
	if s.EmailField == "" {
		s.EmailField = "email"
	}
	return s
}

// Validate checks that every name in the schema is a usable identifier.
func (s Schema) Validate() error {
	s = s.Defaults()
	if s.Table == "" {
		return &InvalidConfigurationError{Key: "table", Reason: "is required"}
	}
	if err := checkIdentifiers(s.Table, s.IDField, s.EmailField); err != nil {
		return err
	}
	return checkIdentifiers(s.Fields...)
}

// Permitted returns the writable columns, with the identifier column first
// when Fields does not list it.
func (s Schema) Permitted() []string {
	s = s.Defaults()
	if slices.Contains(s.Fields, s.IDField) {
		return slices.Clone(s.Fields)
	}
	return append([]string{s.IDField}, s.Fields...)
}
