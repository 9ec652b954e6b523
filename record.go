package tabula

// Record is one row keyed by column name. Values are scalars: strings,
// numbers, bools or nil.
type Record map[string]any

// Clone returns a shallow copy of r. A nil Record clones to an empty one.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Pick returns the entries of r whose keys appear in fields, in the
// order of fields.
func (r Record) Pick(fields []string) (Record, []string) {
	out := make(Record, len(fields))
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, seen := out[f]; seen {
			continue
		}
		if v, ok := r[f]; ok {
			out[f] = v
			keys = append(keys, f)
		}
	}
	return out, keys
}

// String returns the value of a column as a string, or "" when it is not
// a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// isBlank reports whether v counts as "no value" for an identifier.
func isBlank(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int8:
		return v == 0
	case int16:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint:
		return v == 0
	case uint8:
		return v == 0
	case uint16:
		return v == 0
	case uint32:
		return v == 0
	case uint64:
		return v == 0
	case float32:
		return v == 0
	case float64:
		return v == 0
	case []byte:
		return len(v) == 0
	}
	return false
}
