package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/syssam/tabula"
)

// Key aliases accepted by FromMap.
var aliases = map[string][]string{
	"dbname":   {"dbname", "database", "database_name"},
	"username": {"username", "user"},
}

// FromMap builds a Database from a loosely typed mapping such as a decoded
// JSON document or a legacy settings array. Database name and user may be
// given under any of their aliases. Values may be strings or numbers.
//
// Only type errors are reported; missing keys are left empty for Validate.
func FromMap(m map[string]any) (Database, error) {
	var d Database
	var err error
	str := func(key string) string {
		names := aliases[key]
		if names == nil {
			names = []string{key}
		}
		for _, n := range names {
			if v, ok := m[n]; ok && v != nil {
				return fmt.Sprint(v)
			}
		}
		return ""
	}
	d.Dialect = str("dialect")
	d.Host = str("host")
	d.DBName = str("dbname")
	d.Username = str("username")
	d.Password = str("password")
	d.Socket = str("socket")
	d.Charset = str("charset")
	d.SSLMode = str("sslmode")
	if d.Port, err = intValue("port", m["port"]); err != nil {
		return Database{}, err
	}
	if d.MaxOpenConns, err = intValue("max_open_conns", m["max_open_conns"]); err != nil {
		return Database{}, err
	}
	if v := str("connect_timeout"); v != "" {
		if d.ConnectTimeout, err = durationValue(v); err != nil {
			return Database{}, &tabula.InvalidConfigurationError{Key: "connect_timeout", Reason: fmt.Sprintf("%q is not a duration", v)}
		}
	}
	return d.WithDefaults(), nil
}

func intValue(key string, v any) (int, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &tabula.InvalidConfigurationError{Key: key, Reason: fmt.Sprintf("%q is not a number", v)}
		}
		return n, nil
	}
	return 0, &tabula.InvalidConfigurationError{Key: key, Reason: fmt.Sprintf("has unsupported type %T", v)}
}

// durationValue accepts "5s"-style durations and bare seconds.
func durationValue(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
