package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/config"
	"github.com/syssam/tabula/dialect"
)

// DSN returns the data source name for cfg in the format of its dialect's
// driver. Values are never interpolated into statements by any of them.
func DSN(cfg config.Database) (string, error) {
	cfg = cfg.WithDefaults()
	switch dialect.Normalize(cfg.Dialect) {
	case dialect.MySQL:
		return mysqlDSN(cfg), nil
	case dialect.Postgres:
		return postgresDSN(cfg), nil
	case dialect.SQLite:
		return sqliteDSN(cfg), nil
	default:
		return "", &tabula.InvalidConfigurationError{Key: "dialect", Reason: fmt.Sprintf("%q is not supported", cfg.Dialect)}
	}
}

func mysqlDSN(cfg config.Database) string {
	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.DBName = cfg.DBName
	if cfg.Socket != "" {
		c.Net = "unix"
		c.Addr = cfg.Socket
	} else {
		c.Net = "tcp"
		c.Addr = cfg.Addr()
	}
	c.Timeout = cfg.ConnectTimeout
	c.InterpolateParams = false
	// Sent as SET NAMES after the handshake.
	c.Params = map[string]string{"charset": cfg.Charset}
	return c.FormatDSN()
}

func postgresDSN(cfg config.Database) string {
	var b strings.Builder
	kv := func(k, v string) {
		if v == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quotePQ(v))
	}
	if cfg.Socket != "" {
		kv("host", cfg.Socket)
	} else {
		kv("host", cfg.Host)
	}
	if cfg.Port != 0 {
		kv("port", strconv.Itoa(cfg.Port))
	}
	kv("dbname", cfg.DBName)
	kv("user", cfg.Username)
	kv("password", cfg.Password)
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	kv("sslmode", sslmode)
	kv("client_encoding", pgEncoding(cfg.Charset))
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		kv("connect_timeout", strconv.Itoa(secs))
	}
	return b.String()
}

// pgEncoding maps MySQL character set names to PostgreSQL encodings.
func pgEncoding(charset string) string {
	switch strings.ToLower(charset) {
	case "utf8", "utf8mb4", "utf8mb3", "utf-8":
		return "UTF8"
	case "latin1":
		return "LATIN1"
	default:
		return strings.ToUpper(charset)
	}
}

// quotePQ quotes a key/value connection string value for lib/pq.
func quotePQ(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func sqliteDSN(cfg config.Database) string {
	ms := cfg.ConnectTimeout.Milliseconds()
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", cfg.DBName, ms)
}
