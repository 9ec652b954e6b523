package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
)

// Defaults applied before the file and the environment are read.
const (
	DefaultDialect        = dialect.MySQL
	DefaultCharset        = "utf8mb4"
	DefaultConnectTimeout = 5 * time.Second
)

// Config is the root configuration of a process using tabula.
type Config struct {
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
}

// Database describes how to reach the default database.
type Database struct {
	// Dialect selects the driver: mysql, postgres or sqlite.
	Dialect  string `yaml:"dialect"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DBName   string `yaml:"dbname"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Socket is a unix socket path (mysql) or socket directory (postgres).
	// When set it is used instead of Host and Port.
	Socket string `yaml:"socket"`
	// Charset is the session character set.
	Charset string `yaml:"charset"`
	// SSLMode is passed to postgres; empty means "disable".
	SSLMode string `yaml:"sslmode"`
	// ConnectTimeout bounds the handshake ping.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// MaxOpenConns limits the pool of the handle; zero means unlimited.
	MaxOpenConns int `yaml:"max_open_conns"`
}

// Logging contains logger settings.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
	Output string `yaml:"output"` // stdout or stderr
}

// Load reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// FromEnv returns the defaults overridden by TABULA_* environment
// variables. The result is not validated; the connection layer validates
// it before dialing.
func FromEnv() (*Config, error) {
	cfg := defaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Database: Database{
			Dialect:        DefaultDialect,
			Charset:        DefaultCharset,
			ConnectTimeout: DefaultConnectTimeout,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	db := &cfg.Database
	for name, dst := range map[string]*string{
		"TABULA_DB_HOST":     &db.Host,
		"TABULA_DB_NAME":     &db.DBName,
		"TABULA_DB_USER":     &db.Username,
		"TABULA_DB_PASSWORD": &db.Password,
		"TABULA_DB_SOCKET":   &db.Socket,
		"TABULA_DB_CHARSET":  &db.Charset,
		"TABULA_DB_DIALECT":  &db.Dialect,
		"TABULA_DB_SSLMODE":  &db.SSLMode,
		"TABULA_LOG_LEVEL":   &cfg.Logging.Level,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("TABULA_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &tabula.InvalidConfigurationError{Key: "port", Reason: fmt.Sprintf("%q is not a number", v)}
		}
		db.Port = port
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return c.Database.Validate()
}

// WithDefaults returns a copy of d with empty optional settings filled in.
func (d Database) WithDefaults() Database {
	if d.Dialect == "" {
		d.Dialect = DefaultDialect
	}
	if d.Charset == "" {
		d.Charset = DefaultCharset
	}
	if d.ConnectTimeout <= 0 {
		d.ConnectTimeout = DefaultConnectTimeout
	}
	return d
}

// Validate reports the first missing or invalid setting as a
// *tabula.InvalidConfigurationError. Required keys are checked in the order
// host, dbname, username, password, port; sqlite only needs dbname.
func (d Database) Validate() error {
	d = d.WithDefaults()
	if !dialect.Supported(d.Dialect) {
		return &tabula.InvalidConfigurationError{Key: "dialect", Reason: fmt.Sprintf("%q is not supported", d.Dialect)}
	}
	if d.Dialect == dialect.SQLite {
		if d.DBName == "" {
			return tabula.NewInvalidConfigurationError("dbname")
		}
		return nil
	}
	required := []struct {
		key string
		set bool
	}{
		{"host", d.Host != ""},
		{"dbname", d.DBName != ""},
		{"username", d.Username != ""},
		{"password", d.Password != ""},
		{"port", d.Port != 0},
	}
	for _, r := range required {
		if !r.set {
			return tabula.NewInvalidConfigurationError(r.key)
		}
	}
	if d.Port < 1 || d.Port > 65535 {
		return &tabula.InvalidConfigurationError{Key: "port", Reason: "must be between 1 and 65535"}
	}
	return nil
}

// Addr returns the socket path when set, host:port otherwise.
func (d Database) Addr() string {
	if d.Socket != "" {
		return d.Socket
	}
	if d.Host == "" {
		return ""
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}
