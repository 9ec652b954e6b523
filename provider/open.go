package provider

import (
	"context"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/config"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
)

// OpenFunc builds a connection handle from a configuration.
type OpenFunc func(ctx context.Context, cfg config.Database, opts ...sql.Option) (*sql.Driver, error)

// Open validates cfg, opens a handle and verifies it with a ping bounded by
// cfg.ConnectTimeout.
//
// A configuration error is returned as *tabula.InvalidConfigurationError
// before any network attempt. A failed handshake is returned as
// *tabula.ConnectionFailedError; it is not retried.
func Open(ctx context.Context, cfg config.Database, opts ...sql.Option) (*sql.Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	name := dialect.Normalize(cfg.Dialect)
	addr := cfg.Addr()
	if name == dialect.SQLite {
		addr = cfg.DBName
	}
	if cfg.MaxOpenConns > 0 {
		opts = append(opts, sql.WithMaxOpenConns(cfg.MaxOpenConns))
	}
	drv, err := sql.Open(name, dsn, opts...)
	if err != nil {
		return nil, &tabula.ConnectionFailedError{Dialect: name, Addr: addr, Err: err}
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := drv.Ping(pctx); err != nil {
		drv.Close() //nolint:errcheck // the ping error is the one worth reporting
		return nil, &tabula.ConnectionFailedError{Dialect: name, Addr: addr, Err: err}
	}
	return drv, nil
}
