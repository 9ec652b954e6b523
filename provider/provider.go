// Package provider resolves the connection handle of a table.
//
// A Provider returns its own handle when it has one. Otherwise it falls
// back to a Shared default: the default handle when set, or a handle built
// once from the default configuration.
//
//	cfg, err := config.Load("configs/tabula.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider.SetDefaultConfig(cfg.Database)
//
//	users, err := tabula.NewTable(provider.New(), users.Schema)
package provider

import (
	"context"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
)

// Provider is a tabula.Connector.
type Provider struct {
	conn   *sql.Driver
	shared *Shared
}

var _ tabula.Connector = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithConn sets the provider's own handle.
func WithConn(drv *sql.Driver) Option {
	return func(p *Provider) {
		p.conn = drv
	}
}

// WithShared sets the Shared consulted when the provider has no handle of
// its own. Defaults to Process().
func WithShared(s *Shared) Option {
	return func(p *Provider) {
		if s != nil {
			p.shared = s
		}
	}
}

// New returns a Provider.
func New(opts ...Option) *Provider {
	p := &Provider{shared: Process()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Conn returns the provider's own handle, else the shared default handle,
// else a handle built from the shared default configuration. Without any
// of them it returns tabula.ErrNoConnectionConfigured.
func (p *Provider) Conn(ctx context.Context) (*sql.Driver, error) {
	if p.conn != nil {
		return p.conn, nil
	}
	return p.shared.Resolve(ctx)
}
