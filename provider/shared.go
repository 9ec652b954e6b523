package provider

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/config"
	"github.com/syssam/tabula/dialect/sql"
)

// Shared holds a default connection handle and the configuration it is
// built from. The handle is built at most once, on first use, and then
// kept until Close.
//
// Shared is safe for concurrent use.
type Shared struct {
	mu    sync.Mutex
	drv   *sql.Driver
	cfg   *config.Database
	open  OpenFunc
	opts  []sql.Option
	group singleflight.Group
}

// SharedOption configures a Shared.
type SharedOption func(*Shared)

// WithOpenFunc replaces the function building the default handle.
// Defaults to Open.
func WithOpenFunc(fn OpenFunc) SharedOption {
	return func(s *Shared) {
		if fn != nil {
			s.open = fn
		}
	}
}

// WithDriverOptions sets the options of the lazily built handle, e.g. its
// logging callback.
func WithDriverOptions(opts ...sql.Option) SharedOption {
	return func(s *Shared) {
		s.opts = append(s.opts, opts...)
	}
}

// NewShared returns an empty Shared.
func NewShared(opts ...SharedOption) *Shared {
	s := &Shared{open: Open}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDefault sets the default handle. It takes precedence over the
// default configuration.
func (s *Shared) SetDefault(drv *sql.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drv = drv
}

// SetDefaultConfig sets the configuration the default handle is built
// from when none is set. It does not replace a handle already built.
func (s *Shared) SetDefaultConfig(cfg config.Database) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = &cfg
}

// Default returns the default handle, or nil when it has not been set or
// built yet.
func (s *Shared) Default() *sql.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drv
}

// Resolve returns the default handle, building it from the default
// configuration on first use. Concurrent first callers share one build.
// A failed build is not remembered; the next call tries again.
func (s *Shared) Resolve(ctx context.Context) (*sql.Driver, error) {
	s.mu.Lock()
	drv, cfg := s.drv, s.cfg
	s.mu.Unlock()
	if drv != nil {
		return drv, nil
	}
	if cfg == nil {
		return nil, tabula.ErrNoConnectionConfigured
	}
	v, err, _ := s.group.Do("default", func() (any, error) {
		if drv := s.Default(); drv != nil {
			return drv, nil
		}
		built, err := s.open(ctx, *cfg, s.opts...)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.drv != nil {
			// SetDefault won the race.
			built.Close() //nolint:errcheck
			return s.drv, nil
		}
		s.drv = built
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.Driver), nil
}

// Close closes and forgets the default handle. A later Resolve builds a
// new one from the default configuration.
func (s *Shared) Close() error {
	s.mu.Lock()
	drv := s.drv
	s.drv = nil
	s.mu.Unlock()
	if drv == nil {
		return nil
	}
	return drv.Close()
}

var process = NewShared()

// Process returns the process-wide Shared used by providers created
// without WithShared.
func Process() *Shared { return process }

// SetDefault sets the process-wide default handle.
func SetDefault(drv *sql.Driver) { process.SetDefault(drv) }

// SetDefaultConfig sets the configuration the process-wide default handle
// is built from.
func SetDefaultConfig(cfg config.Database) { process.SetDefaultConfig(cfg) }
