package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const defaultSlowThreshold = 100 * time.Millisecond

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, params map[string]any, duration time.Duration)

// WithStats enables statistics collection into s.
//
// Example:
//
//	stats := &sql.QueryStats{}
//	drv, _ := sql.Open(dialect.MySQL, dsn, sql.WithStats(stats))
//	// Later:
//	fmt.Println(stats.Stats())
func WithStats(s *QueryStats) Option {
	return func(d *Driver) {
		d.stats = s
	}
}

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(threshold time.Duration) Option {
	return func(d *Driver) {
		d.slowThreshold = threshold
	}
}

// WithSlowQueryHook sets a callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) Option {
	return func(d *Driver) {
		d.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the default logger.
func WithSlowQueryLog() Option {
	return WithSlowQueryHook(func(_ context.Context, query string, _ map[string]any, duration time.Duration) {
		slog.Warn("slow query detected", "duration", duration, "query", query)
	})
}

func (d *Driver) record(ctx context.Context, query string, params map[string]any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if s := d.stats; s != nil {
		if isQuery {
			s.TotalQueries.Add(1)
		} else {
			s.TotalExecs.Add(1)
		}
		s.TotalDuration.Add(int64(duration))
		if err != nil {
			s.Errors.Add(1)
		}
	}
	if duration > d.slowThreshold {
		if d.stats != nil {
			d.stats.SlowQueries.Add(1)
		}
		if d.slowHook != nil {
			d.slowHook(ctx, query, params, duration)
		}
	}
}
