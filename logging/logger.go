// Package logging builds the slog loggers used by tabula processes.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/syssam/tabula/config"
	"github.com/syssam/tabula/dialect/sql"
)

// New creates a logger for the configuration.
//
// Format "text" selects slog's text handler, anything else JSON. Output
// "stderr" writes to stderr, anything else to stdout. Every record carries
// component=tabula.
func New(cfg config.Logging) *slog.Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	return newLogger(cfg, output)
}

func newLogger(cfg config.Logging, output io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}
	handler = handler.WithAttrs([]slog.Attr{
		slog.String("component", "tabula"),
	})
	return slog.New(handler)
}

// parseLevel converts a level name to slog.Level. Unknown names mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns a JSON logger on stdout at info level, for use before
// configuration is loaded.
func Default() *slog.Logger {
	return New(config.Logging{Level: "info", Format: "json", Output: "stdout"})
}

// StatementLog returns the statement logging callback of a driver writing
// to l. Statements are logged at debug level and failures at error level.
func StatementLog(l *slog.Logger) sql.LogFunc {
	return sql.SlogLog(l.With("subsystem", "sql"))
}
