package sql

import (
	"context"
	"log/slog"
)

// Log titles used by the Driver.
const (
	// TitleSQL tags a statement template and its bound values.
	TitleSQL = "sql"
	// TitleError tags a statement failure.
	TitleError = "error"
)

// LogFunc receives every statement before execution and every statement
// failure. Bound values are passed through verbatim; loggers that must not
// persist secrets redact them.
type LogFunc func(message, title string)

// SlogLog returns a LogFunc writing to l. Failures are logged at error
// level, everything else at debug level.
func SlogLog(l *slog.Logger) LogFunc {
	return func(message, title string) {
		level := slog.LevelDebug
		if title == TitleError {
			level = slog.LevelError
		}
		l.Log(context.Background(), level, message, "title", title)
	}
}

// DefaultLog returns the fallback sink used when no LogFunc is configured.
func DefaultLog() LogFunc {
	return func(message, title string) {
		SlogLog(slog.Default())(message, title)
	}
}

// NopLog discards all messages.
func NopLog() LogFunc {
	return func(string, string) {}
}
