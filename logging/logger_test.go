package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/config"
	"github.com/syssam/tabula/dialect/sql"
)

func TestNew(t *testing.T) {
	assert.NotNil(t, New(config.Logging{Level: "info", Format: "json", Output: "stdout"}))
	assert.NotNil(t, New(config.Logging{Level: "debug", Format: "text", Output: "stderr"}))
	assert.NotNil(t, Default())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(config.Logging{Level: "info", Format: "json"}, &buf)

	l.Debug("hidden")
	l.Info("connected", "dialect", "mysql")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "connected", entry["msg"])
	assert.Equal(t, "tabula", entry["component"])
	assert.Equal(t, "mysql", entry["dialect"])
}

func TestStatementLog(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(config.Logging{Level: "debug", Format: "text"}, &buf)
	log := StatementLog(l)

	log("query: SELECT 1 params: map[]", sql.TitleSQL)
	log("no such table: users", sql.TitleError)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "title=sql")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `msg="no such table: users"`)
	assert.Contains(t, out, "subsystem=sql")
}
