package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBufferLogger builds a logger writing to buf, mirroring New's handler
// selection so level/format behavior can be asserted without capturing stdout.
func newBufferLogger(buf *bytes.Buffer, level, format string) *Logger {
	parsed := parseLevel(level)

	var handler slog.Handler
	switch format {
	case "console":
		handler = tint.NewHandler(buf, &tint.Options{
			Level:      parsed,
			TimeFormat: time.TimeOnly,
			NoColor:    true,
		})
	default:
		handler = slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: parsed})
	}

	return &Logger{Logger: slog.New(handler)}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, "debug", "json")

	log.Debug("test debug message", slog.String("key", "value"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "test debug message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Contains(t, entry, "time")
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLines int
	}{
		{name: "debug keeps everything", level: "debug", wantLines: 4},
		{name: "info drops debug", level: "info", wantLines: 3},
		{name: "warn drops info", level: "warn", wantLines: 2},
		{name: "error drops warn", level: "error", wantLines: 1},
		{name: "unknown level defaults to info", level: "verbose", wantLines: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newBufferLogger(&buf, tt.level, "json")

			log.Debug("debug message")
			log.Info("info message")
			log.Warn("warn message")
			log.Error("error message")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			assert.Len(t, lines, tt.wantLines)
		})
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, "info", "console")

	log.Info("scrape finished", slog.String("competitor", "ACME"))

	output := buf.String()
	assert.Contains(t, output, "scrape finished")
	assert.Contains(t, output, "competitor=ACME")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, "info", "json")

	child := log.With("competitor", "ACME")
	child.Info("run started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ACME", entry["competitor"])
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "json format",
			config: &Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "console format",
			config: &Config{Level: "debug", Format: "console", Output: "stderr"},
		},
		{
			name:   "empty config falls back to defaults",
			config: &Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			require.NoError(t, err)
			require.NotNil(t, log)
			require.NotNil(t, log.Logger)
		})
	}
}

func TestNewDefault(t *testing.T) {
	log := NewDefault()
	require.NotNil(t, log)
	assert.True(t, log.Enabled(nil, slog.LevelInfo))
	assert.False(t, log.Enabled(nil, slog.LevelDebug))
}
