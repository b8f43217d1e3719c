package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/blossom-engine/internal/config"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	WithSession(log, "abc").Info("Session ended", "ending", "C")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Session ended", entry["msg"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "C", entry["ending"])
}

func TestNew_DevelopmentRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelWarn})

	log.Info("hidden")
	assert.Empty(t, buf.String())

	WithError(log, errors.New("boom")).Warn("Unknown ending, falling back to default")
	assert.Contains(t, buf.String(), "Unknown ending")
	assert.Contains(t, buf.String(), "boom")
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelDebug})

	WithRequestID(log, "req-1").Debug("handled")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
}
