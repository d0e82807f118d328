package common

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("info", "json", &buf).Info().Str("user", "alice").Msg("Logged in")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "alice", entry["user"])
	assert.Equal(t, "Logged in", entry["message"])

	buf.Reset()
	NewLogger("info", "console", &buf).Info().Str("user", "alice").Msg("Logged in")
	assert.Contains(t, buf.String(), "Logged in")
	assert.Contains(t, buf.String(), "user=alice")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "json", &buf)
	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.WithComponent("session").Warn().Msg("shown")
	assert.Contains(t, buf.String(), `"component":"session"`)
}
