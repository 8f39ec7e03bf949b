package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewLogger(&buf, "warn", "json"), "server")

	log.Info().Msg("hidden")
	log.Warn().Str("path", "/health").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "/health", entry["path"])
	assert.Equal(t, "shown", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "debug", "Console")

	log.Debug().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, NewLogger(&bytes.Buffer{}, "loud", "json").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger(&bytes.Buffer{}, "", "json").GetLevel())
	assert.Equal(t, zerolog.DebugLevel, NewLogger(&bytes.Buffer{}, "DEBUG", "json").GetLevel())
}
