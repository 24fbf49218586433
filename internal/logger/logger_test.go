package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "json", &buf)
	log.Debug().Str("source", "pets.txt").Msg("document ingested")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "pets.txt", line["source"])
	assert.Equal(t, "document ingested", line["message"])
	assert.Contains(t, line, "time")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "json", &buf)
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, New("loud", "json", &bytes.Buffer{}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("", "json", &bytes.Buffer{}).GetLevel())
	assert.Equal(t, zerolog.ErrorLevel, New("ERROR", "json", &bytes.Buffer{}).GetLevel())
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "console", &buf)
	log.Info().Msg("ready")
	assert.Contains(t, buf.String(), "ready")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
