package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":      FormatAuto,
		"auto":  FormatAuto,
		"Text":  FormatText,
		"tint":  FormatText,
		"human": FormatText,
		"JSON":  FormatJSON,
		"xml":   FormatAuto,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseFormat(in), in)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	// A buffer is never a TTY, so auto falls back to JSON.
	log := slog.New(NewHandler(&buf, FormatAuto, slog.LevelInfo))
	log.Debug("hidden")
	log.Info("clip inserted", "id", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "clip inserted", rec["msg"])
	assert.EqualValues(t, 7, rec["id"])
}

func TestNewHandlerText(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, FormatText, slog.LevelDebug))
	log.Debug("clip evicted", "id", 3)
	assert.Contains(t, buf.String(), "clip evicted")
}
