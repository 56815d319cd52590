package logging

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf strings.Builder
		New("info", "json", &buf).Info("session finalized", "parts", 3)

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(buf.String()), &rec))
		assert.Equal(t, "session finalized", rec["msg"])
		assert.Equal(t, float64(3), rec["parts"])
	})

	t.Run("text filters below level", func(t *testing.T) {
		var buf strings.Builder
		logger := New("warn", "text", &buf)
		logger.Info("hidden")
		logger.Warn("resume fallback")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=\"resume fallback\"")
	})
}
