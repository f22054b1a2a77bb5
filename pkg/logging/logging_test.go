package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		{"DEBUG", LevelDebug},
		{"WARNING", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},
		{" warn ", LevelWarn},

		{"", LevelInfo},
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFormat(tt.input))
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Debug("hidden")
	log.Info("server started", "port", 8000)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "server started", entry["msg"])
	assert.Equal(t, float64(8000), entry["port"])
}

func TestMultiHandler_FansOut(t *testing.T) {
	var text, js bytes.Buffer
	h := NewMultiHandler(
		NewHandler(Config{Level: LevelWarn, Format: FormatText, Output: &text}),
		NewHandler(Config{Level: LevelDebug, Format: FormatJSON, Output: &js}),
	)
	log := slog.New(h).With("component", "engine")

	assert.True(t, h.Enabled(context.Background(), LevelDebug))
	log.Debug("tick")
	log.Warn("slow sample")

	assert.NotContains(t, text.String(), "tick")
	assert.Contains(t, text.String(), "slow sample")
	assert.Contains(t, js.String(), `"msg":"tick"`)
	assert.Contains(t, js.String(), `"component":"engine"`)
}

func TestNop(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)
	log.Info("discarded")
}

func TestNewHandler_ZeroConfig(t *testing.T) {
	h := NewHandler(Config{})
	_, isText := h.(*slog.TextHandler)
	assert.True(t, isText)
	assert.True(t, h.Enabled(context.Background(), LevelInfo))
	assert.False(t, h.Enabled(context.Background(), LevelDebug))
}
