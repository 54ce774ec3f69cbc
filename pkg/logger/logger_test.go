package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("Should write structured text output", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf})
		log.Info("engine started", "steps", 3)
		assert.Contains(t, buf.String(), "engine started")
		assert.Contains(t, buf.String(), "steps=3")
	})
	t.Run("Should suppress messages below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: WarnLevel, Output: &buf})
		log.Info("hidden")
		log.Warn("visible")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "visible")
	})
	t.Run("Should emit JSON when configured", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})
		log.Info("step completed", "step", "scan")
		line := strings.TrimSpace(buf.String())
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		assert.Equal(t, "step completed", record["msg"])
		assert.Equal(t, "scan", record["step"])
	})
	t.Run("Should carry With fields into every message", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf}).With("workflow", "assess")
		log.Info("first")
		assert.Contains(t, buf.String(), "workflow=assess")
	})
	t.Run("Should fall back to defaults for a nil config", func(t *testing.T) {
		assert.NotNil(t, NewLogger(nil))
	})
}

func TestLogLevel(t *testing.T) {
	t.Run("Should map unknown levels to info", func(t *testing.T) {
		assert.Equal(t, InfoLevel.toCharmlogLevel(), LogLevel("mystery").toCharmlogLevel())
	})
}

func TestFromContext(t *testing.T) {
	t.Run("Should round-trip a logger through context", func(t *testing.T) {
		nop := Nop()
		ctx := ContextWithLogger(context.Background(), nop)
		assert.Same(t, nop, FromContext(ctx))
	})
	t.Run("Should fall back to the default logger", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
		assert.NotNil(t, FromContext(nil)) //nolint:staticcheck
	})
}
