package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Warn("provider failed", map[string]any{
		"provider": "relay",
		"error":    errors.New("boom"),
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "provider failed", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "relay", ctx["provider"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopLogger{}, OrNoop(nil))

	z := FromZap(zap.NewNop())
	assert.Same(t, z, OrNoop(z))
}
