package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpersWithoutInit(t *testing.T) {
	Set(nil)

	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warn("warn")
		Error("error")
		Sync()
	})
	assert.Nil(t, Log)
}

func TestHelpersWriteToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Info("search started", zap.String("provider", "default"))
	Warn("fetch failed")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "search started", entry.Message)
	assert.Equal(t, "default", entry.ContextMap()["provider"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zap.InfoLevel, parseLevel("bogus"))
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	require.NoError(t, Init("debug", "json"))
	assert.True(t, Log.Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("warn", "text"))
	assert.False(t, Log.Core().Enabled(zap.InfoLevel))
}
