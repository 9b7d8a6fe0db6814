package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ochairo/fwbuild/internal/domain/interfaces"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithZap(zap.New(core), "run-123")

	l.Info("Toolchain resolved", interfaces.F("tag", "GCC5"), interfaces.F("ambiguous", false))
	l.Error("Build failed", interfaces.F("error", errors.New("exit 2")))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "Toolchain resolved", entries[0].Message)
	assert.Equal(t, "run-123", first["run_id"])
	assert.Equal(t, "GCC5", first["tag"])
	assert.Equal(t, false, first["ambiguous"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "exit 2", entries[1].ContextMap()["error"])
}

func TestZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewWithZap(zap.New(core), "")

	l.Debug("hidden")
	l.Info("shown")
	l.Warn("warned")

	assert.Equal(t, 2, logs.Len())
	assert.Len(t, l.RunID(), 36, "generated run id is a uuid")
}

func TestNew(t *testing.T) {
	l, err := New(Config{Verbose: true, RunID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", l.RunID())
	_ = l.Sync()
}
