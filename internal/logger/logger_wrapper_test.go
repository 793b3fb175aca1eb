package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/midirx/sdk/contracts"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLoggerWithCore(core, zap.WithFatalHook(zapcore.WriteThenPanic)), logs
}

func TestFieldsAreNativeZapFields(t *testing.T) {
	log, logs := newObserved(t)

	log.Info("Opened input device",
		log.Field().String("device", "Launchkey"),
		log.Field().Uint8("channel", 3),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "Launchkey", ctx["device"])
	require.EqualValues(t, 3, ctx["channel"])
	require.Equal(t, "boom", ctx["error"])
}

func TestLevelFiltering(t *testing.T) {
	log, logs := newObserved(t)
	log.SetLevel(contracts.WarnLevel)

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept too")

	require.Equal(t, 2, logs.Len())
	require.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestNamedLoggerSharesLevel(t *testing.T) {
	log, logs := newObserved(t)
	child := log.Named("device").Named("manager")

	log.SetLevel(contracts.ErrorLevel)
	child.Info("dropped")
	child.Error("kept")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "device.manager", entries[0].LoggerName)
}

func TestCallerPointsAtCallSite(t *testing.T) {
	log, logs := newObserved(t)
	log.Info("where")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.True(t, entries[0].Caller.Defined)
	require.Equal(t, "logger_wrapper_test.go", filepath.Base(entries[0].Caller.File))
}

func TestFatalRunsHook(t *testing.T) {
	log, logs := newObserved(t)

	require.Panics(t, func() { log.Fatal("teardown failed") })
	require.Equal(t, 1, logs.FilterMessage("teardown failed").Len())
}

func TestSetDestinationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "midirx.log")
	log := NewZapLogger().(*ZapLogger)

	log.SetDestination(contracts.FileLog, path)
	log.Info("to file", log.Field().Int("devices", 2))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"to file"`)
	require.Contains(t, string(data), `"devices":2`)
}
