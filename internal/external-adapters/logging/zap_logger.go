// Package logging adapts go.uber.org/zap to the domain Logger contract.
package logging

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ochairo/fwbuild/internal/domain/interfaces"
)

// Config selects the logger's verbosity and format
type Config struct {
	Verbose bool
	JSON    bool
	// RunID tags every entry; a random one is generated when empty
	RunID string
}

// ZapLogger implements interfaces.Logger on top of a zap.Logger
type ZapLogger struct {
	z     *zap.Logger
	runID string
}

// New builds a production zap logger writing to stderr. Verbose enables debug output.
func New(cfg Config) (*ZapLogger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if !cfg.JSON {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = !cfg.Verbose

	z, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return NewWithZap(z, cfg.RunID), nil
}

// NewWithZap wraps an existing zap logger
func NewWithZap(z *zap.Logger, runID string) *ZapLogger {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &ZapLogger{z: z.With(zap.String("run_id", runID)), runID: runID}
}

var _ interfaces.Logger = (*ZapLogger)(nil)

// RunID returns the identifier attached to every entry
func (l *ZapLogger) RunID() string {
	return l.runID
}

func (l *ZapLogger) Debug(msg string, fields ...interfaces.Field) {
	l.z.Debug(msg, toZap(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...interfaces.Field) {
	l.z.Info(msg, toZap(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...interfaces.Field) {
	l.z.Warn(msg, toZap(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...interfaces.Field) {
	l.z.Error(msg, toZap(fields)...)
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}

func toZap(fields []interfaces.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
