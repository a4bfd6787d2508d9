package hh

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger every package-level entry point
// (RecursiveSolver, the SLG engine, Fulfillment) reaches for instead
// of fmt.Printf, following a zap.Logger through exactly the way a
// CLI built on top of this package already would. A nil *Logger is
// valid and behaves as a no-op, so callers that never configure one
// pay nothing for the convenience.
type Logger struct {
	z *zap.Logger
}

// NewLogger builds a Logger around a production zap configuration,
// switched to debug level when debug is true.
func NewLogger(debug bool) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewNopLogger returns a Logger that discards everything, useful as a
// default when a caller never wires in its own.
func NewNopLogger() *Logger { return &Logger{z: zap.NewNop()} }

func (l *Logger) with() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z
}

// Sync flushes any buffered log entries; callers should defer it at
// the top of a query the way a CLI defers flushing its own logger.
func (l *Logger) Sync() error {
	if l == nil || l.z == nil {
		return nil
	}
	return l.z.Sync()
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.with().Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.with().Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.with().Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.with().Error(msg, fields...) }

// logClauseAttempt is the one call site wired into the recursive
// solver's hot loop: logged at debug level since a real search tries
// far more clauses than succeed.
func (l *Logger) logClauseAttempt(goalKey string, priority ClausePriority, fromEnv bool, ok bool) {
	l.Debug("clause attempt",
		zap.String("goal", goalKey),
		zap.Stringer("priority", priority),
		zap.Bool("from_env", fromEnv),
		zap.Bool("ok", ok),
	)
}
