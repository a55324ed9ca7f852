// Package applog wraps zap.Logger with the small set of helpers the
// scan engine needs, in the style of quantmind's internal/logging: a
// thin struct, a handful of field constructors re-exported from zap,
// and a no-op constructor for tests.
package applog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field constructors re-exported so callers don't need a direct zap
// import just to log a structured field.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Uint64   = zap.Uint64
	Bool     = zap.Bool
	Err      = zap.Error
	Duration = zap.Duration
)

// Field is an alias for zap.Field.
type Field = zap.Field

// Logger is the application's structured logger.
type Logger struct {
	z *zap.Logger
}

// New builds a console-only logger at the given level ("debug", "info",
// "warn", "error"); photodupe is a library-first tool so there is no
// mandatory log file the way quantmind-br-gendocs writes one — callers
// that want a file sink can build their own zapcore.Core and use Wrap.
func New(level string) *Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder := zapcore.NewConsoleEncoder(cfg)
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), levelFromString(level))
	return &Logger{z: zap.New(core)}
}

// Wrap adapts an existing *zap.Logger.
func Wrap(z *zap.Logger) *Logger { return &Logger{z: z} }

// Nop returns a logger that discards everything, for tests.
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

func levelFromString(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields ...Field) *Logger { return &Logger{z: l.z.With(fields...)} }

// Sync flushes any buffered entries.
func (l *Logger) Sync() error { return l.z.Sync() }
