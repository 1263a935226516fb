// Package logger provides structured logging for outreach on top of zap.
// A process-wide logger is configured from OUTREACH_LOG_* variables and can be
// replaced with SetLogger; packages log through the convenience functions or
// through a contextual *Logger obtained from WithField/WithFields.
package logger

import (
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the logging level
type Level int

const (
	// DebugLevel logs everything
	DebugLevel Level = iota
	// InfoLevel logs info, warnings, and errors
	InfoLevel
	// ErrorLevel logs only errors
	ErrorLevel
)

// zapLevel maps a Level onto zap's levels
func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zap.DebugLevel
	case ErrorLevel:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Logger is a leveled, structured logger backed by zap
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

func init() {
	if l, err := New(ConfigFromEnv()); err == nil {
		globalLogger = l
	} else {
		globalLogger = NewNop()
	}
}

func wrap(z *zap.Logger) *Logger {
	return &Logger{zap: z, sugar: z.Sugar()}
}

// NewWithWriter creates a console logger that writes to w, mainly for tests
func NewWithWriter(w io.Writer, level Level) *Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level.zapLevel()),
	)
	return wrap(zap.New(core))
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return wrap(zap.NewNop())
}

// Zap exposes the underlying zap logger
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// WithField adds a single field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return wrap(l.zap.With(zap.Any(key, value)))
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return wrap(l.zap.With(zapFields...))
}

// WithError adds error context to the logger
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return wrap(l.zap.With(zap.Error(err)))
}

// WithDuration adds a duration field to the logger
func (l *Logger) WithDuration(duration time.Duration) *Logger {
	return wrap(l.zap.With(
		zap.Duration("duration", duration),
		zap.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	))
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	return l.zap.Core().Enabled(level.zapLevel())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) { l.zap.Debug(msg) }

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info logs an info message
func (l *Logger) Info(msg string) { l.zap.Info(msg) }

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(msg string) { l.zap.Warn(msg) }

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error logs an error message
func (l *Logger) Error(msg string) { l.zap.Error(msg) }

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Timed starts measuring an operation; call Done or DoneWithError on the result
func (l *Logger) Timed(operation string) *TimedLogger {
	l.zap.Debug("Operation started", zap.String("operation", operation))
	return &TimedLogger{logger: l, start: time.Now(), op: operation}
}

// TimedLogger tracks the duration of an operation
type TimedLogger struct {
	logger *Logger
	start  time.Time
	op     string
}

// Done logs the completion of the timed operation
func (t *TimedLogger) Done() {
	duration := time.Since(t.start)
	t.logger.zap.Debug("Operation completed",
		zap.String("operation", t.op),
		zap.Duration("duration", duration),
		zap.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	)
}

// DoneWithError logs the completion of the timed operation with an error
func (t *TimedLogger) DoneWithError(err error) {
	if err == nil {
		t.Done()
		return
	}
	duration := time.Since(t.start)
	t.logger.zap.Error("Operation failed",
		zap.String("operation", t.op),
		zap.Error(err),
		zap.Duration("duration", duration),
		zap.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	)
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalLogger
}

// SetLogger sets the global logger instance
func SetLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// LevelFromString converts a string to a log level
func LevelFromString(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}
