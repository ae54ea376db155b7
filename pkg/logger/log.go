// Package logger wraps go.uber.org/zap for every component outside the
// hot path. internal/book and internal/arena never import this package —
// see §7 — diagnostics from those packages are returned as typed errors
// and logged here by their caller.
package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cedrichaddad/flash-lob/pkg/errors"
)

// Logger wraps zap.Logger to provide structured logging.
type Logger struct {
	logger *zap.Logger
}

// Field holds a key-value pair to be written to a log entry.
type Field struct {
	Key   string
	Value any
}

// NewField returns a Field with the given key and value.
func NewField(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Level represents the severity level of a log entry.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"

	messageKey = "message"
)

func (level Level) zapLevel() zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Options configures a Logger built by New.
type Options struct {
	level       Level
	outputPaths []string
}

// WithLoggingLevel sets the minimum level that will be logged. Defaults to
// info.
func WithLoggingLevel(level Level) Options {
	return Options{level: level}
}

// WithOutputPaths sets the zap output paths ("stdout"/"stderr" or a file
// path).
func WithOutputPaths(paths []string) Options {
	return Options{outputPaths: paths}
}

// New builds a Logger from the given options.
func New(opts ...Options) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	for _, opt := range opts {
		if opt.level != "" {
			cfg.Level = zap.NewAtomicLevelAt(opt.level.zapLevel())
		}
		if opt.outputPaths != nil {
			cfg.OutputPaths = opt.outputPaths
		}
	}
	cfg.EncoderConfig.MessageKey = messageKey

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{logger: zl}, nil
}

// GetZap returns the underlying zap.Logger, for callers that need direct
// access (e.g. promhttp error handlers).
func (l *Logger) GetZap() *zap.Logger {
	return l.logger
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

// Info writes a log entry at info severity.
func (l *Logger) Info(message string, fields ...Field) {
	l.logger.Info(message, convertFields(fields...)...)
}

// InfoContext writes a log entry at info severity, context reserved for
// future request-scoped fields.
func (l *Logger) InfoContext(_ context.Context, message string, fields ...Field) {
	l.Info(message, fields...)
}

// Warn writes a log entry at warn severity.
func (l *Logger) Warn(message string, fields ...Field) {
	l.logger.Warn(message, convertFields(fields...)...)
}

// WarnContext writes a log entry at warn severity.
func (l *Logger) WarnContext(_ context.Context, message string, fields ...Field) {
	l.Warn(message, fields...)
}

// Debug writes a log entry at debug severity.
func (l *Logger) Debug(message string, fields ...Field) {
	l.logger.Debug(message, convertFields(fields...)...)
}

// DebugContext writes a log entry at debug severity.
func (l *Logger) DebugContext(_ context.Context, message string, fields ...Field) {
	l.Debug(message, fields...)
}

// Error writes a log entry at error severity, attaching a stack trace if
// err carries one (see pkg/errors.StackTracer).
func (l *Logger) Error(err error, fields ...Field) {
	zapFields := convertFields(fields...)
	stacktrace := ""
	if tracer, ok := err.(errors.StackTracer); ok {
		stacktrace = strings.TrimSpace(fmt.Sprintf("%+v", tracer.StackTrace()))
	}

	if ce := l.logger.Check(zapcore.ErrorLevel, err.Error()); ce != nil {
		if stacktrace != "" {
			ce.Stack = stacktrace
		}
		ce.Write(zapFields...)
	}
}

// ErrorContext writes a log entry at error severity.
func (l *Logger) ErrorContext(_ context.Context, err error, fields ...Field) {
	l.Error(err, fields...)
}

// WithFields returns a child logger with additional fields attached to
// every subsequent entry.
func (l *Logger) WithFields(fields ...Field) *Logger {
	return &Logger{logger: l.logger.With(convertFields(fields...)...)}
}

func convertFields(fields ...Field) []zapcore.Field {
	zapFields := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
