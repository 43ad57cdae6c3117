// Package logging provides the component-scoped structured logger used across
// the analyzer. It is a thin layer over zap that keeps the Fields/WithFields
// calling convention used by the rest of the code base.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured key/value pairs attached to a log entry.
type Fields map[string]any

// Logger is the logging contract handed to every component.
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

// Options controls logger construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

type zapLogger struct {
	base *zap.Logger
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = &zapLogger{base: zap.NewNop()}
)

// New builds a zap-backed Logger.
func New(opts Options) (Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &zapLogger{base: base}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(base *zap.Logger) Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &zapLogger{base: base}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &zapLogger{base: zap.NewNop()}
}

// SetDefault replaces the process-wide fallback logger.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the process-wide fallback logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithFields scopes the default logger.
func WithFields(fields Fields) Logger {
	return Default().WithFields(fields)
}

// OrDefault returns l, or the default logger when l is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.base.Debug(msg, toZap(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.base.Info(msg, toZap(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.base.Warn(msg, toZap(fields)...)
}

func (l *zapLogger) Error(err error, msg string, fields ...Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	l.base.Error(msg, zf...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{base: l.base.With(toZap([]Fields{fields})...)}
}

func toZap(fields []Fields) []zap.Field {
	n := 0
	for _, f := range fields {
		n += len(f)
	}
	if n == 0 {
		return nil
	}
	out := make([]zap.Field, 0, n)
	for _, f := range fields {
		for k, v := range f {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
