package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Scrubber redacts sensitive substrings from a string value.
type Scrubber interface {
	Scrub(text string) string
}

// Option configures a Logger.
type Option func(*options)

type options struct {
	scrubber Scrubber
	sink     zapcore.WriteSyncer
}

// WithScrubber passes every string field on the stdout sink through s.
func WithScrubber(s Scrubber) Option {
	return func(o *options) {
		o.scrubber = s
	}
}

// Logger wraps zap with context-aware methods and a runtime-adjustable level.
type Logger struct {
	zap   *zap.Logger
	level zap.AtomicLevel
}

// NewLogger creates a logger from cfg. otelProvider may be nil, in which
// case the OTEL sink is skipped.
func NewLogger(cfg *Config, otelProvider log.LoggerProvider, opts ...Option) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := options{sink: zapcore.Lock(os.Stdout)}
	for _, opt := range opts {
		opt(&o)
	}

	level := zap.NewAtomicLevelAt(cfg.Level)
	core, err := newCore(cfg, level, otelProvider, o)
	if err != nil {
		return nil, err
	}

	zopts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		// Skip the Logger method frame.
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(2))
	}
	z := zap.New(core, zopts...)
	for k, v := range cfg.Fields {
		z = z.With(zap.String(k, v))
	}

	return &Logger{zap: z, level: level}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop(), level: zap.NewAtomicLevel()}
}

func (l *Logger) log(ctx context.Context, lvl zapcore.Level, msg string, fields []zap.Field) {
	ce := l.zap.Check(lvl, msg)
	if ce == nil {
		return
	}
	ce.Write(append(ContextFields(ctx), fields...)...)
}

func (l *Logger) Trace(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, TraceLevel, msg, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

// Named returns a child logger with name appended to the logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name), level: l.level}
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...), level: l.level}
}

// SetLevel changes the minimum level for this logger and all its children.
func (l *Logger) SetLevel(lvl zapcore.Level) {
	l.level.SetLevel(lvl)
}

// Enabled reports whether entries at lvl are written.
func (l *Logger) Enabled(lvl zapcore.Level) bool {
	return l.zap.Core().Enabled(lvl)
}

// Sync flushes buffered entries. EINVAL and ENOTTY from syncing a terminal
// or pipe are ignored.
func (l *Logger) Sync() error {
	err := l.zap.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// Underlying returns the zap logger for components that take *zap.Logger.
// It skips the context-aware wrapper, so no caller frame is added.
func (l *Logger) Underlying() *zap.Logger {
	return l.zap.WithOptions(zap.AddCallerSkip(-2))
}
