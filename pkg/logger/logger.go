package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const (
	LevelCritical = slog.Level(12)

	redacted = "[REDACTED]"
)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	// BusinessError logs an expected domain rejection at warn level.
	BusinessError(message string, err error, args ...any)
	// InternalError logs an unexpected failure at error level.
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
	// WithContext adds trace_id and span_id when ctx carries a span context.
	WithContext(ctx context.Context) Logger
}

type Options struct {
	Level   string
	Format  string
	Env     string
	Service string
}

var levelNames = map[string]slog.Level{
	"debug":    slog.LevelDebug,
	"info":     slog.LevelInfo,
	"warn":     slog.LevelWarn,
	"warning":  slog.LevelWarn,
	"error":    slog.LevelError,
	"critical": LevelCritical,
	"fatal":    LevelCritical,
}

// Attribute keys whose values never reach the output.
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"confirm_password": {},
	"password_hash":    {},
	"token":            {},
	"authorization":    {},
}

type structured struct {
	base *slog.Logger
}

func NewFromEnv() Logger {
	return NewWithOptions(os.Stdout, Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Env:     os.Getenv("ENV"),
		Service: os.Getenv("OTEL_SERVICE_NAME"),
	})
}

func NewWithOptions(output io.Writer, opts Options) Logger {
	log := New(output, parseLevel(opts.Level, normalize(opts.Env)), parseFormat(opts.Format))
	if service := strings.TrimSpace(opts.Service); service != "" {
		log = log.With("service", service)
	}
	return log
}

func New(output io.Writer, level slog.Level, format string) Logger {
	options := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	if normalize(format) == "json" {
		handler = slog.NewJSONHandler(output, options)
	} else {
		handler = slog.NewTextHandler(output, options)
	}
	return &structured{base: slog.New(handler)}
}

func (l *structured) Debug(message string, args ...any) { l.base.Debug(message, args...) }

func (l *structured) Info(message string, args ...any) { l.base.Info(message, args...) }

func (l *structured) Warn(message string, args ...any) { l.base.Warn(message, args...) }

func (l *structured) Error(message string, args ...any) { l.base.Error(message, args...) }

func (l *structured) Critical(message string, args ...any) {
	l.base.Log(context.Background(), LevelCritical, message, args...)
}

func (l *structured) BusinessError(message string, err error, args ...any) {
	l.logError(slog.LevelWarn, message, err, args)
}

func (l *structured) InternalError(message string, err error, args ...any) {
	l.logError(slog.LevelError, message, err, args)
}

func (l *structured) logError(level slog.Level, message string, err error, args []any) {
	if err == nil {
		return
	}
	l.base.Log(context.Background(), level, message, append([]any{"err", err}, args...)...)
}

func (l *structured) With(args ...any) Logger {
	return &structured{base: l.base.With(args...)}
}

func (l *structured) WithContext(ctx context.Context) Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.With("trace_id", spanCtx.TraceID().String(), "span_id", spanCtx.SpanID().String())
}

// parseLevel falls back to debug in development and info elsewhere.
func parseLevel(value string, env string) slog.Level {
	if level, ok := levelNames[normalize(value)]; ok {
		return level
	}
	if env == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func parseFormat(value string) string {
	if format := normalize(value); format == "text" {
		return format
	}
	return "json"
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func replaceAttr(_ []string, attr slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(attr.Key)]; ok {
		return slog.String(attr.Key, redacted)
	}
	if attr.Key != slog.LevelKey {
		return attr
	}
	if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelCritical {
		attr.Value = slog.StringValue("CRITICAL")
	}
	return attr
}
