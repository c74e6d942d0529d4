package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// NewLogger builds a structured logger writing to w. Format is "json" or
// "text"; level is one of debug, info, warn, error. Sensitive attribute
// values (api keys, tokens, raw prompts) are redacted before output.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(&redactHandler{inner: handler})
}

// ParseLevel maps a configuration level string to a slog.Level.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTrace returns a logger that carries the trace and span ids of the
// span in ctx, so log lines can be joined with exported spans. When ctx
// holds no recording span the logger is returned unchanged.
func WithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

// sensitiveKeys are attribute names whose values never reach log output.
// Keys are compared case-insensitively with underscores stripped.
var sensitiveKeys = map[string]bool{
	"apikey":     true,
	"secret":     true,
	"secretkey":  true,
	"password":   true,
	"token":      true,
	"credential": true,
	"prompt":     true,
	"prompts":    true,
}

const redactedValue = "[REDACTED]"

// redactHandler wraps a slog.Handler and replaces sensitive attribute
// values with a fixed marker.
type redactHandler struct {
	inner slog.Handler
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(redactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = redactAttr(attr)
	}
	return &redactHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(attr slog.Attr) slog.Attr {
	normalized := strings.ToLower(strings.ReplaceAll(attr.Key, "_", ""))
	if sensitiveKeys[normalized] {
		return slog.String(attr.Key, redactedValue)
	}
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		redacted := make([]any, 0, len(group))
		for _, member := range group {
			redacted = append(redacted, redactAttr(member))
		}
		return slog.Group(attr.Key, redacted...)
	}
	return attr
}
