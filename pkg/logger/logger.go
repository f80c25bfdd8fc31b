package logger

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// New constructs a JSON slog logger with a secret-sanitizing handler.
func New() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	inner := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(&sanitizingHandler{inner: inner}).With("service", "rag")
}

func parseLevel(level string) slog.Leveler {
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

var secretHeaderNames = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
	"apikey":        true,
	"api_key":       true,
}

// bearerPattern catches "Bearer <token>" and raw API-key-shaped substrings
// (prefix followed by 16+ opaque characters) wherever they appear in a value.
var bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._\-]{8,}`)
var apiKeyPattern = regexp.MustCompile(`\b([A-Za-z]{2,8}_)[A-Za-z0-9]{16,}\b`)

// Sanitize redacts secret-shaped content from a log value. The handler
// applies it to each record's message and to the string-valued attributes
// passed with that record; attributes of other kinds (errors included),
// attributes nested in groups, and attributes attached through With are
// passed on unsanitized.
func Sanitize(key, value string) string {
	if secretHeaderNames[strings.ToLower(key)] {
		return maskValue(value)
	}
	v := bearerPattern.ReplaceAllString(value, "${1}***")
	v = apiKeyPattern.ReplaceAllString(v, "${1}***")
	return v
}

func maskValue(v string) string {
	if len(v) <= 6 {
		return "***"
	}
	return v[:3] + "...***"
}

// sanitizingHandler wraps a slog.Handler and redacts attribute values that
// look like secrets before delegating to the wrapped handler.
type sanitizingHandler struct {
	inner slog.Handler
}

func (h *sanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *sanitizingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.Message = Sanitize("message", record.Message)
	sanitized := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		if a.Value.Kind() == slog.KindString {
			a.Value = slog.StringValue(Sanitize(a.Key, a.Value.String()))
		}
		sanitized.AddAttrs(a)
		return true
	})
	return h.inner.Handle(ctx, sanitized)
}

func (h *sanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sanitizingHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *sanitizingHandler) WithGroup(name string) slog.Handler {
	return &sanitizingHandler{inner: h.inner.WithGroup(name)}
}
