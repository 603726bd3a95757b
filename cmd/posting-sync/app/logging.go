package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/posting-sync/internal/config"
)

const (
	logFormatJSON = "json"
	logFormatText = "text"
)

// ParseLogLevel accepts slog level names in any case, plus "warning".
// An empty string is info.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	switch s = strings.TrimSpace(s); strings.ToLower(s) {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// NewLogHandler builds the process log handler writing to w at LogLevel.
// Records logged with a span in their context carry trace_id and span_id.
func NewLogHandler(w io.Writer, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: LogLevel}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", logFormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case logFormatText:
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q, must be %s or %s", format, logFormatJSON, logFormatText)
	}
	return traceHandler{Handler: h}, nil
}

// ConfigureLogging installs the default logger from POSTING_SYNC_LOG_LEVEL
// and POSTING_SYNC_LOG_FORMAT. The unprefixed LOG_LEVEL is honoured as a
// fallback. Bad values are reported and replaced by the defaults.
func ConfigureLogging(w io.Writer) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	levelStr := v.GetString("log_level")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}
	level, levelErr := ParseLogLevel(levelStr)
	LogLevel.Set(level)

	handler, formatErr := NewLogHandler(w, v.GetString("log_format"))
	if formatErr != nil {
		handler, _ = NewLogHandler(w, logFormatJSON)
	}
	slog.SetDefault(slog.New(handler))

	for _, err := range []error{levelErr, formatErr} {
		if err != nil {
			slog.Warn("Ignoring logging setting", "error", err)
		}
	}
}

type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{Handler: h.Handler.WithGroup(name)}
}
