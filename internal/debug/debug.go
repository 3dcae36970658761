// Package debug carries the debug flag through contexts and configures the
// process logger.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const debugKey contextKey = "debug_enabled"

// WithDebug returns a context with debug mode enabled/disabled.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey, enabled)
}

// IsEnabled returns true if debug mode is enabled in the context.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(debugKey).(bool); ok {
		return v
	}
	return false
}

// Options configures the process logger.
type Options struct {
	Debug bool
	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// SetupLogger configures slog based on debug mode.
func SetupLogger(debugEnabled bool) {
	Configure(Options{Debug: debugEnabled})
}

// Configure installs the default slog logger. Attributes that look like
// credentials are masked.
func Configure(opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level, ReplaceAttr: redact}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

var sensitiveKeys = []string{"token", "authorization", "password", "secret"}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) && a.Value.Kind() == slog.KindString {
			return slog.String(a.Key, Mask(a.Value.String()))
		}
	}
	return a
}

// Mask hides all but the last four characters of a credential.
func Mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}
