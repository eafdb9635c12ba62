package log

import (
	"io"
	"log/slog"
	"maps"
	"slices"
)

// Log output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New creates a logger writing to w in the given format ("text" or "json";
// anything else falls back to text). The level is Info, or Debug when
// verbose is set. Output is masked by SecureHandler.
func New(w io.Writer, format string, verbose bool) *slog.Logger {
	if format == FormatJSON {
		return NewSecureJSONLogger(w, verbose)
	}
	return NewSecureLogger(w, verbose)
}

// NewSecureLogger creates a text logger with secure handling.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a JSON logger with secure handling.
// Useful for structured log aggregation when running the scheduler as a service.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

// Headers returns a "headers" group attribute with one entry per header,
// sorted by name, so that each header is masked on its own.
func Headers(headers map[string]string) slog.Attr {
	attrs := make([]any, 0, len(headers))
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		attrs = append(attrs, slog.String(name, headers[name]))
	}
	return slog.Group(headersGroup, attrs...)
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
