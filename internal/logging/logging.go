// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/salmonumbrella/apiform/internal/debug"
)

// Options selects the handler and level.
type Options struct {
	Debug bool
	JSON  bool
}

// New builds a logger writing to w (os.Stderr if nil). Attributes whose key
// looks like a credential (token, api_key, authorization...) are redacted.
func New(w io.Writer, opts Options) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString && debug.IsSensitiveHeader(a.Key) {
		a.Value = slog.StringValue(debug.Redact(a.Value.String()))
	}
	return a
}

// Setup configures the global slog logger with text output.
// If debug is true, sets level to Debug; otherwise Info.
func Setup(debug bool, w io.Writer) {
	slog.SetDefault(New(w, Options{Debug: debug}))
}

// SetupJSON configures the global slog logger with JSON output.
func SetupJSON(debug bool, w io.Writer) {
	slog.SetDefault(New(w, Options{Debug: debug, JSON: true}))
}
