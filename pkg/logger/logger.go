package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewWithLevel builds a tint-colored slog handler at level and installs it
// as the process-wide default logger, so the package-level slog.Debug/Info/
// Warn/Error calls used throughout this codebase pick it up.
func NewWithLevel(level slog.Level) {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Color error attributes (both key and value) in red (color code 9)
			if a.Key == "error" {
				return tint.Attr(9, a)
			}
			// Check if the value is an error type
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))
}
