// Package logging configures the process-wide slog default.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Setup installs the default logger: a colorized human-readable handler
// when stdout is a terminal, JSON otherwise.
func Setup() {
	var handler slog.Handler
	if term.IsTerminal(int(os.Stdout.Fd())) {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			TimeFormat: time.TimeOnly,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
