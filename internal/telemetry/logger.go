package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type LogOptions struct {
	// Level is the minimum level written.
	Level zerolog.Level

	// Format is "json" or "console".
	Format string

	// Output defaults to os.Stdout.
	Output io.Writer
}

// NewLogger builds the process logger. Request loggers are derived from it
// and carried on the request context.
func NewLogger(opts LogOptions) zerolog.Logger {
	var w io.Writer = os.Stdout
	if opts.Output != nil {
		w = opts.Output
	}
	if opts.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(opts.Level).With().Timestamp().Logger()
}
