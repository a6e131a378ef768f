package orm

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewConsoleLogger returns a human-readable logger on stderr at level,
// suitable for WithLogger.
func NewConsoleLogger(level zerolog.Level) zerolog.Logger {
	return newConsoleLogger(os.Stderr, level)
}

func newConsoleLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).
		Level(level).
		With().
		Timestamp().
		Str("component", "restorm").
		Logger()
}
