// Package logging provides structured logging configuration and utilities.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level  string
	Pretty bool
	// Output defaults to stderr so stdout stays reserved for parse results.
	Output io.Writer
}

// NewLogger builds a logger for cfg. Unknown levels fall back to info.
func NewLogger(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var output io.Writer = out
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// SetupLogger configures the global zerolog logger and returns it.
func SetupLogger(cfg Config) zerolog.Logger {
	logger := NewLogger(cfg)
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name onto zerolog, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	if name == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
