// Package logging builds the service's zerolog loggers and holds the field
// name conventions shared across components.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a type alias for zerolog.Logger. We use zerolog directly instead
// of wrapping it with abstractions.
type Logger = zerolog.Logger

// Standard field names used across the relay.
const (
	FieldComponent = "component"
	FieldCaller    = "caller_key"
	FieldSignature = "tx_signature"
	FieldMint      = "mint"
	FieldReason    = "reason"
	FieldState     = "state"
	FieldDuration  = "duration"
	FieldRemote    = "remote_addr"
)

// Config contains logging configuration options.
type Config struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is the log format: "json" or "text".
	Format string `yaml:"format"`
}

// New creates a logger from configuration. Text format uses the human
// readable console writer, everything else emits JSON to stderr.
func New(cfg Config) Logger {
	var output io.Writer = os.Stderr
	if strings.ToLower(cfg.Format) == "text" {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	return zerolog.New(output).
		Level(parseLevel(cfg.Level)).
		With().Timestamp().
		Logger()
}

// WithComponent returns a child logger with the component field set.
func WithComponent(logger Logger, component string) Logger {
	return logger.With().Str(FieldComponent, component).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
