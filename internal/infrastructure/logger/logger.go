package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/config"
)

// New creates a zerolog.Logger configured for the service.
func New(cfg *config.Config) (zerolog.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter builds the service logger on top of out.
func NewWithWriter(cfg *config.Config, out io.Writer) (zerolog.Logger, error) {
	level := parseLevel(cfg.LogLevel)

	var writer io.Writer
	switch strings.ToLower(cfg.LogFormat) {
	case "", "console":
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	case "json":
		writer = out
	default:
		return zerolog.Logger{}, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return zerolog.New(writer).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(level), nil
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
