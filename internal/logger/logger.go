// Package logger provides a configured zerolog instance.
package logger

import (
	"os"

	"github.com/ilindan-dev/mail-dispatcher/internal/config"
	"github.com/rs/zerolog"
)

// NewLogger creates a new configured instance of zerolog.Logger.
// It reads the log level from the config and adds default fields like service name and caller.
func NewLogger(cfg *config.Config) (*zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil || cfg.Logger.Level == "" {
		// Default to info level if config is invalid or missing
		level = zerolog.InfoLevel
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}

	logger := zerolog.New(consoleWriter).With().
		Timestamp().
		Str("service", "mail-dispatcher").
		Str("environment", cfg.Transport.Environment).
		Caller().
		Logger().
		Level(level)

	return &logger, nil
}
