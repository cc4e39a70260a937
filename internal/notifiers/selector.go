package notifiers

import (
	"strings"

	"github.com/ilindan-dev/mail-dispatcher/internal/config"
	"github.com/rs/zerolog"
)

// captureEnvironments are the environments that never talk to a real relay.
var captureEnvironments = map[string]bool{
	"test":        true,
	"testing":     true,
	"development": true,
	"dev":         true,
	"local":       true,
}

// IsCaptureEnvironment reports whether env selects the capture transport.
func IsCaptureEnvironment(env string) bool {
	return captureEnvironments[strings.ToLower(strings.TrimSpace(env))]
}

// SelectTransport builds the single process-wide transport.
// Capture environments get a CaptureTransport; every other environment gets an
// SMTPTransport, and a broken SMTP configuration fails here rather than per message.
func SelectTransport(cfg config.TransportConfig, logger *zerolog.Logger) (Transport, error) {
	log := logger.With().Str("component", "transport_selector").Logger()

	if IsCaptureEnvironment(cfg.Environment) {
		log.Info().Str("environment", cfg.Environment).Msg("capture transport enabled")
		return NewCaptureTransport(cfg.SMTP.From, logger), nil
	}

	t, err := NewSMTPTransport(cfg.SMTP, logger)
	if err != nil {
		log.Error().Err(err).Str("environment", cfg.Environment).Msg("cannot build smtp transport")
		return nil, err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("host", cfg.SMTP.Host).
		Int("port", cfg.SMTP.Port).
		Bool("auth", cfg.SMTP.User != "").
		Msg("smtp transport enabled")
	return t, nil
}
