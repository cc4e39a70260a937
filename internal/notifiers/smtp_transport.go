package notifiers

import (
	"context"
	"fmt"
	"sort"

	"github.com/ilindan-dev/mail-dispatcher/internal/config"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// SMTPTransportName is the transport name recorded in receipts.
const SMTPTransportName = "smtp"

// sender is the part of gomail.Dialer the transport uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPTransport sends messages through an SMTP relay.
// Every Deliver dials its own connection, so concurrent calls share nothing.
type SMTPTransport struct {
	dialer sender
	from   string
	logger zerolog.Logger
}

// NewSMTPTransport creates a new instance of SMTPTransport.
// gomail only authenticates when a username is set, so an empty User means an open relay.
func NewSMTPTransport(cfg config.SMTPConfig, logger *zerolog.Logger) (*SMTPTransport, error) {
	if err := validateSMTPConfig(cfg); err != nil {
		return nil, err
	}
	return newSMTPTransport(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass), cfg.From, logger), nil
}

func newSMTPTransport(d sender, from string, logger *zerolog.Logger) *SMTPTransport {
	return &SMTPTransport{
		dialer: d,
		from:   from,
		logger: logger.With().Str("component", "smtp_transport").Logger(),
	}
}

// Name implements the Transport interface.
func (t *SMTPTransport) Name() string { return SMTPTransportName }

// Deliver implements the Transport interface for SMTP.
func (t *SMTPTransport) Deliver(_ context.Context, to string, msg *model.RenderedMessage) (*model.DeliveryReceipt, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", t.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.SetHeader(k, msg.Headers[k])
	}

	m.SetBody("text/html", msg.Body)

	// DialAndSend opens a connection, sends the email, and closes it.
	if err := t.dialer.DialAndSend(m); err != nil {
		t.logger.Error().Err(err).Str("recipient", to).Msg("failed to send email")
		return nil, fmt.Errorf("%w: %w", ErrTransportDelivery, err)
	}

	t.logger.Info().Str("recipient", to).Str("subject", msg.Subject).Msg("email sent successfully")
	return model.NewDeliveryReceipt(to, msg, SMTPTransportName, model.StatusSent), nil
}

func validateSMTPConfig(cfg config.SMTPConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("%w: smtp.host is required", ErrTransportConfigInvalid)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: smtp.port %d is out of range", ErrTransportConfigInvalid, cfg.Port)
	}
	return nil
}
