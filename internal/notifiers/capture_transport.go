package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	"github.com/rs/zerolog"
)

// CaptureTransportName is the transport name recorded in receipts.
const CaptureTransportName = "capture"

// CapturedMessage is a message recorded by the CaptureTransport.
type CapturedMessage struct {
	From    string
	To      string
	Message model.RenderedMessage
}

// envelope is the JSON form of a captured message.
type envelope struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html"`
	Headers map[string]string `json:"headers"`
}

// CaptureTransport records messages instead of sending them through a relay.
// It never opens a network connection, which makes it the transport for test
// and development environments.
type CaptureTransport struct {
	from   string
	logger zerolog.Logger

	mu       sync.Mutex
	messages []CapturedMessage
}

// NewCaptureTransport creates a new instance of CaptureTransport.
func NewCaptureTransport(from string, logger *zerolog.Logger) *CaptureTransport {
	return &CaptureTransport{
		from:   from,
		logger: logger.With().Str("component", "capture_transport").Logger(),
	}
}

// Name implements the Transport interface.
func (t *CaptureTransport) Name() string { return CaptureTransportName }

// Deliver implements the Transport interface. The receipt carries the JSON envelope.
func (t *CaptureTransport) Deliver(_ context.Context, to string, msg *model.RenderedMessage) (*model.DeliveryReceipt, error) {
	captured := CapturedMessage{
		From: t.from,
		To:   to,
		Message: model.RenderedMessage{
			Subject: msg.Subject,
			Body:    msg.Body,
			Headers: maps.Clone(msg.Headers),
		},
	}

	headers := captured.Message.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	env, err := json.Marshal(envelope{
		From:    t.from,
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.Body,
		Headers: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode envelope: %w", ErrTransportDelivery, err)
	}

	t.mu.Lock()
	t.messages = append(t.messages, captured)
	t.mu.Unlock()

	t.logger.Info().
		Str("recipient", to).
		Str("subject", msg.Subject).
		Interface("headers", msg.Headers).
		Msg(">>> CAPTURED: message not sent")

	receipt := model.NewDeliveryReceipt(to, msg, CaptureTransportName, model.StatusCaptured)
	receipt.Envelope = env
	return receipt, nil
}

// Messages returns a copy of everything captured so far, oldest first.
func (t *CaptureTransport) Messages() []CapturedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CapturedMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recently captured message.
func (t *CaptureTransport) Last() (CapturedMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return CapturedMessage{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Reset forgets all captured messages.
func (t *CaptureTransport) Reset() {
	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
}
