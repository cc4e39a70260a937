package model

import (
	"time"

	"github.com/google/uuid"
)

// TagsHeader is the header carrying the comma-joined classification tags of a message.
const TagsHeader = "X-Tags"

// Status represents the outcome of a delivery attempt.
type Status string

const (
	StatusSent     Status = "sent"     // The transport accepted the message.
	StatusCaptured Status = "captured" // The message was recorded by the capture transport.
	StatusFailed   Status = "failed"   // The transport rejected the message.
)

// NotificationRequest is a single dispatch call: who gets which template, rendered with what.
// It is technology-agnostic and lives only for the duration of the call.
type NotificationRequest struct {
	To       string
	Subject  string
	Template string         // Template identifier, e.g. "welcome".
	Context  map[string]any // Optional. Nil is treated as an empty mapping.
	Tags     []string       // Optional classification tags.
}

// TemplateContext returns the render context, never nil.
func (r *NotificationRequest) TemplateContext() map[string]any {
	if r.Context == nil {
		return map[string]any{}
	}
	return r.Context
}

// RenderedMessage is the fully rendered message handed to a transport.
type RenderedMessage struct {
	Subject string
	Body    string            // Rendered HTML.
	Headers map[string]string // At most the tags header.
}

// DeliveryReceipt records the outcome of a dispatch.
type DeliveryReceipt struct {
	ID        uuid.UUID
	To        string
	Subject   string
	Template  string
	Tags      []string
	Transport string
	Status    Status
	Envelope  []byte  // Serialized message, filled by the capture transport.
	Error     *string // Delivery error text for failed receipts.
	CreatedAt time.Time
}

// NewDeliveryReceipt is a factory function for a receipt of a message handed to a transport.
func NewDeliveryReceipt(to string, msg *RenderedMessage, transport string, status Status) *DeliveryReceipt {
	return &DeliveryReceipt{
		ID:        uuid.New(),
		To:        to,
		Subject:   msg.Subject,
		Transport: transport,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}
