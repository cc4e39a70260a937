package http

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DispatchNotificationRequest defines the structure of a dispatch request.
// It uses `json` tags for unmarshalling and `binding` for validation with Gin.
type DispatchNotificationRequest struct {
	To       string         `json:"to" binding:"required,email"`
	Subject  string         `json:"subject" binding:"required"`
	Template string         `json:"template" binding:"required"`
	Context  map[string]any `json:"context,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
}

// ReceiptResponse defines the structure of a delivery receipt response.
type ReceiptResponse struct {
	ID        uuid.UUID       `json:"id"`
	To        string          `json:"to"`
	Subject   string          `json:"subject"`
	Template  string          `json:"template"`
	Tags      []string        `json:"tags,omitempty"`
	Transport string          `json:"transport"`
	Status    string          `json:"status"`
	Envelope  json.RawMessage `json:"envelope,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ErrorResponse defines a standard structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
