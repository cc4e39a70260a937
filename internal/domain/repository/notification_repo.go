package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
)

var (
	ErrNotFound        = errors.New("receipt not found")
	ErrDuplicateRecord = errors.New("receipt already exists")
)

// ReceiptRepository defines the contract for the delivery journal (e.g., a database).
type ReceiptRepository interface {
	// Save persists a new receipt.
	Save(ctx context.Context, r *model.DeliveryReceipt) error

	// GetByID retrieves a receipt by its unique ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.DeliveryReceipt, error)
}

// ReceiptCache defines the contract for a caching layer.
type ReceiptCache interface {
	// Get retrieves an item from the cache.
	Get(ctx context.Context, id uuid.UUID) (*model.DeliveryReceipt, error)

	// Set adds an item to the cache for a specified duration
	Set(ctx context.Context, r *model.DeliveryReceipt, expiration time.Duration) error
}
