package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
)

// Ensure ReceiptRepository implements the interface
var _ repo.ReceiptRepository = (*ReceiptRepository)(nil)

// ReceiptRepository keeps receipts in process memory. Used when no database is configured.
type ReceiptRepository struct {
	mu       sync.RWMutex
	receipts map[uuid.UUID]model.DeliveryReceipt
}

// NewReceiptRepository creates an empty in-memory journal.
func NewReceiptRepository() *ReceiptRepository {
	return &ReceiptRepository{receipts: make(map[uuid.UUID]model.DeliveryReceipt)}
}

// Save stores a copy of the receipt.
func (r *ReceiptRepository) Save(_ context.Context, rc *model.DeliveryReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.receipts[rc.ID]; ok {
		return repo.ErrDuplicateRecord
	}
	r.receipts[rc.ID] = *rc
	return nil
}

// GetByID returns a copy of the stored receipt.
func (r *ReceiptRepository) GetByID(_ context.Context, id uuid.UUID) (*model.DeliveryReceipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.receipts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &rc, nil
}
