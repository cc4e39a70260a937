package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Ensure CachedReceiptRepository implements the interface
var _ repo.ReceiptRepository = (*CachedReceiptRepository)(nil)

// DefaultTTL is used when no positive TTL is configured.
const DefaultTTL = 24 * time.Hour

// CachedReceiptRepository is a decorator for a ReceiptRepository
// that adds a caching layer using Redis.
type CachedReceiptRepository struct {
	primaryRepo repo.ReceiptRepository
	cache       repo.ReceiptCache
	logger      zerolog.Logger
	ttl         time.Duration
}

// NewCachedReceiptRepository creates a new instance of the cached repository.
func NewCachedReceiptRepository(
	primaryRepo repo.ReceiptRepository,
	cache repo.ReceiptCache,
	ttl time.Duration,
	logger *zerolog.Logger,
) *CachedReceiptRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedReceiptRepository{
		primaryRepo: primaryRepo,
		cache:       cache,
		logger:      logger.With().Str("layer", "cached_repository").Logger(),
		ttl:         ttl,
	}
}

// Save first persists the receipt in the primary repository,
// then warms up the cache with the new data.
func (r *CachedReceiptRepository) Save(ctx context.Context, rc *model.DeliveryReceipt) error {
	if err := r.primaryRepo.Save(ctx, rc); err != nil {
		return err
	}

	if err := r.cache.Set(ctx, rc, r.ttl); err != nil {
		r.logger.Error().Err(err).Stringer("id", rc.ID).Msg("failed to cache receipt after save")
	}
	return nil
}

// GetByID implements the cache-aside pattern.
func (r *CachedReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DeliveryReceipt, error) {
	cached, err := r.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, repo.ErrNotFound) {
		r.logger.Error().Err(err).Stringer("id", id).Msg("cache get error, falling back to primary repository")
	}

	primary, err := r.primaryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, primary, r.ttl); err != nil {
		r.logger.Error().Err(err).Stringer("id", primary.ID).Msg("failed to set cache after db fetch")
	}

	return primary, nil
}
