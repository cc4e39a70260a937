package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
	"github.com/ilindan-dev/mail-dispatcher/pkg/keybuilder"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Ensure ReceiptCache implements the interface
var _ repo.ReceiptCache = (*ReceiptCache)(nil)

// ReceiptCache implements the repository.ReceiptCache interface
// using the standard go-redis client.
type ReceiptCache struct {
	redis  goredis.Cmdable
	logger zerolog.Logger
}

// NewReceiptCache creates a new instance of the ReceiptCache.
func NewReceiptCache(logger *zerolog.Logger, redis goredis.Cmdable) *ReceiptCache {
	return &ReceiptCache{
		redis:  redis,
		logger: logger.With().Str("layer", "redis_cache").Logger(),
	}
}

// Get retrieves an item from the cache.
func (c *ReceiptCache) Get(ctx context.Context, id uuid.UUID) (*model.DeliveryReceipt, error) {
	key := keybuilder.RedisReceiptKeyBuild(id)
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.logger.Debug().Str("key", key).Str("cache", "miss").Msg("receipt not found in cache")
			return nil, repo.ErrNotFound
		}
		c.logger.Error().Err(err).Str("key", key).Msg("failed to get key from redis")
		return nil, err
	}

	var receipt model.DeliveryReceipt
	if err := json.Unmarshal([]byte(val), &receipt); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to unmarshal receipt from cache")
		return nil, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	c.logger.Debug().Str("key", key).Str("cache", "hit").Msg("receipt found in cache")
	return &receipt, nil
}

// Set adds an item to the cache for a specified duration.
func (c *ReceiptCache) Set(ctx context.Context, r *model.DeliveryReceipt, expiration time.Duration) error {
	key := keybuilder.RedisReceiptKeyBuild(r.ID)
	b, err := json.Marshal(r)
	if err != nil {
		c.logger.Error().Err(err).Stringer("id", r.ID).Msg("failed to marshal receipt for cache")
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	if err := c.redis.Set(ctx, key, b, expiration).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to set key in redis")
		return err
	}
	return nil
}
