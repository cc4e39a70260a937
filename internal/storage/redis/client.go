package redis

import (
	"context"
	"fmt"

	"github.com/ilindan-dev/mail-dispatcher/internal/config"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client and verifies it with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to connect to %s: %w", cfg.Addr, err)
	}
	return client, nil
}
