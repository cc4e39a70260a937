package keybuilder

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	Redis   string = "redis"
	Receipt string = "receipt"
)

// RedisReceiptKeyBuild returns the cache key of a delivery receipt.
func RedisReceiptKeyBuild(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", Redis, Receipt, id)
}
