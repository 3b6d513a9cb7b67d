package cache

import (
	"context"
	"time"
)

// BytesCache is the read-through cache used for public tracking lookups.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
