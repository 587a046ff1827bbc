package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is a read-through cache for per-user views (wallet, ledger pages).
// A nil *Cache is valid and always misses, so Redis stays optional.
type Cache struct {
	rdb redis.Cmdable // Redis client
	ttl time.Duration // Lifetime of cached values
}

// NewCache creates a cache; rdb may be nil to disable caching
func NewCache(rdb redis.Cmdable, ttl time.Duration) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// WalletKey is the key caching a user's wallet
func WalletKey(userID string) string {
	return "wallet:user:" + userID
}

// HistoryKey is the hash caching a user's ledger pages, one field per page
func HistoryKey(userID string) string {
	return "txhistory:user:" + userID
}

// Get retrieves a value and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// Set stores a value with the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// GetField retrieves one field of a hash
func (c *Cache) GetField(ctx context.Context, key, field string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// SetField stores one field of a hash and refreshes the hash TTL
func (c *Cache) SetField(ctx context.Context, key, field string, value any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline() // HSET and EXPIRE land together
	pipe.HSet(ctx, key, field, b)
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateUser drops every cached view of userID; all history pages live in
// one hash so a single DEL clears them
func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, WalletKey(userID), HistoryKey(userID)).Err()
}
