package statscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "catalog:stats:ver"

// Cache stores read-model snapshots under a versioned prefix. Every write to
// the catalog calls Bump, which orphans all previous entries at once.
// A nil *Cache or a nil client disables caching. Redis errors fail open.
type Cache struct {
	rdb       *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

func New(rdb *redis.Client, ttl, opTimeout time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if opTimeout <= 0 {
		opTimeout = 150 * time.Millisecond
	}
	return &Cache{rdb: rdb, ttl: ttl, opTimeout: opTimeout}
}

func (c *Cache) enabled() bool { return c != nil && c.rdb != nil }

func (c *Cache) key(ctx context.Context, name string) (string, error) {
	ver, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		ver = 1
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:stats:v%d:%s", ver, name), nil
}

// Get decodes the cached value for name into dst. It reports false on a
// miss or on any Redis failure.
func (c *Cache) Get(ctx context.Context, name string, dst any) bool {
	if !c.enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	k, err := c.key(ctx, name)
	if err != nil {
		log.Printf("[stats][cache] version lookup failed: %v; bypassing cache", err)
		return false
	}
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[stats][cache] get %s failed: %v", k, err)
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// Set is best-effort.
func (c *Cache) Set(ctx context.Context, name string, v any) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	k, err := c.key(ctx, name)
	if err != nil {
		return
	}
	if err := c.rdb.SetEx(ctx, k, b, c.ttl).Err(); err != nil {
		log.Printf("[stats][cache] set %s failed: %v", k, err)
	}
}

// Bump increments the version key. Call it after a committed write.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("bump stats version: %w", err)
	}
	return nil
}
