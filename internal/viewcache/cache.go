// Package viewcache caches rendered dashboard listings in Redis, keyed by the
// listing path and its query string. Each path has a generation counter;
// invalidating the path bumps the counter so every older entry becomes
// unreachable at once and ages out with its TTL.
package viewcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bizdash:view"

type Cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func New(rdb redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func genKey(path string) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, path)
}

func entryKey(path string, gen int64, query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s:entry:%s:%d:%s", keyPrefix, path, gen, hex.EncodeToString(sum[:8]))
}

func (c *Cache) generation(ctx context.Context, path string) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(path)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached body for (path, query), if any, along with the
// generation it was looked up under. A caller that renders on a miss passes
// that generation back to Set.
func (c *Cache) Get(ctx context.Context, path, query string) ([]byte, int64, bool, error) {
	gen, err := c.generation(ctx, path)
	if err != nil {
		return nil, 0, false, err
	}
	b, err := c.rdb.Get(ctx, entryKey(path, gen, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}
	return b, gen, true, nil
}

// Set stores body for (path, query) under gen. A body rendered before an
// invalidation lands under the old generation and is never served.
func (c *Cache) Set(ctx context.Context, path string, gen int64, query string, body []byte) error {
	return c.rdb.Set(ctx, entryKey(path, gen, query), body, c.ttl).Err()
}

// InvalidatePath makes every cached view of path stale.
func (c *Cache) InvalidatePath(ctx context.Context, path string) error {
	return c.rdb.Incr(ctx, genKey(path)).Err()
}
