package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	queryCachePrefix     = "agg:query:"
	queryCacheVersionKey = "agg:version"
)

// QueryCache is a read-through cache for aggregation reads. Keys embed a
// version counter; Invalidate bumps the counter so every older entry becomes
// unreachable and expires on its own TTL.
//
// A nil client turns every call into a no-op, and Redis errors are logged and
// treated as misses: the database stays the source of truth.
type QueryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewQueryCache(rdb *redis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{rdb: rdb, ttl: ttl}
}

func (c *QueryCache) enabled() bool { return c != nil && c.rdb != nil && c.ttl > 0 }

func (c *QueryCache) key(ctx context.Context, name string) (string, error) {
	v, err := c.rdb.Get(ctx, queryCacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%sv%d:%s", queryCachePrefix, v, name), nil
}

// Get decodes the cached value for name into dest and reports a hit.
func (c *QueryCache) Get(ctx context.Context, name string, dest any) bool {
	if !c.enabled() {
		return false
	}
	key, err := c.key(ctx, name)
	if err != nil {
		log.Warn().Err(err).Msg("cache: version lookup failed")
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("cache: get failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: corrupt entry")
		return false
	}
	return true
}

// Set stores v under name for the configured TTL.
func (c *QueryCache) Set(ctx context.Context, name string, v any) {
	if !c.enabled() {
		return
	}
	key, err := c.key(ctx, name)
	if err != nil {
		log.Warn().Err(err).Msg("cache: version lookup failed")
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
	}
}

// Invalidate drops every cached read.
func (c *QueryCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, queryCacheVersionKey).Err(); err != nil {
		log.Warn().Err(err).Msg("cache: invalidate failed")
	}
}
