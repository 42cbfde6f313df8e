// response.go provides a Valkey-backed cache for computed read endpoints.
// Popular tags and newsletter statistics hit aggregate queries on every
// request; their JSON payloads are stored in Valkey so repeat requests skip
// the database entirely. Writes to the underlying tables invalidate the keys.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// responseKeyPrefix is the Valkey key prefix for cached responses.
	responseKeyPrefix = "resp:"

	// DefaultResponseTTL is how long a cached payload stays fresh.
	DefaultResponseTTL = 5 * time.Minute

	// PopularTagsKey caches the popular-tags listing.
	PopularTagsKey = "tags:popular"

	// NewsletterStatsKey caches the newsletter statistics summary.
	NewsletterStatsKey = "newsletter:stats"
)

// ResponseCache stores marshaled response payloads in Valkey. A nil client
// disables caching, so callers never need to branch on availability.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache backed by the given Valkey client.
// client may be nil, in which case every Get is a miss and Set is a no-op.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = DefaultResponseTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get unmarshals the cached payload for key into dest. Returns false on miss.
func (rc *ResponseCache) Get(ctx context.Context, key string, dest any) bool {
	if rc.client == nil {
		return false
	}
	val, err := rc.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		slog.Warn("response cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("response cache hit", "key", key)
	return true
}

// Set stores the payload for key with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, payload any) {
	if rc.client == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("response cache encode error", "key", key, "error", err)
		return
	}
	if err := rc.client.Set(ctx, responseKeyPrefix+key, data, rc.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// Invalidate removes the given keys from the cache.
func (rc *ResponseCache) Invalidate(ctx context.Context, keys ...string) {
	if rc.client == nil || len(keys) == 0 {
		return
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = responseKeyPrefix + k
	}
	if err := rc.client.Del(ctx, prefixed...).Err(); err != nil {
		slog.Warn("response cache invalidate error", "keys", keys, "error", err)
	}
}
