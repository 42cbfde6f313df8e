package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "resp:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(host, port, "")
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

type statsPayload struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

func TestResponseCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, 1*time.Minute)

	ctx := context.Background()

	// Miss.
	var out statsPayload
	if rc.Get(ctx, "test-stats", &out) {
		t.Error("expected cache miss")
	}

	// Set then hit.
	rc.Set(ctx, "test-stats", statsPayload{Total: 12, Active: 9})

	if !rc.Get(ctx, "test-stats", &out) {
		t.Fatal("expected cache hit")
	}
	if out.Total != 12 || out.Active != 9 {
		t.Errorf("payload mismatch: got %+v", out)
	}
}

func TestResponseCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, 1*time.Minute)

	ctx := context.Background()

	rc.Set(ctx, PopularTagsKey, []string{"go", "sql"})
	rc.Set(ctx, NewsletterStatsKey, statsPayload{Total: 1})

	rc.Invalidate(ctx, PopularTagsKey, NewsletterStatsKey)

	var tags []string
	if rc.Get(ctx, PopularTagsKey, &tags) {
		t.Error("expected miss after invalidation")
	}
	var stats statsPayload
	if rc.Get(ctx, NewsletterStatsKey, &stats) {
		t.Error("expected miss after invalidation")
	}
}

func TestResponseCacheNilClient(t *testing.T) {
	rc := NewResponseCache(nil, 0)
	ctx := context.Background()

	// All operations are safe no-ops without a backing client.
	rc.Set(ctx, "key", statsPayload{Total: 1})
	rc.Invalidate(ctx, "key")

	var out statsPayload
	if rc.Get(ctx, "key", &out) {
		t.Error("nil-client cache reported a hit")
	}
}

func TestNewResponseCacheDefaultTTL(t *testing.T) {
	rc := NewResponseCache(nil, 0)
	if rc.ttl != DefaultResponseTTL {
		t.Errorf("expected DefaultResponseTTL (%v), got %v", DefaultResponseTTL, rc.ttl)
	}
}
