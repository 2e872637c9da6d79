/**
 * @description
 * Version-tagged cache for the paginated payout list. Rendered page payloads
 * are cached under a key derived from the request path, the canonicalized query
 * string and a shared monotonic version counter. Bumping the counter
 * invalidates every previously cached page in O(1) — no enumeration, no
 * deletes.
 *
 * @notes
 * - The cache backend is advisory: any error on get degrades to a miss, any
 *   error on set skips caching. List reads never fail because the cache is
 *   unavailable.
 * - The version counter is mutated only through the backend's atomic
 *   increment, never read-modify-write in the application.
 */

package app

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/paystream/payout-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const listCacheVersionKey = "payouts:list:version"

// DefaultListCacheTTL is how long one rendered page stays cached.
const DefaultListCacheTTL = 60 * time.Second

// Cache is the minimal key-value surface the list cache needs. All operations
// may fail transiently and are treated as advisory.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
}

// RedisCache implements Cache on top of a go-redis client.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) SetNX(ctx context.Context, key, value string) (bool, error) {
	return c.client.SetNX(ctx, key, value, 0).Result()
}

func (c *RedisCache) Increment(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// ListCache caches rendered payout list pages keyed by (path, canonical query,
// version).
type ListCache struct {
	cache Cache
	ttl   time.Duration
}

func NewListCache(cache Cache, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = DefaultListCacheTTL
	}
	return &ListCache{cache: cache, ttl: ttl}
}

// Version returns the current list cache version, lazily initializing the
// counter to 1. The second return value is false when the backend failed and
// no usable version exists.
func (c *ListCache) Version(ctx context.Context) (int64, bool) {
	raw, found, err := c.cache.Get(ctx, listCacheVersionKey)
	if err != nil {
		log.Printf("level=warn component=list_cache msg=\"version read failed; bypassing cache\" err=%v", err)
		return 0, false
	}
	if !found {
		if _, err := c.cache.SetNX(ctx, listCacheVersionKey, "1"); err != nil {
			log.Printf("level=warn component=list_cache msg=\"version init failed; bypassing cache\" err=%v", err)
			return 0, false
		}
		return 1, true
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("level=warn component=list_cache msg=\"version parse failed; bypassing cache\" value=%q err=%v", raw, err)
		return 0, false
	}
	return version, true
}

// BumpVersion atomically increments the version counter, invalidating all
// cached pages at once. Redis INCR creates a missing counter at 1, which keeps
// the bump idempotent-safe regardless of initialization order.
func (c *ListCache) BumpVersion(ctx context.Context) error {
	_, err := c.cache.Increment(ctx, listCacheVersionKey)
	return err
}

// BuildKey derives the cache key for one page. url.Values.Encode sorts
// parameters by key, so equivalent query strings collapse to one entry.
func (c *ListCache) BuildKey(version int64, path string, query url.Values) string {
	return "payouts:list:v" + strconv.FormatInt(version, 10) + ":path=" + path + "?" + query.Encode()
}

// Key resolves the version-tagged cache key for the request. The caller must
// use the same key for the paired get and set: the version is read exactly
// once per request, so a bump landing mid-request can only strand the written
// page under the old, already-invalidated version. ok is false when the
// backend failed and caching should be skipped for this request.
func (c *ListCache) Key(ctx context.Context, path string, query url.Values) (string, bool) {
	version, ok := c.Version(ctx)
	if !ok {
		return "", false
	}
	return c.BuildKey(version, path, query), true
}

// GetPage returns the cached rendered payload under the key, if present. Any
// backend failure reads as a miss.
func (c *ListCache) GetPage(ctx context.Context, key string) ([]byte, bool) {
	payload, found, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("level=warn component=list_cache msg=\"page read failed; treating as miss\" err=%v", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return []byte(payload), true
}

// SetPage caches the rendered payload under the key. Failures are logged and
// swallowed.
func (c *ListCache) SetPage(ctx context.Context, key string, payload []byte) {
	if err := c.cache.Set(ctx, key, string(payload), c.ttl); err != nil {
		log.Printf("level=warn component=list_cache msg=\"page write failed; skipping cache\" err=%v", err)
	}
}

func renderPayoutPage(page domain.PayoutPage) ([]byte, error) {
	if page.Items == nil {
		page.Items = []domain.Payout{}
	}
	return json.Marshal(page)
}
