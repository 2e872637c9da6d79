package app

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

// memoryCache is an in-memory Cache used across the app package tests. A
// non-nil failWith makes every operation fail, simulating a down backend.
type memoryCache struct {
	mu       sync.Mutex
	values   map[string]string
	failWith error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return "", false, c.failWith
	}
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.values[key] = value
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return false, c.failWith
	}
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

func (c *memoryCache) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return 0, c.failWith
	}
	var current int64
	if raw, ok := c.values[key]; ok {
		current, _ = strconv.ParseInt(raw, 10, 64)
	}
	current++
	c.values[key] = strconv.FormatInt(current, 10)
	return current, nil
}

func TestListCache_VersionLazilyInitializesToOne(t *testing.T) {
	cache := newMemoryCache()
	listCache := NewListCache(cache, time.Minute)

	version, ok := listCache.Version(context.Background())
	if !ok {
		t.Fatal("expected a usable version")
	}
	if version != 1 {
		t.Fatalf("expected initial version 1, got %d", version)
	}
}

func TestListCache_BuildKeyCanonicalizesQueryOrder(t *testing.T) {
	listCache := NewListCache(newMemoryCache(), time.Minute)

	a := url.Values{}
	a.Set("limit", "10")
	a.Set("cursor", "abc")

	b := url.Values{}
	b.Set("cursor", "abc")
	b.Set("limit", "10")

	if listCache.BuildKey(3, "/payouts/", a) != listCache.BuildKey(3, "/payouts/", b) {
		t.Fatal("equivalent query strings must produce the same cache key")
	}
}

func TestListCache_RoundTripsPagePayload(t *testing.T) {
	listCache := NewListCache(newMemoryCache(), time.Minute)
	ctx := context.Background()
	query := url.Values{"limit": {"20"}}

	key, ok := listCache.Key(ctx, "/payouts/", query)
	if !ok {
		t.Fatal("expected a usable key")
	}

	if _, hit := listCache.GetPage(ctx, key); hit {
		t.Fatal("expected a miss before SetPage")
	}

	listCache.SetPage(ctx, key, []byte(`{"items":[]}`))

	payload, hit := listCache.GetPage(ctx, key)
	if !hit {
		t.Fatal("expected a hit after SetPage")
	}
	if string(payload) != `{"items":[]}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestListCache_BumpVersionInvalidatesCachedPages(t *testing.T) {
	listCache := NewListCache(newMemoryCache(), time.Minute)
	ctx := context.Background()
	query := url.Values{"limit": {"20"}}

	key, _ := listCache.Key(ctx, "/payouts/", query)
	listCache.SetPage(ctx, key, []byte(`{"items":[]}`))

	if err := listCache.BumpVersion(ctx); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	newKey, _ := listCache.Key(ctx, "/payouts/", query)
	if newKey == key {
		t.Fatal("expected the key to change after a version bump")
	}
	if _, hit := listCache.GetPage(ctx, newKey); hit {
		t.Fatal("expected old page to be invisible after version bump")
	}
}

// A page written under a key resolved before a bump must stay under the old,
// superseded version: readers resolving keys after the bump never see it.
func TestListCache_PageWrittenUnderPreBumpKeyStaysInvisible(t *testing.T) {
	listCache := NewListCache(newMemoryCache(), time.Minute)
	ctx := context.Background()
	query := url.Values{"limit": {"20"}}

	staleKey, _ := listCache.Key(ctx, "/payouts/", query)

	if err := listCache.BumpVersion(ctx); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	// The in-flight request finishes its database read and writes with the key
	// it resolved before the bump.
	listCache.SetPage(ctx, staleKey, []byte(`{"items":["stale"]}`))

	freshKey, _ := listCache.Key(ctx, "/payouts/", query)
	if _, hit := listCache.GetPage(ctx, freshKey); hit {
		t.Fatal("stale page leaked into the post-bump version")
	}
}

func TestListCache_BackendFailureDegradesToMiss(t *testing.T) {
	cache := newMemoryCache()
	cache.failWith = errors.New("connection refused")
	listCache := NewListCache(cache, time.Minute)
	ctx := context.Background()

	if _, ok := listCache.Key(ctx, "/payouts/", url.Values{}); ok {
		t.Fatal("expected no usable key when the backend is down")
	}

	if err := listCache.BumpVersion(ctx); err == nil {
		t.Fatal("expected the bump failure to be reported to the task layer")
	}
}
