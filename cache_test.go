package authstate_test

import (
	"context"
	"testing"
	"time"

	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheGetSet(t *testing.T) {
	cache := authstate.NewTTLCache[string](time.Minute)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("key", "value")
	value, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", value)
	assert.Equal(t, 1, cache.Len())
}

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	cache := authstate.NewTTLCache[int](time.Minute, authstate.WithCacheClock[int](clock))
	cache.Set("key", 42)

	now = now.Add(59 * time.Second)
	value, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 42, value)

	now = now.Add(2 * time.Second)
	_, ok = cache.Get("key")
	assert.False(t, ok)

	// Expired entries are not evicted, only treated as absent.
	assert.Equal(t, 1, cache.Len())
}

func TestTTLCacheOverwriteResetsTimestamp(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	cache := authstate.NewTTLCache[int](time.Minute, authstate.WithCacheClock[int](clock))
	cache.Set("key", 1)

	now = now.Add(50 * time.Second)
	cache.Set("key", 2)

	now = now.Add(30 * time.Second)
	value, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestTTLCacheDelete(t *testing.T) {
	cache := authstate.NewTTLCache[string](time.Minute)
	cache.Set("key", "value")
	cache.Delete("key")

	_, ok := cache.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryProfileCacheIsolatesEntries(t *testing.T) {
	ctx := context.Background()
	cache := authstate.NewMemoryProfileCache(time.Minute)

	profile := &authstate.Profile{FirstName: "Ada", Role: authstate.RoleInstructor}
	require.NoError(t, cache.Set(ctx, "u1", profile))

	// Mutating the original must not leak into the cached copy.
	profile.FirstName = "changed"

	cached, ok, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada", cached.FirstName)

	// Mutating the returned copy must not poison the cache either.
	cached.FirstName = "changed-too"
	again, ok, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada", again.FirstName)
}
