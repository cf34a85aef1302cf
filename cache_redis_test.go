package authstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	authstate "github.com/goliatone/go-authstate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T, opts ...authstate.RedisProfileCacheOption) (*authstate.RedisProfileCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return authstate.NewRedisProfileCache(client, time.Minute, opts...), mr
}

func TestRedisProfileCacheMiss(t *testing.T) {
	cache, _ := setupRedisCache(t)

	profile, ok, err := cache.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, profile)
}

func TestRedisProfileCacheRoundTrip(t *testing.T) {
	cache, _ := setupRedisCache(t)
	ctx := context.Background()

	userID := uuid.New()
	profile := &authstate.Profile{
		ID:        userID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      authstate.RoleInstructor,
		AvatarURL: "https://cdn.example.com/ada.png",
	}

	require.NoError(t, cache.Set(ctx, userID.String(), profile))

	cached, ok, err := cache.Get(ctx, userID.String())
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, userID, cached.ID)
	assert.Equal(t, "Ada", cached.FirstName)
	assert.Equal(t, "Lovelace", cached.LastName)
	assert.Equal(t, authstate.RoleInstructor, cached.Role)
	assert.Equal(t, "https://cdn.example.com/ada.png", cached.AvatarURL)
}

func TestRedisProfileCacheServerTTL(t *testing.T) {
	cache, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", &authstate.Profile{FirstName: "Ada"}))

	_, ok, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)

	// Expiry is delegated to the server TTL.
	mr.FastForward(time.Minute + time.Second)

	_, ok, err = cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisProfileCacheDelete(t *testing.T) {
	cache, _ := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", &authstate.Profile{FirstName: "Ada"}))
	require.NoError(t, cache.Delete(ctx, "u1"))

	_, ok, err := cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent entry is not an error.
	require.NoError(t, cache.Delete(ctx, "u1"))
}

func TestRedisProfileCacheKeyPrefix(t *testing.T) {
	cache, mr := setupRedisCache(t, authstate.WithRedisKeyPrefix("lms:profile:"))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u1", &authstate.Profile{FirstName: "Ada"}))

	assert.True(t, mr.Exists("lms:profile:u1"))
	assert.False(t, mr.Exists("authstate:profile:u1"))
}

func TestRedisProfileCacheUnreachableServer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := authstate.NewRedisProfileCache(client, time.Minute)
	mr.Close()

	_, _, err = cache.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, authstate.IsTransient(err))
}
