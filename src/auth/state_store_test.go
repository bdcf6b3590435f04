package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisStateStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStateStore(client)
	ctx := context.Background()

	state, err := store.Load(ctx, "sid")
	assert.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, store.Save(ctx, "sid", &models.OAuthState{CSRF: "abc", ReturnTo: "/Foo"}, 10*time.Minute))
	assert.True(t, mr.Exists("oauth_state:sid"))
	assert.Equal(t, 10*time.Minute, mr.TTL("oauth_state:sid"))

	raw, err := mr.Get("oauth_state:sid")
	require.NoError(t, err)
	assert.JSONEq(t, `{"csrf":"abc","returnTo":"/Foo"}`, raw)

	state, err = store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, &models.OAuthState{CSRF: "abc", ReturnTo: "/Foo"}, state)

	mr.FastForward(11 * time.Minute)
	state, err = store.Load(ctx, "sid")
	assert.NoError(t, err)
	assert.Nil(t, state)
}

func TestRedisStateStore_Corrupt(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStateStore(client)

	mr.Set("oauth_state:sid", "not json")
	_, err := store.Load(context.Background(), "sid")
	assert.Error(t, err)
}

func TestMemoryStateStore(t *testing.T) {
	store := NewMemoryStateStore(time.Minute)
	ctx := context.Background()

	state, err := store.Load(ctx, "sid")
	assert.NoError(t, err)
	assert.Nil(t, state)

	original := &models.OAuthState{CSRF: "abc", ReturnTo: "/Foo"}
	require.NoError(t, store.Save(ctx, "sid", original, time.Minute))
	original.CSRF = "changed"

	state, err = store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "abc", state.CSRF)

	require.NoError(t, store.Save(ctx, "short", original, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	state, err = store.Load(ctx, "short")
	assert.NoError(t, err)
	assert.Nil(t, state)
}
