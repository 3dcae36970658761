package credstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory":  NewMemory(nil),
		"keyring": NewKeyring(keyring.NewArrayKeyring(nil), "https://portal.example.com"),
		"redis":   NewRedis(client, "", 0),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, KeyAccessToken)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, KeyAccessToken, "a1"))
			v, err := s.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, "a1", v)

			require.NoError(t, s.Set(ctx, KeyAccessToken, "a2"))
			v, err = s.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, "a2", v)

			require.NoError(t, s.Remove(ctx, KeyAccessToken))
			_, err = s.Get(ctx, KeyAccessToken)
			assert.ErrorIs(t, err, ErrNotFound)

			// removing twice is fine
			assert.NoError(t, s.Remove(ctx, KeyAccessToken))
		})
	}
}

func TestSaveAndClearTokens(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, SaveTokens(ctx, s, "access", "refresh"))

			access, err := Lookup(ctx, s, KeyAccessToken)
			require.NoError(t, err)
			assert.Equal(t, "access", access)
			refresh, err := Lookup(ctx, s, KeyRefreshToken)
			require.NoError(t, err)
			assert.Equal(t, "refresh", refresh)

			require.NoError(t, ClearTokens(ctx, s))
			access, err = Lookup(ctx, s, KeyAccessToken)
			require.NoError(t, err)
			assert.Empty(t, access)
			refresh, err = Lookup(ctx, s, KeyRefreshToken)
			require.NoError(t, err)
			assert.Empty(t, refresh)
		})
	}
}

func TestSaveTokens_KeepsRefreshWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(map[string]string{KeyRefreshToken: "old-refresh"})
	require.NoError(t, SaveTokens(ctx, s, "new-access", ""))

	refresh, err := s.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "old-refresh", refresh)
}

func TestKeyring_Namespacing(t *testing.T) {
	ctx := context.Background()
	ring := keyring.NewArrayKeyring(nil)
	a := NewKeyring(ring, "a")
	b := NewKeyring(ring, "b")

	require.NoError(t, a.Set(ctx, KeyAccessToken, "token-a"))
	_, err := b.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)

	item, err := ring.Get("a:" + KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "token-a", string(item.Data))
}

func TestRedis_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	s := NewRedis(client, "test:", time.Minute)
	require.NoError(t, s.Set(ctx, KeyAccessToken, "v"))
	assert.True(t, mr.Exists("test:"+KeyAccessToken))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_BackendFailure(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = client.Close() }()
	s := NewRedis(client, "", 0)

	mr.Close()
	_, err := s.Get(ctx, KeyAccessToken)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Op)
}

func TestOpenRedis_InvalidURL(t *testing.T) {
	_, _, err := OpenRedis("not a url", "", 0)
	assert.Error(t, err)
}
