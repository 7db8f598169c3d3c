package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, "farmlink:"), mr
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	var miss []cartLine
	ok, err := s.Get(ctx, "cart", &miss)
	require.NoError(t, err)
	assert.False(t, ok)

	in := []cartLine{{ProductID: 3, Quantity: 2}}
	require.NoError(t, s.Set(ctx, "cart", in, time.Minute))

	var out []cartLine
	ok, err = s.Get(ctx, "cart", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, s.Del(ctx, "cart", "never-set"))
	ok, err = s.Get(ctx, "cart", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t)
	exerciseStore(t, s)
}

func TestRedisStorePrefixAndTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, s.Set(context.Background(), "session:abc", map[string]int{"user_id": 1}, time.Hour))

	assert.True(t, mr.Exists("farmlink:session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("farmlink:session:abc"))

	mr.FastForward(2 * time.Hour)
	var out map[string]int
	ok, err := s.Get(context.Background(), "session:abc", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(context.Background(), "k", "v", time.Minute))
	now = now.Add(2 * time.Minute)

	var out string
	ok, err := s.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnectFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestMemoryStorePurge(t *testing.T) {
	s := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(context.Background(), "short", "v", time.Minute))
	require.NoError(t, s.Set(context.Background(), "long", "v", time.Hour))
	require.NoError(t, s.Set(context.Background(), "forever", "v", 0))
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, s.Purge())
	assert.Len(t, s.items, 2)
}
