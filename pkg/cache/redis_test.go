package cache_test

import (
	"context"
	"testing"
	"time"

	"plastikhb/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(cache.Config{Addr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got []entry
	found, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []entry{{ID: "1", Name: "Kemasan"}}
	require.NoError(t, c.SetJSON(ctx, "k", want))
	assert.True(t, mr.Exists("k"))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	found, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, c.Delete(ctx, "k", "absent"))
	assert.False(t, mr.Exists("k"))
}

func TestRedisCache_GetJSONRejectsGarbage(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("k", "not-json"))

	var got []entry
	_, err := c.GetJSON(context.Background(), "k", &got)
	assert.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := cache.NewRedisCache(cache.Config{Addr: addr})
	assert.Error(t, err)
}
