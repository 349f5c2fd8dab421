package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelStub struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

func TestMemCacheStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, time.Hour)

	_, ok, err := cs.Get(ctx, "guild-channels", "g1")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(cs.Set(ctx, "guild-channels", "g1", "abc"))
	v, ok, err := cs.Get(ctx, "guild-channels", "g1")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal("abc", v)

	assert.NoError(cs.Purge(ctx, "guild-channels", "g1"))
	_, ok, err = cs.Get(ctx, "guild-channels", "g1")
	assert.NoError(err)
	assert.False(ok)
}

func TestCacheStoreJSON(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, time.Hour)
	in := []channelStub{{ID: "c1", Position: 0}, {ID: "c2", Position: 1}}
	require.NoError(t, SetJSON(ctx, cs, "guild-channels", "g1", in))

	out, ok, err := GetJSON[[]channelStub](ctx, cs, "guild-channels", "g1")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(in, out)

	_, ok, err = GetJSON[[]channelStub](ctx, cs, "guild-channels", "missing")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(cs.Set(ctx, "guild-channels", "bad", "{not json"))
	_, ok, err = GetJSON[[]channelStub](ctx, cs, "guild-channels", "bad")
	assert.Error(err)
	assert.False(ok)
}

func TestRedisCacheStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	cs, err := NewRedisCacheStore("redis://localhost:6379/0", time.Minute)
	require.NoError(t, err)

	assert.NoError(cs.Set(ctx, "test", "k1", "v1"))
	v, ok, err := cs.Get(ctx, "test", "k1")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal("v1", v)
	assert.NoError(cs.Purge(ctx, "test", "k1"))
}
