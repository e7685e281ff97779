package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_NoTTLAndDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Delete(ctx, "a", "missing"))

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	got, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	v := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", v, 0))
	v[0] = 'x'

	got, _ := c.Get(ctx, "k")
	got[1] = 'y'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}
