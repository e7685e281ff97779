package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (failingCache) Delete(context.Context, ...string) error { return errors.New("down") }

func countingLoader(calls *int, v *snapshot, err error) Loader[snapshot] {
	return func(context.Context) (*snapshot, error) {
		*calls++
		return v, err
	}
}

func TestLookaside_Key(t *testing.T) {
	l := NewLookaside[snapshot](NewMemoryCache(), "user", 0, nil)
	assert.Equal(t, "user:id:42", l.Key(42))
	assert.Equal(t, DefaultTTL, l.ttl)
}

func TestLookaside_MissThenHit(t *testing.T) {
	l := NewLookaside[snapshot](NewMemoryCache(), "user", time.Minute, nil)
	ctx := context.Background()

	calls := 0
	load := countingLoader(&calls, &snapshot{ID: 1, Name: "alice"}, nil)

	got, err := l.GetByID(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	got, err = l.GetByID(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, 1, calls)
}

func TestLookaside_AbsentIsNotCached(t *testing.T) {
	l := NewLookaside[snapshot](NewMemoryCache(), "user", time.Minute, nil)
	ctx := context.Background()

	calls := 0
	notFound := errors.New("not found")

	_, err := l.GetByID(ctx, 7, countingLoader(&calls, nil, notFound))
	assert.ErrorIs(t, err, notFound)
	_, err = l.GetByID(ctx, 7, countingLoader(&calls, nil, nil))
	assert.NoError(t, err)
	_, err = l.GetByID(ctx, 7, countingLoader(&calls, nil, notFound))
	assert.ErrorIs(t, err, notFound)

	assert.Equal(t, 3, calls)
}

func TestLookaside_FailOpen(t *testing.T) {
	l := NewLookaside[snapshot](failingCache{}, "user", time.Minute, nil)

	calls := 0
	got, err := l.GetByID(context.Background(), 1, countingLoader(&calls, &snapshot{ID: 1}, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 1, calls)
}

func TestLookaside_UndecodableSnapshotFallsBack(t *testing.T) {
	mc := NewMemoryCache()
	l := NewLookaside[snapshot](mc, "user", time.Minute, nil)
	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, l.Key(1), []byte("{not json"), 0))

	calls := 0
	got, err := l.GetByID(ctx, 1, countingLoader(&calls, &snapshot{ID: 1, Name: "fresh"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)
	assert.Equal(t, 1, calls)
}

func TestLookaside_StaleWithinTTL(t *testing.T) {
	mc := NewMemoryCache()
	now := time.Unix(1000, 0)
	mc.now = func() time.Time { return now }

	l := NewLookaside[snapshot](mc, "user", time.Minute, nil)
	ctx := context.Background()

	store := &snapshot{ID: 1, Name: "old"}
	load := func(context.Context) (*snapshot, error) {
		cp := *store
		return &cp, nil
	}

	got, err := l.GetByID(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)

	store.Name = "new"

	now = now.Add(30 * time.Second)
	got, err = l.GetByID(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)

	now = now.Add(31 * time.Second)
	got, err = l.GetByID(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
}
