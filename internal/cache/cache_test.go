package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mantle/internal/library"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(max int) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(Options{TTL: 10 * time.Minute, MaxEntries: max, Now: clock.Now}), clock
}

func chapters(labels ...string) []library.Chapter {
	out := make([]library.Chapter, len(labels))
	for i, l := range labels {
		out[i] = library.Chapter{Label: l}
	}
	return out
}

func staticFetch(calls *int, labels ...string) FetchFunc {
	return func(context.Context) ([]library.Chapter, error) {
		*calls++
		return chapters(labels...), nil
	}
}

func TestGetChapters_HitSkipsFetch(t *testing.T) {
	c, _ := newTestCache(5)
	ctx := context.Background()
	key := Key{EntryID: 1, URL: "https://example.org/a", InternalID: "a"}

	first, err := c.GetChapters(ctx, key, func(context.Context) ([]library.Chapter, error) {
		return chapters("1", "2"), nil
	})
	require.NoError(t, err)

	second, err := c.GetChapters(ctx, key, func(context.Context) ([]library.Chapter, error) {
		return nil, errors.New("provider down")
	})
	require.NoError(t, err, "second call within TTL must not fetch")
	assert.Equal(t, first, second)
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestGetChapters_ExpiredEntryRefetches(t *testing.T) {
	c, clock := newTestCache(5)
	ctx := context.Background()
	key := Key{EntryID: 1}
	calls := 0

	_, err := c.GetChapters(ctx, key, staticFetch(&calls, "1"))
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, err = c.GetChapters(ctx, key, staticFetch(&calls, "1"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Minute)
	got, err := c.GetChapters(ctx, key, staticFetch(&calls, "1", "2"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, got, 2)
}

func TestGetChapters_FailureIsNotCached(t *testing.T) {
	c, _ := newTestCache(5)
	ctx := context.Background()
	key := Key{EntryID: 1}
	boom := errors.New("boom")

	_, err := c.GetChapters(ctx, key, func(context.Context) ([]library.Chapter, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	calls := 0
	_, err = c.GetChapters(ctx, key, staticFetch(&calls, "1"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetChapters_EvictsOldestInserted(t *testing.T) {
	c, clock := newTestCache(3)
	ctx := context.Background()
	calls := 0

	for i := 1; i <= 3; i++ {
		_, err := c.GetChapters(ctx, Key{EntryID: i}, staticFetch(&calls, fmt.Sprint(i)))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	// A hit on key 1 does not change insertion order.
	_, err := c.GetChapters(ctx, Key{EntryID: 1}, staticFetch(&calls, "x"))
	require.NoError(t, err)

	_, err = c.GetChapters(ctx, Key{EntryID: 4}, staticFetch(&calls, "4"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	before := calls
	_, err = c.GetChapters(ctx, Key{EntryID: 1}, staticFetch(&calls, "1"))
	require.NoError(t, err)
	assert.Equal(t, before+1, calls, "key 1 was the oldest insert and should have been evicted")
	assert.Equal(t, 3, c.Len())
}

func TestGetChapters_EvictionIgnoresClockTies(t *testing.T) {
	c, _ := newTestCache(2)
	ctx := context.Background()
	calls := 0

	for _, id := range []int{1, 2, 3} {
		_, err := c.GetChapters(ctx, Key{EntryID: id}, staticFetch(&calls, "x"))
		require.NoError(t, err)
	}
	before := calls
	_, err := c.GetChapters(ctx, Key{EntryID: 2}, staticFetch(&calls, "x"))
	require.NoError(t, err)
	_, err = c.GetChapters(ctx, Key{EntryID: 3}, staticFetch(&calls, "x"))
	require.NoError(t, err)
	assert.Equal(t, before, calls)
}

func TestGetChapters_NeverExceedsCapacity(t *testing.T) {
	c, _ := newTestCache(5)
	ctx := context.Background()
	calls := 0
	for i := 0; i < 50; i++ {
		_, err := c.GetChapters(ctx, Key{EntryID: i % 13}, staticFetch(&calls, "1"))
		require.NoError(t, err)
		require.LessOrEqual(t, c.Len(), 5)
	}
}

func TestGetChapters_ReturnsCopies(t *testing.T) {
	c, _ := newTestCache(5)
	ctx := context.Background()
	key := Key{EntryID: 1}
	calls := 0

	got, err := c.GetChapters(ctx, key, staticFetch(&calls, "1"))
	require.NoError(t, err)
	got[0].Label = "mutated"

	again, err := c.GetChapters(ctx, key, staticFetch(&calls, "1"))
	require.NoError(t, err)
	assert.Equal(t, "1", again[0].Label)
}

func TestGetChapters_ConcurrentCallers(t *testing.T) {
	c := New(Options{MaxEntries: 4})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.GetChapters(ctx, Key{EntryID: i % 8}, func(context.Context) ([]library.Chapter, error) {
				time.Sleep(time.Millisecond)
				return chapters("1"), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 4)
}

func TestInvalidateAndPurge(t *testing.T) {
	c, _ := newTestCache(5)
	ctx := context.Background()
	calls := 0

	for i := 0; i < 3; i++ {
		_, err := c.GetChapters(ctx, Key{EntryID: i}, staticFetch(&calls, "1"))
		require.NoError(t, err)
	}
	c.Invalidate(Key{EntryID: 0})
	assert.Equal(t, 2, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())
}
