package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wigg/datalayer/pkg/cache"
)

func TestLRUCache_PutGet(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](3)
	_, replaced := c.Put("wigg-likes|p1|count", 1)
	assert.False(t, replaced)

	old, replaced := c.Put("wigg-likes|p1|count", 2)
	assert.True(t, replaced)
	assert.Equal(t, 1, old)

	v, ok := c.Get("wigg-likes|p1|count")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := cache.NewLRUCache[string, int](2)
	c.SetEvictCallback(func(k string, _ int) { evicted = append(evicted, k) })

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	assert.Equal(t, []string{"b"}, evicted)
	_, ok := c.Get("b")
	assert.False(t, ok)
	for _, k := range []string{"a", "c"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
}

func TestLRUCache_RemoveAndClear(t *testing.T) {
	t.Parallel()

	var evicted int
	c := cache.NewLRUCache[int, string](4)
	c.SetEvictCallback(func(int, string) { evicted++ })
	for i := range 3 {
		c.Put(i, fmt.Sprint(i))
	}

	v, ok := c.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	_, ok = c.Remove(1)
	assert.False(t, ok)

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Equal(t, 3, evicted)
}

func TestNewLRUCache_InvalidCapacity(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
}

func TestLRUCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[int, int](64)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				k := (w*500 + i) % 200
				c.PutIfAbsent(k, i)
				c.Get(k)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 64)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestLRUCache_TTL(t *testing.T) {
	t.Parallel()

	t.Run("entries expire", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		c := cache.NewLRUCache[string, int](10, cache.WithTTL(time.Minute), cache.WithClock(clock.Now))

		c.Put("a", 1)
		clock.Advance(59 * time.Second)
		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)

		clock.Advance(time.Second)
		_, ok = c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len(), "expired entries are removed on access")
	})

	t.Run("put refreshes expiry", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		c := cache.NewLRUCache[string, int](10, cache.WithTTL(time.Minute), cache.WithClock(clock.Now))

		c.Put("a", 1)
		clock.Advance(50 * time.Second)
		c.Put("a", 2)
		clock.Advance(50 * time.Second)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 2, val)
	})

	t.Run("put if absent", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		c := cache.NewLRUCache[string, int](10, cache.WithTTL(time.Minute), cache.WithClock(clock.Now))

		_, loaded := c.PutIfAbsent("k", 1)
		assert.False(t, loaded)

		val, loaded := c.PutIfAbsent("k", 2)
		assert.True(t, loaded)
		assert.Equal(t, 1, val)

		clock.Advance(2 * time.Minute)
		_, loaded = c.PutIfAbsent("k", 3)
		assert.False(t, loaded, "an expired entry counts as absent")

		val, _ = c.Get("k")
		assert.Equal(t, 3, val)
	})

	t.Run("purge", func(t *testing.T) {
		t.Parallel()
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		c := cache.NewLRUCache[string, int](10, cache.WithTTL(time.Minute), cache.WithClock(clock.Now))

		var evicted []string
		c.SetEvictCallback(func(key string, _ int) { evicted = append(evicted, key) })

		c.Put("old", 1)
		clock.Advance(45 * time.Second)
		c.Put("new", 2)
		clock.Advance(30 * time.Second)

		assert.Equal(t, 1, c.Purge())
		assert.Equal(t, []string{"old"}, evicted)
		assert.Equal(t, 1, c.Len())
	})
}
