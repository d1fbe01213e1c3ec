package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(capacity int, ttl time.Duration) (*LRUCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 11, 10, 9, 0, 0, 0, time.UTC)}
	return NewLRUCache(capacity, ttl).WithClock(clock.Now), clock
}

func TestLRUCache_BasicOperations(t *testing.T) {
	c, _ := newTestCache(100, time.Minute)

	t.Run("SetAndGet", func(t *testing.T) {
		c.Set("session:a", []byte(`{"history":[]}`), 0)

		val, ok := c.Get("session:a")
		assert.True(t, ok)
		assert.Equal(t, []byte(`{"history":[]}`), val)
	})

	t.Run("GetMissing", func(t *testing.T) {
		val, ok := c.Get("session:missing")
		assert.False(t, ok)
		assert.Nil(t, val)
	})

	t.Run("Overwrite", func(t *testing.T) {
		c.Set("session:b", []byte("v1"), 0)
		c.Set("session:b", []byte("v2"), 0)

		val, ok := c.Get("session:b")
		assert.True(t, ok)
		assert.Equal(t, []byte("v2"), val)
	})

	t.Run("ValuesAreCopied", func(t *testing.T) {
		buf := []byte("abc")
		c.Set("session:c", buf, 0)
		buf[0] = 'x'

		val, _ := c.Get("session:c")
		assert.Equal(t, []byte("abc"), val)

		val[1] = 'y'
		again, _ := c.Get("session:c")
		assert.Equal(t, []byte("abc"), again)
	})
}

func TestLRUCache_Expiration(t *testing.T) {
	c, clock := newTestCache(100, time.Minute)

	c.Set("short", []byte("v"), 10*time.Second)
	c.Set("default", []byte("v"), 0)

	clock.Advance(9 * time.Second)
	_, ok := c.Get("short")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("short")
	assert.False(t, ok, "entry expires exactly at its deadline")

	_, ok = c.Get("default")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.Get("default")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache(3, time.Minute)

	c.Set("k1", []byte("1"), 0)
	c.Set("k2", []byte("2"), 0)
	c.Set("k3", []byte("3"), 0)

	// Touch k1 so k2 becomes least recently used.
	_, _ = c.Get("k1")
	c.Set("k4", []byte("4"), 0)

	_, ok := c.Get("k2")
	assert.False(t, ok, "k2 should have been evicted")
	for _, k := range []string{"k1", "k3", "k4"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestLRUCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(100, time.Minute)
	c.Set("session:1", []byte("a"), 0)
	c.Set("session:2", []byte("b"), 0)
	c.Set("metrics:1", []byte("c"), 0)

	assert.Equal(t, 1, c.Invalidate("session:1"))
	assert.Equal(t, 0, c.Invalidate("session:1"))
	assert.Equal(t, 1, c.Invalidate("session:*"))

	_, ok := c.Get("metrics:1")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	c, clock := newTestCache(100, time.Minute)
	c.Set("a", []byte("1"), 10*time.Second)
	c.Set("b", []byte("2"), 10*time.Second)
	c.Set("c", []byte("3"), time.Hour)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 2, c.CleanupExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_Stats(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", []byte("1"), 0)

	_, _ = c.Get("a")
	_, _ = c.Get("a")
	_, _ = c.Get("b")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)

	c.Clear()
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, uint64(2), c.Stats().Hits)
}

func TestLRUCache_Defaults(t *testing.T) {
	c := NewLRUCache(0, 0)
	assert.Equal(t, defaultCapacity, c.capacity)
	assert.Equal(t, defaultTTL, c.defaultTTL)
}

func TestLRUCache_Concurrent(t *testing.T) {
	c, _ := newTestCache(50, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("session:%d", (worker*200+j)%80)
				c.Set(key, []byte("x"), 0)
				_, _ = c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 50)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{Capacity: 10, DefaultTTL: time.Minute, CleanupInterval: 10 * time.Millisecond})
	defer svc.Close()

	require.NoError(t, svc.Set(ctx, "session:x", []byte("state"), 0))
	val, ok := svc.Get(ctx, "session:x")
	require.True(t, ok)
	assert.Equal(t, []byte("state"), val)

	require.NoError(t, svc.Invalidate(ctx, "session:*"))
	_, ok = svc.Get(ctx, "session:x")
	assert.False(t, ok)

	assert.Equal(t, uint64(1), svc.Stats().Hits)
	assert.Equal(t, uint64(1), svc.Stats().Misses)

	svc.Close()
	svc.Close()
}

func TestService_SweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{Capacity: 10, DefaultTTL: time.Minute, CleanupInterval: 5 * time.Millisecond})
	defer svc.Close()

	require.NoError(t, svc.Set(ctx, "gone", []byte("v"), time.Millisecond))
	assert.Eventually(t, func() bool {
		return svc.Stats().Size == 0
	}, time.Second, 5*time.Millisecond)
}
