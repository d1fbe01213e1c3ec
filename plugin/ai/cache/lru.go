package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const (
	defaultCapacity = 1000
	defaultTTL      = 5 * time.Minute
)

// LRUCache is a bounded least-recently-used cache whose entries also expire.
type LRUCache struct {
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time

	mu        sync.Mutex
	items     map[string]*list.Element
	order     *list.List // front is most recently used
	hits      uint64
	misses    uint64
	evictions uint64
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LRUCache{
		capacity:   capacity,
		defaultTTL: ttl,
		now:        time.Now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// WithClock replaces the expiry clock. Intended for tests.
func (c *LRUCache) WithClock(now func() time.Time) *LRUCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get returns a copy of the value stored under key.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if !c.now().Before(e.expiresAt) {
		c.remove(el)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return cloneBytes(e.value), true
}

// Set stores a copy of value under key.
func (c *LRUCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = cloneBytes(value)
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	for len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest)
		c.evictions++
	}

	c.items[key] = c.order.PushFront(&entry{
		key:       key,
		value:     cloneBytes(value),
		expiresAt: expiresAt,
	})
}

// Invalidate removes key, or every key with the given prefix when pattern ends in "*".
// Returns the number of entries removed.
func (c *LRUCache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix, wildcard := strings.CutSuffix(pattern, "*")
	if !wildcard {
		if el, ok := c.items[pattern]; ok {
			c.remove(el)
			return 1
		}
		return 0
	}

	removed := 0
	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.remove(el)
			removed++
		}
	}
	return removed
}

// CleanupExpired removes all expired entries and returns how many were dropped.
func (c *LRUCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry).expiresAt) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Size returns the number of entries, expired or not.
func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit, miss and eviction counters.
func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Size: len(c.items)}
}

// Clear removes all entries. Counters are kept.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// remove must be called with the lock held.
func (c *LRUCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
