package client

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"
)

// Default cache limits.
const (
	DefaultCacheCapacity = 256
	DefaultCacheTTL      = 5 * time.Minute
)

type cacheEntry struct {
	key     string
	html    string
	expires time.Time
}

// Cache holds rendered markup with least-recently-used eviction and a
// per-entry time to live. It is safe for concurrent use.
type Cache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

// NewCache creates a cache. A non-positive capacity or ttl uses the
// defaults.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached markup for key if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := el.Value.(*cacheEntry)
	if !c.now().Before(entry.expires) {
		c.removeLocked(el)
		return "", false
	}

	c.order.MoveToFront(el)
	return entry.html, true
}

// Set stores html under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Set(key, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.html = html
		entry.expires = expires
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, html: html, expires: expires})
	for c.order.Len() > c.capacity {
		c.removeLocked(c.order.Back())
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

func (c *Cache) removeLocked(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

// CacheKey identifies a render by component identifier and the canonical
// JSON of its arguments and context. encoding/json sorts map keys, so equal
// maps give equal keys.
func CacheKey(id string, args map[string]any, rc RenderContext) string {
	if args == nil {
		args = map[string]any{}
	}

	a, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	ctx, err := json.Marshal(rc.withDefaults())
	if err != nil {
		return ""
	}

	return id + "\x00" + string(a) + "\x00" + string(ctx)
}
