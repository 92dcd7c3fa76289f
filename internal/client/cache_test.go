package client

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheLRU(t *testing.T) {
	c := NewCache(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Set("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, c.Len())
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("a", "1")
	now = now.Add(999 * time.Millisecond)
	_, ok := c.Get("a")
	assert.True(t, ok)

	now = now.Add(time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheOverwriteRefreshes(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("a", "1")
	now = now.Add(900 * time.Millisecond)
	c.Set("a", "2")
	now = now.Add(900 * time.Millisecond)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheDefaultsAndClear(t *testing.T) {
	c := NewCache(0, 0)
	assert.Equal(t, DefaultCacheCapacity, c.capacity)
	assert.Equal(t, DefaultCacheTTL, c.ttl)

	for i := 0; i < DefaultCacheCapacity+10; i++ {
		c.Set(fmt.Sprint(i), "x")
	}
	assert.Equal(t, DefaultCacheCapacity, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("300")
	assert.False(t, ok)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("components.button", map[string]any{"x": 1, "y": []any{"a"}}, RenderContext{})
	b := CacheKey("components.button", map[string]any{"y": []any{"a"}, "x": 1}, RenderContext{Theme: "light", Viewport: "story"})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, CacheKey("components.card", map[string]any{"x": 1, "y": []any{"a"}}, RenderContext{}))
	assert.NotEqual(t, a, CacheKey("components.button", map[string]any{"x": 1, "y": []any{"a"}}, RenderContext{Theme: "dark"}))
	assert.Equal(t, CacheKey("c", nil, RenderContext{}), CacheKey("c", map[string]any{}, RenderContext{}))
	assert.Empty(t, CacheKey("c", map[string]any{"f": func() {}}, RenderContext{}))
}
