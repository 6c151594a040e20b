package mapping

import (
	"sync"

	"chart-annotator/internal/annotation"
	"chart-annotator/pkg/geometry"
)

type cacheKey struct {
	id     string
	handle annotation.Handle
}

// PixelCache remembers the last pixel position computed for each shape
// endpoint.
type PixelCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]geometry.Point2D
}

// NewPixelCache creates an empty cache.
func NewPixelCache() *PixelCache {
	return &PixelCache{entries: make(map[cacheKey]geometry.Point2D)}
}

// Get returns the cached position of the endpoint.
func (c *PixelCache) Get(id string, h annotation.Handle) (geometry.Point2D, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[cacheKey{id, h}]
	return p, ok
}

// Put stores the position of the endpoint.
func (c *PixelCache) Put(id string, h annotation.Handle, p geometry.Point2D) {
	c.mu.Lock()
	c.entries[cacheKey{id, h}] = p
	c.mu.Unlock()
}

// Invalidate forgets every position.
func (c *PixelCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]geometry.Point2D)
	c.mu.Unlock()
}

// Len returns the number of cached endpoints.
func (c *PixelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
