package bench

import (
	"gametree/cache"
	"gametree/game"
)

// Cache meters a decorated transposition cache.
type Cache struct {
	stats *Stats
	inner cache.Cache
}

var _ cache.Cache = (*Cache)(nil)

// NewCache decorates a cache with the given accumulator.
func NewCache(stats *Stats, inner cache.Cache) *Cache {
	return &Cache{stats: stats, inner: inner}
}

// Inner returns the decorated cache.
func (c *Cache) Inner() cache.Cache {
	return c.inner
}

// Find counts a probe.
func (c *Cache) Find(g game.Game) (cache.Entry, bool) {
	c.stats.Cache.Increment()
	return c.inner.Find(g)
}

func (c *Cache) Store(g game.Game, score, move, depth int, flag cache.Flag) {
	c.inner.Store(g, score, move, depth, flag)
}

func (c *Cache) Discharge()              { c.inner.Discharge() }
func (c *Cache) Resize(sizeBytes int64)  { c.inner.Resize(sizeBytes) }
func (c *Cache) Clear()                  { c.inner.Clear() }
func (c *Cache) Size() int64             { return c.inner.Size() }
