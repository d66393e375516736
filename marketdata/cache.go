package marketdata

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rustyeddy/nodepnl/series"
)

// Source serves factor and FX histories.
type Source interface {
	Lookup(ctx context.Context, factorID string) (series.Raw, bool, error)
	FXSeries(ctx context.Context, pair string) (series.Raw, bool, error)
}

type cacheEntry struct {
	raw series.Raw
	ok  bool
}

// Cache memoizes a Source for the life of a run. Concurrent misses on the
// same key share one load. Errors are not cached.
type Cache struct {
	next Source

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
	loads   int
}

func NewCache(next Source) *Cache {
	return &Cache{
		next:    next,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Lookup(ctx context.Context, factorID string) (series.Raw, bool, error) {
	return c.get("factor:"+factorID, func() (series.Raw, bool, error) {
		return c.next.Lookup(ctx, factorID)
	})
}

func (c *Cache) FXSeries(ctx context.Context, pair string) (series.Raw, bool, error) {
	return c.get("fx:"+pair, func() (series.Raw, bool, error) {
		return c.next.FXSeries(ctx, pair)
	})
}

// Loads reports how many lookups reached the underlying source.
func (c *Cache) Loads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads
}

func (c *Cache) get(key string, load func() (series.Raw, bool, error)) (series.Raw, bool, error) {
	c.mu.RLock()
	e, hit := c.entries[key]
	c.mu.RUnlock()
	if hit {
		return e.raw, e.ok, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		e, hit := c.entries[key]
		c.mu.RUnlock()
		if hit {
			return e, nil
		}

		raw, ok, err := load()
		if err != nil {
			return nil, err
		}
		e = cacheEntry{raw: raw, ok: ok}

		c.mu.Lock()
		c.entries[key] = e
		c.loads++
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return series.Raw{}, false, err
	}
	e = v.(cacheEntry)
	return e.raw, e.ok, nil
}
