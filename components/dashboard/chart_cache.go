package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// RenderCache memoizes rendered chart HTML so repeated refreshes are cheap.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache is a TTL cache for rendered charts. Concurrent misses on the
// same key render once.
type ChartCache struct {
	items  *cache.Cache
	flight singleflight.Group
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL
// disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	if ttl <= 0 {
		return &ChartCache{}
	}
	return &ChartCache{items: cache.New(ttl, 2*ttl)}
}

// GetOrRender returns the cached HTML for key or renders and stores it.
// Render errors are not cached.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.items == nil {
		return render()
	}
	if html, ok := c.items.Get(key); ok {
		return html.(string), nil
	}
	v, err, _ := c.flight.Do(key, func() (any, error) {
		html, err := render()
		if err != nil {
			return "", err
		}
		c.items.SetDefault(key, html)
		return html, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len reports the number of stored entries, including expired ones not yet
// purged.
func (c *ChartCache) Len() int {
	if c == nil || c.items == nil {
		return 0
	}
	return c.items.ItemCount()
}

// Purge drops expired entries.
func (c *ChartCache) Purge() {
	if c == nil || c.items == nil {
		return
	}
	c.items.DeleteExpired()
}

// configHash returns a deterministic hash for any JSON-encodable value.
func configHash(v any) string {
	if v == nil {
		return "empty"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
