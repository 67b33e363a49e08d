package cad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultModelCacheSize is the number of models kept when no size is given.
const DefaultModelCacheSize = 16

// Loader fetches the binary model at url.
type Loader func(ctx context.Context, url string) ([]byte, error)

// ModelCache shares loaded CAD models across viewers. Models held by at least
// one Handle are never evicted; released models are evicted least recently
// used first once the cache holds more than its capacity.
type ModelCache struct {
	load     Loader
	capacity int
	flight   singleflight.Group

	mu    sync.Mutex
	inUse map[string]*modelEntry
	idle  *lru.Cache[string, []byte]
}

type modelEntry struct {
	data []byte
	refs int
}

// Handle is a reference to a cached model. Release it when the viewer unmounts.
type Handle struct {
	cache *ModelCache
	url   string
	data  []byte
	once  sync.Once
}

// Data returns the model bytes.
func (h *Handle) Data() []byte { return h.data }

// URL is the model source url.
func (h *Handle) URL() string { return h.url }

// Release drops the reference. It is safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(func() { h.cache.release(h.url) })
}

// NewModelCache builds a cache of capacity models backed by load.
func NewModelCache(capacity int, load Loader) (*ModelCache, error) {
	if capacity <= 0 {
		capacity = DefaultModelCacheSize
	}
	if load == nil {
		return nil, errors.New("cad: model loader is required")
	}
	idle, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("cad: create model cache: %w", err)
	}
	return &ModelCache{
		load:     load,
		capacity: capacity,
		inUse:    make(map[string]*modelEntry),
		idle:     idle,
	}, nil
}

// Acquire returns a handle to the model at url, loading it when absent.
// Concurrent acquisitions of one url share a single load.
func (c *ModelCache) Acquire(ctx context.Context, url string) (*Handle, error) {
	if url == "" {
		return nil, errors.New("cad: model url is required")
	}
	if h, ok := c.acquireCached(url); ok {
		return h, nil
	}
	v, err, _ := c.flight.Do(url, func() (any, error) {
		return c.load(ctx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("cad: load model %s: %w", url, err)
	}
	data := v.([]byte)

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.inUse[url]; ok {
		entry.refs++
		return &Handle{cache: c, url: url, data: entry.data}, nil
	}
	c.idle.Remove(url)
	c.inUse[url] = &modelEntry{data: data, refs: 1}
	c.trimLocked()
	return &Handle{cache: c, url: url, data: data}, nil
}

func (c *ModelCache) acquireCached(url string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.inUse[url]; ok {
		entry.refs++
		return &Handle{cache: c, url: url, data: entry.data}, true
	}
	if data, ok := c.idle.Get(url); ok {
		c.idle.Remove(url)
		c.inUse[url] = &modelEntry{data: data, refs: 1}
		return &Handle{cache: c, url: url, data: data}, true
	}
	return nil, false
}

func (c *ModelCache) release(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.inUse[url]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs > 0 {
		return
	}
	delete(c.inUse, url)
	c.idle.Add(url, entry.data)
	c.trimLocked()
}

func (c *ModelCache) trimLocked() {
	for len(c.inUse)+c.idle.Len() > c.capacity && c.idle.Len() > 0 {
		c.idle.RemoveOldest()
	}
}

// Contains reports whether url is cached, in use or idle.
func (c *ModelCache) Contains(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inUse[url]; ok {
		return true
	}
	return c.idle.Contains(url)
}

// Refs reports the number of live handles to url.
func (c *ModelCache) Refs(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.inUse[url]; ok {
		return entry.refs
	}
	return 0
}

// Len reports the number of cached models.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inUse) + c.idle.Len()
}

// HTTPLoader downloads models with client, retrying transient failures.
func HTTPLoader(client *retryablehttp.Client) Loader {
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = nil
	}
	return func(ctx context.Context, url string) ([]byte, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
}
