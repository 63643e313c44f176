package appmeta

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the cached metadata entries.
const DefaultCacheSize = 512

type cacheEntry struct {
	label  string
	system bool
}

// Cached wraps a Provider with an LRU cache. Only successful lookups
// are cached: a failing lookup stays failing until the underlying
// provider recovers, which keeps fail-closed classification honest.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, cacheEntry]
}

// NewCached creates a caching wrapper. size <= 0 uses DefaultCacheSize.
func NewCached(inner Provider, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create metadata cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Label implements Provider.
func (c *Cached) Label(appID string) (string, error) {
	if entry, ok := c.cache.Get(appID); ok {
		return entry.label, nil
	}
	entry, err := c.fill(appID)
	if err != nil {
		return "", err
	}
	return entry.label, nil
}

// IsSystemApp implements Provider.
func (c *Cached) IsSystemApp(appID string) (bool, error) {
	if entry, ok := c.cache.Get(appID); ok {
		return entry.system, nil
	}
	entry, err := c.fill(appID)
	if err != nil {
		return false, err
	}
	return entry.system, nil
}

func (c *Cached) fill(appID string) (cacheEntry, error) {
	label, err := c.inner.Label(appID)
	if err != nil {
		return cacheEntry{}, err
	}
	system, err := c.inner.IsSystemApp(appID)
	if err != nil {
		return cacheEntry{}, err
	}
	entry := cacheEntry{label: label, system: system}
	c.cache.Add(appID, entry)
	return entry, nil
}
