package tabula

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds records read by identifier. Tables consult it in GetByID and
// invalidate it on every write. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the cached record and whether it was found.
	Get(ctx context.Context, key string) (Record, bool)

	// Set stores a record under key.
	Set(ctx context.Context, key string, rec Record)

	// Delete removes a record.
	Delete(ctx context.Context, key string)

	// DeletePrefix removes every record whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string)
}

// CacheKey identifies a cached record.
type CacheKey struct {
	Table string
	ID    any
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Table + ":" + fmt.Sprint(k.ID)
}

// MemoryCache is an in-process Cache with per-entry expiration.
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache returns a MemoryCache whose entries expire after ttl and
// are purged every cleanup interval. A ttl <= 0 keeps entries until they
// are invalidated.
func NewMemoryCache(ttl, cleanup time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{c: gocache.New(ttl, cleanup)}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, key string) (Record, bool) {
	v, found := m.c.Get(key)
	if !found {
		return nil, false
	}
	return v.(Record).Clone(), true
}

// Set implements Cache.
func (m *MemoryCache) Set(_ context.Context, key string, rec Record) {
	m.c.Set(key, rec.Clone(), gocache.DefaultExpiration)
}

// Delete implements Cache.
func (m *MemoryCache) Delete(_ context.Context, key string) {
	m.c.Delete(key)
}

// DeletePrefix implements Cache.
func (m *MemoryCache) DeletePrefix(_ context.Context, prefix string) {
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			m.c.Delete(k)
		}
	}
}

// Len returns the number of cached records, including expired ones not yet
// purged.
func (m *MemoryCache) Len() int {
	return m.c.ItemCount()
}
