package cache

import (
	"context"
	"sync"
	"time"

	"thirdeye/internal/models"
)

// MemoryCache implements Service using in-memory storage
type MemoryCache struct {
	data  map[string]*cacheEntry
	mutex sync.RWMutex
	stop  chan struct{}
}

// cacheEntry represents a single cache entry with optional expiration
type cacheEntry struct {
	value     interface{}
	expiresAt time.Time // zero means the entry never expires
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() Service {
	return newMemoryCache()
}

// newMemoryCache creates the concrete implementation
func newMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]*cacheEntry),
		stop: make(chan struct{}),
	}

	// Start cleanup routine for expiring entries
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached value for the given key
func (m *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	entry, exists := m.data[key]
	if !exists {
		return nil, models.ErrCacheUnavailable
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		// Expired entry; the background routine will remove it
		return nil, models.ErrCacheUnavailable
	}

	return entry.value, nil
}

// Set stores a value in the cache. A non-positive TTL stores it without expiry.
func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.data[key] = entry

	return nil
}

// Delete removes an entry from the cache
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.data, key)
	return nil
}

// cleanupExpired removes expired entries from the cache
func (m *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()

			m.mutex.Lock()
			for key, entry := range m.data {
				if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
					delete(m.data, key)
				}
			}
			m.mutex.Unlock()
		}
	}
}

// Close stops the background cleanup routine. Entries stay readable;
// expired ones are still rejected lazily on Get.
func (m *MemoryCache) Close() error {
	close(m.stop)
	return nil
}

// Size returns the current number of cached entries (for monitoring)
func (m *MemoryCache) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.data)
}
