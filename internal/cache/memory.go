package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache used in tests and when no redis URL is
// configured alongside the API shell.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]time.Time
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]time.Time)}
}

func (m *MemoryCache) Close() error { return nil }

func (m *MemoryCache) IsPushed(ctx context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.data[hash]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(m.data, hash)
		return false, nil
	}
	return true, nil
}

func (m *MemoryCache) MarkPushed(ctx context.Context, hash string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[hash] = time.Now().Add(ttl)
	return nil
}
