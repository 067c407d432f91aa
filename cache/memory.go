package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	expires time.Time
	value   []byte
}

// MemCache is an in-memory cache provider.
// Use it for tests and single-process development setups.
type MemCache struct {
	mutex *sync.RWMutex
	db    map[string]memEntry
}

func NewMemCache() MemCache {
	return MemCache{
		mutex: &sync.RWMutex{},
		db:    make(map[string]memEntry),
	}
}

func (m MemCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	entry, ok := m.db[key]
	m.mutex.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expires) {
		// expired, clean up lazily
		m.mutex.Lock()
		delete(m.db, key)
		m.mutex.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m MemCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[key] = memEntry{
		expires: time.Now().Add(ttl),
		value:   value,
	}
	return nil
}

func (m MemCache) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, key)
	return nil
}

func (m MemCache) Keys(_ context.Context, pattern string) ([]string, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	keys := make([]string, 0)
	now := time.Now()
	for key, entry := range m.db {
		if now.After(entry.expires) {
			continue
		}
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m MemCache) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[key]
	if !ok {
		return 0, false, nil
	}
	remaining := time.Until(entry.expires)
	if remaining <= 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

func (m MemCache) DeletePattern(_ context.Context, pattern string) (int, error) {
	if err := ValidatePattern(pattern); err != nil {
		return 0, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	count := 0
	for key := range m.db {
		if matchPattern(pattern, key) {
			delete(m.db, key)
			count++
		}
	}
	return count, nil
}

func (m MemCache) Close() error {
	return nil
}

var _ CacheProvider = MemCache{}
