package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory holds entries in process memory with TTL expiration. The hot
// layer: repeated queries within one eval run usually resolve here.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a memory cache whose entries default to ttl. Expired
// entries are swept every ten minutes.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Get returns the entry for key when present and unexpired
func (m *Memory) Get(key string) ([]byte, bool) {
	if val, found := m.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores value under key; ttl zero means the cache default
func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, value, ttl)
	return nil
}

// Delete removes key
func (m *Memory) Delete(key string) error {
	m.cache.Delete(key)
	return nil
}

// Clear drops every entry
func (m *Memory) Clear() error {
	m.cache.Flush()
	return nil
}
