// Package cache stores serialized retrieval results so repeated queries
// against the same backend do not hit the network again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache is the storage interface the retrieval decorator writes through.
// Misses come back as (nil, false); a zero ttl on Set means the
// implementation's default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key for a retrieval request. Backend name, query
// text, and result count all participate so distinct requests never collide.
func Key(backend, query string, k int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", backend, query, k)))
	return "evidentia:v1:" + hex.EncodeToString(hash[:])
}
