package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/evidentia/internal/cache"
	"github.com/ppiankov/evidentia/internal/model"
)

// Cached wraps a retriever with result caching. Hits bypass the inner
// backend entirely; errors are never cached.
type Cached struct {
	inner Retriever
	store cache.Cache
	ttl   time.Duration
}

// NewCached wraps inner with the given cache store
func NewCached(inner Retriever, store cache.Cache, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		store: store,
		ttl:   ttl,
	}
}

// Name returns the wrapped backend's name
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Retrieve serves from cache when possible, otherwise delegates and
// stores the result
func (c *Cached) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	key := cache.Key(c.inner.Name(), query, k)

	if data, found := c.store.Get(key); found {
		var docs []model.Document
		if err := json.Unmarshal(data, &docs); err == nil {
			return docs, nil
		}
		// Corrupt entry, drop it and fall through to the backend
		_ = c.store.Delete(key)
	}

	docs, err := c.inner.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(docs); err == nil {
		_ = c.store.Set(key, data, c.ttl)
	}

	return docs, nil
}
