// Package backend provides document retrieval backends. All backends
// answer the same question: given a query and a result count, return the
// top matching documents in rank order.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/evidentia/internal/cache"
	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/worker"
)

// Retriever is the retrieval interface used by the engine
type Retriever interface {
	// Name returns the backend name
	Name() string

	// Retrieve returns up to k documents matching the query, best first
	Retrieve(ctx context.Context, query string, k int) ([]model.Document, error)
}

// New creates the configured retriever. Local backends ingest their corpus
// before returning, so this can take a while for large corpora.
func New(ctx context.Context, cfg *model.Config) (Retriever, error) {
	var retriever Retriever

	switch strings.ToLower(cfg.Backend.Kind) {
	case "colbert", "":
		retriever = NewColBERT(cfg.Backend.URL, cfg)

	case "wiki", "wikipedia":
		limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.Burst)
		retriever = NewWiki(cfg.Backend.WikiAPI, cfg, limiter)

	case "local", "vector":
		if cfg.Backend.CorpusPath == "" {
			return nil, fmt.Errorf("local backend requires a corpus path")
		}
		local, err := NewLocal(ctx, cfg.Backend.CorpusPath, cfg.Backend.VectorDim, cfg.Concurrency.IngestWorkers)
		if err != nil {
			return nil, fmt.Errorf("build local backend: %w", err)
		}
		retriever = local

	default:
		return nil, fmt.Errorf("unknown backend: %s (supported: colbert, wiki, local)", cfg.Backend.Kind)
	}

	if cfg.Cache.Enabled {
		store := cache.NewLayered(
			cfg.Cache.MemoryTTL,
			cfg.Cache.Dir,
			cfg.Cache.DiskTTL,
		)
		retriever = NewCached(retriever, store, cfg.Cache.DiskTTL)
	}

	return retriever, nil
}

// clientTimeout picks the backend timeout, falling back to the shared
// HTTP timeout and then a fixed default
func clientTimeout(cfg *model.Config) time.Duration {
	if cfg.Backend.Timeout > 0 {
		return cfg.Backend.Timeout
	}
	if cfg.HTTP.Timeout > 0 {
		return cfg.HTTP.Timeout
	}
	return 30 * time.Second
}
