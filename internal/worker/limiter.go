package worker

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// Limiter applies per-host rate limits. Every host gets an independent
// token bucket, created lazily on first use.
type Limiter struct {
	mu      sync.Mutex
	perHost map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

// NewLimiter creates a limiter with the given per-host rate.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Limiter{
		perHost: make(map[string]*rate.Limiter),
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
	}
}

// Wait blocks until the host of rawURL has capacity or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	bucket, err := l.bucket(rawURL)
	if err != nil {
		return err
	}
	return bucket.Wait(ctx)
}

// bucket returns the token bucket for rawURL's host, creating it on
// first use.
func (l *Limiter) bucket(rawURL string) (*rate.Limiter, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.perHost[parsed.Host]
	if !ok {
		bucket = rate.NewLimiter(l.rate, l.burst)
		l.perHost[parsed.Host] = bucket
	}
	return bucket, nil
}
