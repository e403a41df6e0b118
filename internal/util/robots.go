package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a URL may be fetched under its host's
// robots.txt, caching one parsed policy per host. Retrieval backends
// consult it before every search call.
type RobotsChecker struct {
	mu         sync.RWMutex
	policies   map[string]*robotstxt.RobotsData
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a checker matching rules against userAgent
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		policies:   make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// CanFetch reports whether rawURL may be fetched and the crawl delay the
// host requests. A host whose robots.txt cannot be fetched or parsed is
// treated as allowing everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	group := r.policy(ctx, parsed).FindGroup(r.userAgent)
	if group == nil {
		return true, 0, nil
	}
	return group.Test(parsed.RequestURI()), group.CrawlDelay, nil
}

// policy returns the cached robots.txt for the URL's host, fetching it on
// first use. Failures cache an allow-all policy so an unreachable
// robots.txt is not refetched on every query.
func (r *RobotsChecker) policy(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	r.mu.RLock()
	policy, ok := r.policies[u.Host]
	r.mu.RUnlock()
	if ok {
		return policy
	}

	policy = r.fetch(ctx, u)

	r.mu.Lock()
	r.policies[u.Host] = policy
	r.mu.Unlock()
	return policy
}

func (r *RobotsChecker) fetch(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return allowAll()
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return allowAll()
	}
	defer func() { _ = resp.Body.Close() }()

	policy, err := robotstxt.FromResponse(resp)
	if err != nil {
		return allowAll()
	}
	return policy
}

func allowAll() *robotstxt.RobotsData {
	data, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	return data
}

// Clear drops every cached policy
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = make(map[string]*robotstxt.RobotsData)
}

// NormalizeUserAgent reduces a full User-Agent header to the bare
// product token robots.txt groups are named by
func NormalizeUserAgent(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	return strings.Split(fields[0], "/")[0]
}
