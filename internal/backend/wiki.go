package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/util"
	"github.com/ppiankov/evidentia/internal/worker"
)

// Wiki retrieves documents through the MediaWiki search API, enriching
// hits with plain-text intro extracts. Requests honor robots.txt and the
// per-host rate limiter.
type Wiki struct {
	apiURL     string
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	userAgent  string
	maxBody    int64
}

// wikiResponse is the subset of the MediaWiki search answer we read
type wikiResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// wikiExtractResponse is the subset of the extracts answer we read
type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// NewWiki creates a MediaWiki search backend
func NewWiki(apiURL string, cfg *model.Config, limiter *worker.Limiter) *Wiki {
	timeout := clientTimeout(cfg)

	return &Wiki{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   limiter,
		robots:    util.NewRobotsChecker(util.NormalizeUserAgent(cfg.HTTP.UserAgent), timeout),
		userAgent: cfg.HTTP.UserAgent,
		maxBody:   cfg.HTTP.MaxBodyBytes,
	}
}

// Name returns the backend name
func (w *Wiki) Name() string {
	return "wiki"
}

// Retrieve runs a full-text search and returns the top k pages
func (w *Wiki) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	allowed, crawlDelay, err := w.robots.CanFetch(ctx, w.apiURL)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("robots.txt disallows %s", w.apiURL)
	}

	if err := w.limiter.Wait(ctx, w.apiURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	if crawlDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(crawlDelay):
		}
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", k))
	params.Set("srprop", "snippet")
	params.Set("format", "json")
	params.Set("utf8", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiki API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed wikiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	docs := make([]model.Document, 0, len(parsed.Query.Search))
	titles := make([]string, 0, len(parsed.Query.Search))
	for i, hit := range parsed.Query.Search {
		if i >= k {
			break
		}
		docs = append(docs, model.Document{
			Title:   hit.Title,
			Content: stripTags(hit.Snippet),
			Rank:    i + 1,
			Backend: w.Name(),
		})
		titles = append(titles, hit.Title)
	}

	// Intro extracts replace snippets where available; a failed
	// enrichment keeps the stripped snippet
	if len(titles) > 0 {
		extracts := w.fetchExtracts(ctx, titles)
		for i := range docs {
			if text, ok := extracts[model.TitleKey(docs[i].Title)]; ok {
				docs[i].Content = text
			}
		}
	}

	return docs, nil
}

// fetchExtracts returns plain-text intro extracts keyed by normalized
// title. Enrichment is best effort and returns nil on any failure.
func (w *Wiki) fetchExtracts(ctx context.Context, titles []string) map[string]string {
	// The extracts API caps at 20 titles per request
	if len(titles) > 20 {
		titles = titles[:20]
	}

	if err := w.limiter.Wait(ctx, w.apiURL); err != nil {
		return nil
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exlimit", "max")
	params.Set("titles", strings.Join(titles, "|"))
	params.Set("format", "json")
	params.Set("utf8", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBody))
	if err != nil {
		return nil
	}

	var parsed wikiExtractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}

	extracts := make(map[string]string, len(parsed.Query.Pages))
	for _, page := range parsed.Query.Pages {
		if page.Extract == "" {
			continue
		}
		extracts[model.TitleKey(page.Title)] = strings.Join(strings.Fields(page.Extract), " ")
	}

	return extracts
}

// stripTags removes HTML markup from a search snippet, keeping the text
func stripTags(snippet string) string {
	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(snippet))

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(tokenizer.Text())
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}
