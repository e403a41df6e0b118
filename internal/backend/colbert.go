package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
	"github.com/ppiankov/evidentia/internal/util"
)

// ColBERT retrieves passages from a ColBERT-style HTTP retrieval server.
// The server exposes a single GET endpoint taking query and k parameters
// and returns ranked passages as "Title | body" text.
type ColBERT struct {
	url        string
	httpClient *http.Client
	userAgent  string
	maxBody    int64
}

// colbertResponse is the retrieval server's answer shape
type colbertResponse struct {
	TopK []colbertPassage `json:"topk"`
}

type colbertPassage struct {
	Text     string  `json:"text"`
	LongText string  `json:"long_text"`
	PID      int     `json:"pid"`
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
	Prob     float64 `json:"prob"`
}

// NewColBERT creates a retrieval server client
func NewColBERT(serverURL string, cfg *model.Config) *ColBERT {
	return &ColBERT{
		url: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout(cfg),
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
		userAgent: cfg.HTTP.UserAgent,
		maxBody:   cfg.HTTP.MaxBodyBytes,
	}
}

// Name returns the backend name
func (c *ColBERT) Name() string {
	return "colbert"
}

// Retrieve queries the retrieval server for the top k passages
func (c *ColBERT) Retrieve(ctx context.Context, query string, k int) ([]model.Document, error) {
	reqURL := fmt.Sprintf("%s?query=%s&k=%d", c.url, url.QueryEscape(query), k)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query retrieval server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieval server returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed colbertResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	docs := make([]model.Document, 0, len(parsed.TopK))
	for i, passage := range parsed.TopK {
		if i >= k {
			break
		}
		text := passage.LongText
		if text == "" {
			text = passage.Text
		}
		title, content := splitPassage(text)
		if title == "" {
			continue
		}
		docs = append(docs, model.Document{
			Title:   title,
			Content: content,
			Rank:    i + 1,
			Backend: c.Name(),
		})
	}

	return docs, nil
}

// splitPassage separates the leading title from the passage body. Passages
// arrive as "Title | body"; a passage without the separator is all title.
func splitPassage(text string) (string, string) {
	title, content, found := strings.Cut(text, " | ")
	if !found {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(title), strings.TrimSpace(content)
}
