package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Defaults shared by the completion providers. Individual providers
// override them where their backends behave differently.
const (
	defaultMaxTokens = 512
	defaultTimeout   = 30 * time.Second

	// Low temperature keeps query planning and relevance judging close
	// to deterministic.
	completionTemperature = 0.3
)

// postJSON sends payload to url and decodes the JSON reply into out.
// Non-200 replies are turned into errors by fail, which receives the
// status code and the raw body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload, out any, fail func(status int, body []byte) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pick returns the first value that is not the zero value. Providers use
// it to layer request overrides on configuration on built-in defaults.
func pick[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

// clientTimeout converts a configured timeout in seconds, falling back
// when unset.
func clientTimeout(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
