package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Claude models used when the configuration does not name one. The probe
// model is the cheapest one that can answer a one-token request.
const (
	anthropicDefaultModel = "claude-3-5-sonnet-20241022"
	anthropicProbeModel   = "claude-3-5-haiku-20241022"
	anthropicVersion      = "2023-06-01"
)

// AnthropicProvider completes prompts through the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

type anthropicFailure struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider builds a provider talking to api.anthropic.com or
// the configured override.
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}

	return &AnthropicProvider{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(pick(config.BaseURL, "https://api.anthropic.com"), "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout(config.Timeout, defaultTimeout),
		},
		config: config,
	}, nil
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable sends a one-token request to verify the key and endpoint.
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	probe := anthropicRequest{
		Model:     anthropicProbeModel,
		MaxTokens: 1,
		Messages:  []anthropicMessage{{Role: "user", Content: "ping"}},
	}
	if _, err := p.messages(ctx, probe); err != nil {
		fmt.Fprintf(os.Stderr, "anthropic: availability probe failed: %v\n", err)
		return false
	}
	return true
}

// Complete sends a single-turn conversation and returns the text of the
// reply. Replies can carry several content blocks; the text ones are
// concatenated.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := p.messages(ctx, anthropicRequest{
		Model:       pick(req.Model, p.config.Model, anthropicDefaultModel),
		MaxTokens:   pick(req.MaxTokens, p.config.MaxTokens, defaultMaxTokens),
		System:      req.System,
		Temperature: completionTemperature,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic: empty completion")
	}
	return text, nil
}

func (p *AnthropicProvider) messages(ctx context.Context, req anthropicRequest) (*anthropicResponse, error) {
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/messages", headers, req, &resp, func(status int, body []byte) error {
		var f anthropicFailure
		if json.Unmarshal(body, &f) == nil && f.Error.Message != "" {
			return fmt.Errorf("status %d (%s): %s", status, f.Error.Type, f.Error.Message)
		}
		return fmt.Errorf("status %d: %s", status, body)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
