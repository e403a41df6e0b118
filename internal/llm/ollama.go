package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/evidentia/internal/util"
)

// ollamaDefaultTimeout allows for local models that load weights on the
// first request.
const ollamaDefaultTimeout = 60 * time.Second

// OllamaProvider completes prompts through an Ollama server, local by
// default.
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaFailure struct {
	Error string `json:"error"`
}

// NewOllamaProvider builds a provider for the configured Ollama server.
// The HTTP client applies the configured proxy settings; a bypassed host
// list keeps localhost traffic direct.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(pick(config.BaseURL, "http://localhost:11434"), "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout(config.Timeout, ollamaDefaultTimeout),
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the server answers its tag-listing endpoint.
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ollama: server unreachable at %s: %v\n", p.baseURL, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "ollama: unexpected status %d from %s\n", resp.StatusCode, p.baseURL)
		return false
	}
	return true
}

// Complete generates a full, non-streamed completion. Ollama has no
// usable default model, so one must be configured.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := pick(req.Model, p.config.Model)
	if model == "" {
		return "", fmt.Errorf("ollama: model must be specified (for example llama3.1:8b)")
	}

	payload := ollamaRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: ollamaOptions{
			Temperature: completionTemperature,
			NumPredict:  pick(req.MaxTokens, p.config.MaxTokens, defaultMaxTokens),
		},
	}

	var resp ollamaResponse
	err := postJSON(ctx, p.httpClient, p.baseURL+"/api/generate", nil, payload, &resp, func(status int, body []byte) error {
		var f ollamaFailure
		if json.Unmarshal(body, &f) == nil && f.Error != "" {
			return fmt.Errorf("status %d: %s", status, f.Error)
		}
		return fmt.Errorf("status %d: %s", status, body)
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return strings.TrimSpace(resp.Response), nil
}
