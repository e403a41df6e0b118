// Package llm abstracts text-completion providers behind a single
// interface. Planners use completions to propose queries, and rankers use
// them to judge document relevance. The engine works without a provider;
// strategies that need one say so at construction.
package llm

import (
	"context"

	"github.com/ppiankov/evidentia/internal/model"
)

// Provider is a text-completion backend.
type Provider interface {
	// Name identifies the provider in logs and run records.
	Name() string

	// Complete answers a single-turn prompt.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// IsAvailable reports whether the provider is configured and
	// reachable. It probes the backend, so expect a network call.
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest carries the input for a single completion.
type CompletionRequest struct {
	// System sets the system prompt (optional)
	System string

	// Prompt is the user-turn content
	Prompt string

	// Model overrides the configured model for this request
	Model string

	// MaxTokens caps the reply length; zero means the configured or
	// built-in default
	MaxTokens int
}

// Config selects and tunes a provider. The zero value disables
// completions entirely.
type Config struct {
	Provider string // "openai", "anthropic", "ollama", or "" for none
	Model    string
	APIKey   string
	BaseURL  string // custom endpoint, mainly for Ollama and proxies

	Timeout   int // seconds per request
	MaxTokens int

	// Outbound proxy settings, applied by providers that manage their
	// own HTTP client
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the stock settings with completions disabled.
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 512,
	}
}

// ConfigFromModel builds a provider Config from the application config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}
