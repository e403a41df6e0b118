package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates the configured completion provider. An empty
// provider name returns (nil, nil): completions are disabled and
// strategies that need them refuse to construct.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "":
		return nil, nil

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unsupported LLM provider %q (want openai, anthropic, or ollama)", config.Provider)
	}
}
