package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider completes prompts through the OpenAI chat API, or any
// compatible endpoint via BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider builds a provider from the configuration. The API
// key is mandatory; everything else has defaults.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	cc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}
	cc.HTTPClient = &http.Client{
		Timeout: clientTimeout(config.Timeout, defaultTimeout),
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cc),
		config: config,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable lists models to verify the key and endpoint.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "openai: availability probe failed: %v\n", err)
		return false
	}
	return true
}

// Complete sends a chat completion with an optional system turn.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       pick(req.Model, p.config.Model, openai.GPT4oMini),
		Messages:    messages,
		MaxTokens:   pick(req.MaxTokens, p.config.MaxTokens, defaultMaxTokens),
		Temperature: completionTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
