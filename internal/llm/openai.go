package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator implements Generator for OpenAI-compatible chat APIs (Groq by default).
type OpenAIGenerator struct {
	client *openai.Client
	config *Config
}

// NewOpenAIGenerator creates a chat-completions generator. Groq configs
// without a BaseURL use GroqBaseURL.
func NewOpenAIGenerator(config *Config, apiKey string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	clientConfig := openai.DefaultConfig(apiKey)
	switch {
	case config.BaseURL != "":
		clientConfig.BaseURL = config.BaseURL
	case config.Provider == ProviderGroq:
		clientConfig.BaseURL = GroqBaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Generate runs one chat completion with the system prompt and the user text.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserText,
			},
		},
		Temperature: temperature(req, g.config),
		MaxTokens:   maxTokens(req),
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", g.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return CleanOutput(resp.Choices[0].Message.Content), nil
}

// Name returns the provider name.
func (g *OpenAIGenerator) Name() string { return string(g.config.Provider) }

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (g *OpenAIGenerator) Close() error { return nil }
