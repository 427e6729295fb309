package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Request is one rewrite call.
type Request struct {
	SystemPrompt string
	UserText     string
	// MaxTokens bounds the generated length. Zero means DefaultMaxTokens.
	MaxTokens int
	// Temperature overrides the configured temperature when non-zero.
	Temperature float32
}

// Generator is an abstraction over generative model providers. Generate
// returns "" with a nil error when the model produced no usable text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Name identifies the provider in logs and metrics.
	Name() string
	// Close releases any resources held by the generator
	Close() error
}

// NewGenerator creates the generator for config.Provider.
func NewGenerator(ctx context.Context, config *Config, apiKey string) (Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiGenerator(ctx, config, apiKey)
	case ProviderGroq, ProviderOpenAI:
		return NewOpenAIGenerator(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiGenerator implements Generator for Google Gemini
type GeminiGenerator struct {
	client *genai.Client
	config *Config
}

// NewGeminiGenerator creates a new Gemini generator
func NewGeminiGenerator(ctx context.Context, config *Config, apiKey string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		config: config,
	}, nil
}

// Generate runs one rewrite on Gemini.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	model := g.client.GenerativeModel(g.config.Model)
	model.SetTemperature(temperature(req, g.config))
	model.SetMaxOutputTokens(int32(maxTokens(req)))
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserText))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return CleanOutput(extractTextFromResponse(resp)), nil
}

// Name returns the provider name.
func (g *GeminiGenerator) Name() string { return string(ProviderGemini) }

// Close releases resources held by the client
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// extractTextFromResponse joins the text parts of the first candidate.
// A response with no candidates or no text yields "".
func extractTextFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	return strings.Join(parts, "")
}

func temperature(req Request, config *Config) float32 {
	if req.Temperature != 0 {
		return req.Temperature
	}
	return config.Temperature
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}
