// Package llm provides the generative model collaborators used to rewrite notes.
// Groq's OpenAI-compatible chat API is the default provider; Gemini is the
// alternative.
package llm

import "fmt"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGroq serves open models over an OpenAI-compatible API.
	ProviderGroq Provider = "groq"
	// ProviderOpenAI is OpenAI itself, or any other compatible endpoint set via BaseURL.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Defaults for each provider.
const (
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Model       string
	Temperature float32
	// BaseURL overrides the endpoint of OpenAI-compatible providers.
	BaseURL string
}

// DefaultConfig returns the default configuration (Groq)
func DefaultConfig() *Config {
	return DefaultConfigFor(ProviderGroq)
}

// DefaultConfigFor returns defaults for provider. Unknown providers get the
// Groq defaults.
func DefaultConfigFor(provider Provider) *Config {
	switch provider {
	case ProviderGemini:
		return &Config{Provider: ProviderGemini, Model: DefaultGeminiModel, Temperature: DefaultTemperature}
	case ProviderOpenAI:
		return &Config{Provider: ProviderOpenAI, Model: DefaultOpenAIModel, Temperature: DefaultTemperature}
	default:
		return &Config{Provider: ProviderGroq, Model: DefaultGroqModel, Temperature: DefaultTemperature, BaseURL: GroqBaseURL}
	}
}

// ParseProvider validates a provider name.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(name); p {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
		return p, nil
	case "":
		return ProviderGroq, nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q (want groq, openai or gemini)", name)
	}
}

// WithModel returns a copy of c using model. An empty model keeps the current one.
func (c *Config) WithModel(model string) *Config {
	next := *c
	if model != "" {
		next.Model = model
	}
	return &next
}
