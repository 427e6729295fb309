// Package config loads service configuration from an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Error is a configuration problem that must be fixed before the service can run.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	UploadDir   string   `mapstructure:"upload_dir"`
	MaxUploadMB int      `mapstructure:"max_upload_mb"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LLMConfig selects and authenticates the text generator.
type LLMConfig struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	BaseURL      string  `mapstructure:"base_url"`
	GroqAPIKey   string  `mapstructure:"groq_api_key"`
	OpenAIAPIKey string  `mapstructure:"openai_api_key"`
	GeminiAPIKey string  `mapstructure:"gemini_api_key"`
}

// TranscriptionConfig configures speech-to-text. It uses the Groq API key.
type TranscriptionConfig struct {
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
	BaseURL  string `mapstructure:"base_url"`
}

// ResearchConfig configures knowledge lookups for prompt context.
type ResearchConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Timeout             time.Duration `mapstructure:"timeout"`
	WikipediaURL        string        `mapstructure:"wikipedia_url"`
	DuckDuckGoURL       string        `mapstructure:"duckduckgo_url"`
	UserAgent           string        `mapstructure:"user_agent"`
	SpecificityPatterns []string      `mapstructure:"specificity_patterns"`
	MaxFactSentences    int           `mapstructure:"max_fact_sentences"`
}

// QuotaConfig configures the monthly allowance.
type QuotaConfig struct {
	FreeTierLimit int `mapstructure:"free_tier_limit"`
}

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"rps"`
	Burst             int     `mapstructure:"burst"`
}

// DatabaseConfig locates the users database. Empty URL disables quotas.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Research      ResearchConfig      `mapstructure:"research"`
	Quota         QuotaConfig         `mapstructure:"quota"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"server.port":                   "PORT",
	"server.upload_dir":             "UPLOAD_DIR",
	"server.max_upload_mb":          "MAX_UPLOAD_MB",
	"server.cors_origins":           "CORS_ORIGINS",
	"llm.provider":                  "LLM_PROVIDER",
	"llm.model":                     "LLM_MODEL",
	"llm.temperature":               "LLM_TEMPERATURE",
	"llm.base_url":                  "LLM_BASE_URL",
	"llm.groq_api_key":              "GROQ_API_KEY",
	"llm.openai_api_key":            "OPENAI_API_KEY",
	"llm.gemini_api_key":            "GEMINI_API_KEY",
	"transcription.model":           "WHISPER_MODEL",
	"transcription.language":        "WHISPER_LANGUAGE",
	"research.enabled":              "RESEARCH_ENABLED",
	"research.timeout":              "RESEARCH_TIMEOUT",
	"research.user_agent":           "RESEARCH_USER_AGENT",
	"research.specificity_patterns": "SPECIFICITY_PATTERNS",
	"quota.free_tier_limit":         "FREE_TIER_LIMIT",
	"ratelimit.rps":                 "RATE_LIMIT_RPS",
	"ratelimit.burst":               "RATE_LIMIT_BURST",
	"database.url":                  "DATABASE_URL",
	"log.level":                     "LOG_LEVEL",
	"log.format":                    "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 25)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("transcription.model", "whisper-large-v3")
	v.SetDefault("transcription.language", "en")

	v.SetDefault("research.enabled", true)
	v.SetDefault("research.timeout", 5*time.Second)
	v.SetDefault("research.wikipedia_url", "https://en.wikipedia.org")
	v.SetDefault("research.duckduckgo_url", "https://api.duckduckgo.com")
	v.SetDefault("research.user_agent", "VoiceNotePro/1.0")
	v.SetDefault("research.max_fact_sentences", 3)

	v.SetDefault("quota.free_tier_limit", 5)

	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from path, or from notepolish.{yaml,json} in the
// working directory when path is empty, then applies environment overrides.
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("notepolish")
		v.AddConfigPath(".")
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, &Error{Message: fmt.Sprintf("cannot bind %s", env), Cause: err}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &Error{Message: "failed to read config file", Cause: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Message: "failed to decode config", Cause: err}
	}
	return &cfg, nil
}

// APIKey returns the credential for the configured generator provider.
func (c *Config) APIKey() string {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		return c.LLM.OpenAIAPIKey
	case "gemini":
		return c.LLM.GeminiAPIKey
	default:
		return c.LLM.GroqAPIKey
	}
}

// Validate checks value ranges and that the selected generator has a key.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "", "groq", "openai", "gemini":
	default:
		return &Error{Message: fmt.Sprintf("unknown llm provider %q", c.LLM.Provider)}
	}
	if c.APIKey() == "" {
		return &Error{Message: fmt.Sprintf("API key for provider %q is not configured", c.providerName())}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &Error{Message: fmt.Sprintf("'server.port' must be between 1 and 65535, got %d", c.Server.Port)}
	}
	if c.Server.MaxUploadMB < 1 {
		return &Error{Message: "'server.max_upload_mb' must be positive"}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return &Error{Message: "'llm.temperature' must be between 0 and 2"}
	}
	if c.Quota.FreeTierLimit < 1 {
		return &Error{Message: "'quota.free_tier_limit' must be positive"}
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1 {
		return &Error{Message: "'ratelimit.rps' and 'ratelimit.burst' must be positive"}
	}
	if c.Research.Timeout <= 0 {
		return &Error{Message: "'research.timeout' must be positive"}
	}
	for _, pattern := range c.Research.SpecificityPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return &Error{Message: fmt.Sprintf("invalid specificity pattern %q", pattern), Cause: err}
		}
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return &Error{Message: fmt.Sprintf("'log.format' must be text or json, got %q", c.Log.Format)}
	}
	return nil
}

// TranscriptionEnabled reports whether a speech-to-text key is available.
func (c *Config) TranscriptionEnabled() bool {
	return c.LLM.GroqAPIKey != ""
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

func (c *Config) providerName() string {
	if c.LLM.Provider == "" {
		return "groq"
	}
	return strings.ToLower(c.LLM.Provider)
}
