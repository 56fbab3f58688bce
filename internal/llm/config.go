package llm

import (
	"fmt"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
	ProviderNone       = "none"
)

// Config selects and configures the provider.
type Config struct {
	Provider string `json:"provider"`

	Gemini     GeminiConfig     `json:"gemini"`
	OpenAI     OpenAIConfig     `json:"openai"`
	OpenRouter OpenRouterConfig `json:"openrouter"`
	Retry      RetryConfig      `json:"retry"`

	// Timeout bounds one logical request, retries included.
	Timeout time.Duration `json:"-"`

	// RequestsPerMinute caps outgoing calls; zero disables the limiter.
	RequestsPerMinute int `json:"requests_per_minute"`
}

// GeminiConfig configures the Gemini API client.
type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// OpenAIConfig configures an OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// OpenRouterConfig configures OpenRouter, which speaks the OpenAI protocol.
type OpenRouterConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// RetryConfig shapes the exponential backoff between attempts.
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts"`
	InitialWait time.Duration `json:"-"`
	MaxWait     time.Duration `json:"-"`
	Multiplier  float64       `json:"multiplier"`
}

// DefaultConfig uses Gemini, the explanation model the tracker was built on.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGemini,
		Gemini:     GeminiConfig{Model: "flash"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout:           60 * time.Second,
		RequestsPerMinute: 10,
	}
}

// Enabled is false when AI features are switched off.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// Validate checks that the selected provider can be built.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock, ProviderNone, "":
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm retry max attempts must be at least 1")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("llm requests per minute must not be negative")
	}
	return nil
}

func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
