package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// NewProvider builds the configured provider. Calls flow
// caller → retry → rate limit → request log → provider, so every attempt
// is both throttled and recorded. A nil sink skips the request log.
func NewProvider(ctx context.Context, cfg Config, sink RequestLog, log zerolog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("llm provider %q cannot be constructed", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	p := base
	if sink != nil {
		p = WithLogging(p, cfg.Provider, sink, log)
	}
	p = WithRateLimit(p, cfg.RequestsPerMinute)
	return WithRetry(p, cfg.Retry, log), nil
}
