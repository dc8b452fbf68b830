package llm

import (
	"context"
	"fmt"

	"github.com/dangdai/quizgen/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
// A nil sink disables event recording.
func NewProvider(ctx context.Context, cfg Config, sink store.LLMEventSink) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "azure_openai":
		base, err = NewAzureOpenAIProvider(cfg.AzureOpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → retry → logging → base
	logged := WithLogging(base, cfg.Provider, sink)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}

// NewProviderFromEnv builds a Provider from ConfigFromEnv. When no provider
// is selected explicitly it falls back to DiscoverConfig.
func NewProviderFromEnv(ctx context.Context, sink store.LLMEventSink) (Provider, error) {
	cfg := ConfigFromEnv()
	if cfg.Validate() != nil && firstEnv("QUIZGEN_LLM_PROVIDER", "LLM_PROVIDER") == "" {
		if discovered, ok := DiscoverConfig(); ok {
			cfg = discovered
		}
	}
	return NewProvider(ctx, cfg, sink)
}

// NewProviderFromEnvSync is kept for callers without a context.
//
// Deprecated: use NewProviderFromEnv.
func NewProviderFromEnvSync(sink store.LLMEventSink) (Provider, error) {
	return NewProviderFromEnv(context.Background(), sink)
}
