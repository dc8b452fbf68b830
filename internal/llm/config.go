package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects an LLM backend and carries the settings of every backend,
// so one environment can switch provider without losing the others' keys.
type Config struct {
	// Provider is one of anthropic, openai, azure_openai, gemini,
	// openrouter or mock.
	Provider string

	Anthropic   AnthropicConfig
	OpenAI      OpenAIConfig
	AzureOpenAI AzureOpenAIConfig
	Gemini      GeminiConfig
	OpenRouter  OpenRouterConfig
	Retry       RetryConfig
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig also serves any OpenAI-compatible API through BaseURL.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AzureOpenAIConfig targets a single deployment. Model only labels events
// and prices; it defaults to the deployment name.
type AzureOpenAIConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
	Model      string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls WithRetry. Waits grow by Multiplier from
// InitialWait up to MaxWait.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

const defaultAzureAPIVersion = "2024-02-15-preview"

// DefaultConfig targets Azure OpenAI, the hosted deployment quizzes are
// normally generated with.
func DefaultConfig() Config {
	return Config{
		Provider:    "azure_openai",
		Anthropic:   AnthropicConfig{Model: "claude-sonnet"},
		OpenAI:      OpenAIConfig{Model: "gpt-4o"},
		AzureOpenAI: AzureOpenAIConfig{APIVersion: defaultAzureAPIVersion, Model: "gpt-4o"},
		Gemini:      GeminiConfig{Model: "gemini-flash"},
		OpenRouter:  OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2,
		},
	}
}

// ConfigFromEnv overlays the environment on DefaultConfig. Every setting
// has a QUIZGEN_ name and most also accept the vendor's usual name.
// QUIZGEN_LLM_MODEL (or LLM_MODEL) sets the model of the selected provider.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := firstEnv("QUIZGEN_LLM_PROVIDER", "LLM_PROVIDER"); p != "" {
		cfg.Provider = strings.ToLower(p)
	}

	a, o, az, g, r := &cfg.Anthropic, &cfg.OpenAI, &cfg.AzureOpenAI, &cfg.Gemini, &cfg.OpenRouter
	for _, s := range []struct {
		dst  *string
		keys []string
	}{
		{&a.APIKey, []string{"QUIZGEN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}},
		{&a.Model, []string{"QUIZGEN_ANTHROPIC_MODEL"}},
		{&o.APIKey, []string{"QUIZGEN_OPENAI_API_KEY", "OPENAI_API_KEY"}},
		{&o.Model, []string{"QUIZGEN_OPENAI_MODEL"}},
		{&o.BaseURL, []string{"QUIZGEN_OPENAI_BASE_URL"}},
		{&az.APIKey, []string{"QUIZGEN_AZURE_OPENAI_API_KEY", "AZURE_OPENAI_API_KEY"}},
		{&az.Endpoint, []string{"QUIZGEN_AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_ENDPOINT"}},
		{&az.Deployment, []string{"QUIZGEN_AZURE_OPENAI_DEPLOYMENT", "AZURE_OPENAI_DEPLOYMENT_NAME"}},
		{&az.APIVersion, []string{"QUIZGEN_AZURE_OPENAI_API_VERSION", "AZURE_OPENAI_API_VERSION"}},
		{&g.APIKey, []string{"QUIZGEN_GEMINI_API_KEY", "GEMINI_API_KEY"}},
		{&g.Model, []string{"QUIZGEN_GEMINI_MODEL"}},
		{&r.APIKey, []string{"QUIZGEN_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"}},
		{&r.Model, []string{"QUIZGEN_OPENROUTER_MODEL"}},
	} {
		if v := firstEnv(s.keys...); v != "" {
			*s.dst = v
		}
	}

	if m := firstEnv("QUIZGEN_LLM_MODEL", "LLM_MODEL"); m != "" {
		if dst := cfg.model(); dst != nil {
			*dst = m
		}
	}
	return cfg
}

// DiscoverConfig picks the first provider whose vendor key is set, in the
// order Azure OpenAI (which also needs an endpoint), OpenAI, Anthropic,
// Gemini, OpenRouter.
func DiscoverConfig() (Config, bool) {
	env := ConfigFromEnv()
	cfg := DefaultConfig()

	switch {
	case os.Getenv("AZURE_OPENAI_API_KEY") != "" && os.Getenv("AZURE_OPENAI_ENDPOINT") != "":
		cfg.Provider, cfg.AzureOpenAI = "azure_openai", env.AzureOpenAI
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider, cfg.OpenAI.APIKey = "openai", os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider, cfg.Anthropic.APIKey = "anthropic", os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider, cfg.Gemini.APIKey = "gemini", os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider, cfg.OpenRouter.APIKey = "openrouter", os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Validate reports the settings the selected provider is missing.
func (c Config) Validate() error {
	var missing []string
	need := func(v, name string) {
		if v == "" {
			missing = append(missing, name)
		}
	}

	switch c.Provider {
	case "anthropic":
		need(c.Anthropic.APIKey, "QUIZGEN_ANTHROPIC_API_KEY")
	case "openai":
		need(c.OpenAI.APIKey, "QUIZGEN_OPENAI_API_KEY")
	case "azure_openai":
		need(c.AzureOpenAI.APIKey, "AZURE_OPENAI_API_KEY")
		need(c.AzureOpenAI.Endpoint, "AZURE_OPENAI_ENDPOINT")
		need(c.AzureOpenAI.Deployment, "AZURE_OPENAI_DEPLOYMENT_NAME")
	case "gemini":
		need(c.Gemini.APIKey, "QUIZGEN_GEMINI_API_KEY")
	case "openrouter":
		need(c.OpenRouter.APIKey, "QUIZGEN_OPENROUTER_API_KEY")
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%s provider is missing settings: %s", c.Provider, strings.Join(missing, ", "))
	}
	return nil
}

// model returns the model field of the selected provider, or nil for mock
// and unknown providers.
func (c *Config) model() *string {
	switch c.Provider {
	case "anthropic":
		return &c.Anthropic.Model
	case "openai":
		return &c.OpenAI.Model
	case "azure_openai":
		return &c.AzureOpenAI.Model
	case "gemini":
		return &c.Gemini.Model
	case "openrouter":
		return &c.OpenRouter.Model
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
