package llm

import (
	"context"
	"strings"
	"testing"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"QUIZGEN_LLM_PROVIDER", "LLM_PROVIDER", "QUIZGEN_LLM_MODEL", "LLM_MODEL",
		"QUIZGEN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY",
		"QUIZGEN_OPENAI_API_KEY", "OPENAI_API_KEY",
		"QUIZGEN_AZURE_OPENAI_API_KEY", "AZURE_OPENAI_API_KEY",
		"QUIZGEN_AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_ENDPOINT",
		"QUIZGEN_AZURE_OPENAI_DEPLOYMENT", "AZURE_OPENAI_DEPLOYMENT_NAME",
		"QUIZGEN_AZURE_OPENAI_API_VERSION", "AZURE_OPENAI_API_VERSION",
		"QUIZGEN_GEMINI_API_KEY", "GEMINI_API_KEY",
		"QUIZGEN_OPENROUTER_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_Azure(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://dangdai.openai.azure.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "quiz-gpt4o")
	t.Setenv("QUIZGEN_LLM_MODEL", "gpt-4.1")

	cfg := ConfigFromEnv()
	if cfg.Provider != "azure_openai" {
		t.Fatalf("expected azure_openai default, got %q", cfg.Provider)
	}
	if cfg.AzureOpenAI.Deployment != "quiz-gpt4o" || cfg.AzureOpenAI.APIVersion != defaultAzureAPIVersion {
		t.Fatalf("unexpected azure config: %+v", cfg.AzureOpenAI)
	}
	if cfg.AzureOpenAI.Model != "gpt-4.1" {
		t.Fatalf("expected model override, got %q", cfg.AzureOpenAI.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestConfig_ValidateAzureListsMissing(t *testing.T) {
	err := Config{Provider: "azure_openai", AzureOpenAI: AzureOpenAIConfig{APIKey: "k"}}.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "AZURE_OPENAI_ENDPOINT") || !strings.Contains(msg, "AZURE_OPENAI_DEPLOYMENT_NAME") {
		t.Fatalf("expected both missing settings named, got %q", msg)
	}
	if strings.Contains(msg, "AZURE_OPENAI_API_KEY") {
		t.Fatalf("key is set but reported missing: %q", msg)
	}
}

func TestDiscoverConfig_Order(t *testing.T) {
	clearLLMEnv(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("ANTHROPIC_API_KEY", "a")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != "anthropic" {
		t.Fatalf("expected anthropic before gemini, got %q", cfg.Provider)
	}

	t.Setenv("OPENAI_API_KEY", "o")
	cfg, _ = DiscoverConfig()
	if cfg.Provider != "openai" {
		t.Fatalf("expected openai before anthropic, got %q", cfg.Provider)
	}

	// Azure needs both key and endpoint.
	t.Setenv("AZURE_OPENAI_API_KEY", "az")
	cfg, _ = DiscoverConfig()
	if cfg.Provider != "openai" {
		t.Fatalf("azure without endpoint should be skipped, got %q", cfg.Provider)
	}
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://x")
	cfg, _ = DiscoverConfig()
	if cfg.Provider != "azure_openai" {
		t.Fatalf("expected azure_openai first, got %q", cfg.Provider)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*MockProvider); !ok {
		t.Fatalf("expected bare MockProvider, got %T", p)
	}
}

func TestNewProvider_WrapsWithMiddleware(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = "sk-test"

	p, err := NewProvider(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rp, ok := p.(*RetryProvider)
	if !ok {
		t.Fatalf("expected RetryProvider outermost, got %T", p)
	}
	if _, ok := rp.inner.(*LoggingProvider); !ok {
		t.Fatalf("expected LoggingProvider inside retry, got %T", rp.inner)
	}
	if p.ModelID() != "gpt-4o" {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "azure_openai"}, nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestNewProviderFromEnv_Discovers(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	p, err := NewProviderFromEnv(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o" {
		t.Fatalf("expected discovered openai provider, got %q", p.ModelID())
	}
}

func TestNewProviderFromEnv_ExplicitProviderNotOverridden(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("QUIZGEN_LLM_PROVIDER", "anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	if _, err := NewProviderFromEnv(context.Background(), nil); err == nil {
		t.Fatal("expected error for anthropic without key")
	}
}
