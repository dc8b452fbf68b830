package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`[{"question_id":"q1"}]`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		TextResponse("correct"),
		MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}},
	)
	ctx := context.Background()

	first, err := mock.Generate(ctx, Request{System: "generate", Messages: []Message{{Role: RoleUser, Content: "lesson 5"}}})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if string(first.Content) != `[{"question_id":"q1"}]` || first.Usage.TotalTokens != 15 || first.StopReason != "end" {
		t.Fatalf("first = %+v", first)
	}

	second, err := mock.Generate(ctx, Request{System: "check"})
	if err != nil || second.Text() != "correct" {
		t.Fatalf("second = %v, %v", second, err)
	}

	var rl *ErrRateLimit
	if _, err := mock.Generate(ctx, Request{}); !errors.As(err, &rl) {
		t.Fatalf("third: expected ErrRateLimit, got %T", err)
	}

	var ue *ErrProviderUnavailable
	if _, err := mock.Generate(ctx, Request{}); !errors.As(err, &ue) {
		t.Fatalf("drained queue: expected ErrProviderUnavailable, got %T", err)
	}

	if mock.CallCount() != 4 || mock.Calls[0].Messages[0].Content != "lesson 5" || mock.Calls[1].System != "check" {
		t.Fatalf("calls not recorded: %+v", mock.Calls)
	}
	if mock.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", mock.ModelID())
	}
}

func TestMockProvider_AddResponse(t *testing.T) {
	mock := NewMockProvider()
	mock.AddResponse(TextResponse("late"))
	if mock.Pending() != 1 {
		t.Fatalf("pending = %d", mock.Pending())
	}
	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil || resp.Text() != "late" {
		t.Fatalf("got %v, %v", resp, err)
	}
}

func TestMockProvider_DelayHonoursContext(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if mock.Pending() != 0 {
		t.Fatalf("delayed response should be consumed, %d pending", mock.Pending())
	}
}

func TestPurposeContext(t *testing.T) {
	if p := PurposeFrom(context.Background()); p != "unknown" {
		t.Fatalf("unlabelled context = %q", p)
	}
	for _, purpose := range []string{PurposeGeneration, PurposeEvaluation, PurposeAnswerValidation} {
		if got := PurposeFrom(WithPurpose(context.Background(), purpose)); got != purpose {
			t.Errorf("PurposeFrom = %q, want %q", got, purpose)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk"}}, false},
		{"azure without deployment", Config{Provider: "azure_openai", AzureOpenAI: AzureOpenAIConfig{APIKey: "k", Endpoint: "https://x"}}, true},
		{"azure", Config{Provider: "azure_openai", AzureOpenAI: AzureOpenAIConfig{APIKey: "k", Endpoint: "https://x", Deployment: "d"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"gemini", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g"}}, false},
		{"openrouter without key", Config{Provider: "openrouter"}, true},
		{"mock", Config{Provider: "mock"}, false},
		{"unknown", Config{Provider: "llama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv_ModelOverrideFollowsProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("QUIZGEN_LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_MODEL", "gemini-pro")

	cfg := ConfigFromEnv()
	if cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Gemini.Model != "gemini-pro" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("override leaked: gemini=%q openai=%q", cfg.Gemini.Model, cfg.OpenAI.Model)
	}
}

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`correct`, "correct"},
		{`"quoted \"answer\""`, `quoted "answer"`},
		{`{"is_correct":true}`, `{"is_correct":true}`},
		{`"unterminated`, `"unterminated`},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%s) = %q, want %q", tt.content, got, tt.want)
		}
	}

	var nilResp *Response
	if nilResp.Text() != "" {
		t.Fatal("nil response should have empty text")
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", `[1]`, `[1]`},
		{"json fence", "```json\n[1]\n```", `[1]`},
		{"bare fence", "```\n{\"is_correct\":true}\n```\n", `{"is_correct":true}`},
		{"unterminated", "```json\n[1]", `[1]`},
		{"fence only", "```", ``},
		{"padded", "  \n```json\n{\"passed\":false}  \n```  ", `{"passed":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.in); got != tt.want {
				t.Errorf("StripFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
