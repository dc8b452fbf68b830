package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2,
	}
}

func unavailable() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503 from upstream")}}
}

func invalid() MockResponse {
	return MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`[{"question_id":`), Err: errors.New("truncated JSON")}}
}

func TestRetry_CallCounts(t *testing.T) {
	quiz := TextResponse(`[{"question_id":"q1"}]`)

	tests := []struct {
		name      string
		responses []MockResponse
		wantCalls int
		wantErr   bool
	}{
		{"first attempt", []MockResponse{quiz}, 1, false},
		{"transient then ok", []MockResponse{unavailable(), quiz}, 2, false},
		{"attempts exhausted", []MockResponse{unavailable(), unavailable(), unavailable(), quiz}, 3, true},
		{"network error is transient", []MockResponse{{Err: errors.New("connection reset")}, quiz}, 2, false},
		{"invalid response retried once", []MockResponse{invalid(), invalid(), quiz}, 2, true},
		{"invalid then ok", []MockResponse{invalid(), quiz}, 2, false},
		{"truncated output not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`[`)}}, quiz}, 1, true},
		{"deadline not retried", []MockResponse{{Err: context.DeadlineExceeded}, quiz}, 1, true},
		{"rate limit waits then retries", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, quiz}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			resp, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})

			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && resp.Text() != `[{"question_id":"q1"}]` {
				t.Errorf("text = %q", resp.Text())
			}
			if mock.CallCount() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", mock.CallCount(), tt.wantCalls)
			}
		})
	}
}

func TestRetry_KeepsLastErrorType(t *testing.T) {
	mock := NewMockProvider(unavailable(), unavailable(), unavailable())
	_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})

	var ue *ErrProviderUnavailable
	if !errors.As(err, &ue) {
		t.Fatalf("expected ErrProviderUnavailable, got %T", err)
	}
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	cfg := fastRetry()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	mock := NewMockProvider(unavailable(), TextResponse("ok"))
	start := time.Now()
	_, err := WithRetry(mock, cfg).Generate(ctx, Request{})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("backoff ignored the context")
	}
	if mock.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", mock.CallCount())
	}
}

func TestRetry_Backoff(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: 300 * time.Millisecond, Multiplier: 2}}
	other := errors.New("boom")

	for attempt, base := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond} {
		got := r.backoff(attempt, other)
		lo, hi := time.Duration(float64(base)*0.8), time.Duration(float64(base)*1.2)
		if got < lo || got > hi {
			t.Errorf("attempt %d: wait %v outside [%v, %v]", attempt, got, lo, hi)
		}
	}

	hinted := &ErrRateLimit{RetryAfter: 7 * time.Second, Err: other}
	if got := r.backoff(0, hinted); got != 7*time.Second {
		t.Errorf("RetryAfter ignored: %v", got)
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	if got := WithRetry(NewMockProvider(), fastRetry()).ModelID(); got != "mock" {
		t.Fatalf("ModelID = %q", got)
	}
}
