package answer

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

func sentenceRequest() Request {
	return Request{
		Question:      "Put the words in order: 中文 / 我 / 學",
		UserAnswer:    "我學中文",
		CorrectAnswer: "我學中文",
		ExerciseType:  quiz.TypeSentenceConstruction,
	}
}

func TestValidate_LLMVerdict(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: []byte(`{"is_correct": true, "explanation": "Correct word order.", "alternatives": ["我在學中文"]}`),
	})
	v := NewValidator(mock, 0, nil)

	res, err := v.Validate(context.Background(), sentenceRequest())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.IsCorrect || res.Explanation != "Correct word order." {
		t.Errorf("result = %+v", res)
	}
	if !slices.Equal(res.Alternatives, []string{"我在學中文"}) {
		t.Errorf("alternatives = %v", res.Alternatives)
	}

	req := mock.Calls[0]
	if req.Schema != resultSchema {
		t.Error("request does not carry the answer schema")
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"Exercise type: sentence_construction", "Learner answer: 我學中文"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestValidate_FencedResponse(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("```json\n{\"is_correct\": false, \"explanation\": \"Word order is wrong.\"}\n```"))
	res, err := NewValidator(mock, 0, nil).Validate(context.Background(), sentenceRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.IsCorrect || res.Explanation != "Word order is wrong." || len(res.Alternatives) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestValidate_FallbackToExactMatch(t *testing.T) {
	tests := []struct {
		name       string
		resp       llm.MockResponse
		userAnswer string
		want       Result
	}{
		{
			name:       "unparsable match",
			resp:       llm.TextResponse("I think it is right"),
			userAnswer: "  我學中文 ",
			want:       Result{IsCorrect: true, Explanation: "Your answer matches the expected answer.", Alternatives: []string{}},
		},
		{
			name:       "unparsable mismatch",
			resp:       llm.TextResponse("[true]"),
			userAnswer: "中文我學",
			want:       Result{Explanation: "The expected answer is: 我學中文", Alternatives: []string{}},
		},
		{
			name:       "schema violation",
			resp:       llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: errors.New("missing is_correct")}},
			userAnswer: "我學中文",
			want:       Result{IsCorrect: true, Explanation: "Your answer matches the expected answer.", Alternatives: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sentenceRequest()
			req.UserAnswer = tt.userAnswer
			res, err := NewValidator(llm.NewMockProvider(tt.resp), 0, nil).Validate(context.Background(), req)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if res.IsCorrect != tt.want.IsCorrect || res.Explanation != tt.want.Explanation || !slices.Equal(res.Alternatives, tt.want.Alternatives) {
				t.Errorf("result = %+v, want %+v", res, tt.want)
			}
		})
	}
}

func TestValidate_Timeout(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: []byte(`{"is_correct": true}`), Delay: time.Second})
	v := NewValidator(mock, 10*time.Millisecond, nil)

	_, err := v.Validate(context.Background(), sentenceRequest())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestValidate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	_, err := NewValidator(mock, 0, nil).Validate(context.Background(), sentenceRequest())

	var unavailable *llm.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Errorf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestCheck_LocalTypesSkipLLM(t *testing.T) {
	mock := llm.NewMockProvider()
	v := NewValidator(mock, 0, nil)
	q := quiz.Question{ExerciseType: quiz.TypeVocabulary, Text: "What does 書 mean?", CorrectAnswer: "book"}

	res, err := v.Check(context.Background(), q, "Book")
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsCorrect {
		t.Errorf("result = %+v", res)
	}
	res, _ = v.Check(context.Background(), q, "pen")
	if res.IsCorrect || res.Explanation != "The expected answer is: book" {
		t.Errorf("result = %+v", res)
	}
	if mock.CallCount() != 0 {
		t.Errorf("LLM calls = %d, want 0", mock.CallCount())
	}
}

func TestCheck_OpenEndedUsesLLM(t *testing.T) {
	var purpose string
	p := providerFunc(func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
		purpose = llm.PurposeFrom(ctx)
		return &llm.Response{Content: []byte(`{"is_correct": true, "explanation": "ok", "alternatives": []}`)}, nil
	})
	q := quiz.Question{ExerciseType: quiz.TypeDialogueCompletion, Text: "A: 你好嗎？ B: ___", CorrectAnswer: "我很好。"}

	res, err := NewValidator(p, 0, nil).Check(context.Background(), q, "很好，謝謝。")
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsCorrect {
		t.Errorf("result = %+v", res)
	}
	if purpose != llm.PurposeAnswerValidation {
		t.Errorf("purpose = %q", purpose)
	}
}

type providerFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

func (f providerFunc) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

func (providerFunc) ModelID() string { return "func" }
