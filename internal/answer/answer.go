// Package answer checks learner answers. Types with a single accepted form
// are compared locally; sentence construction and dialogue completion are
// judged by an LLM because several answers can be correct.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

// DefaultTimeout bounds one validation call.
const DefaultTimeout = 3 * time.Second

// ErrTimeout means the LLM did not answer within the validation timeout.
var ErrTimeout = errors.New("answer validation timed out")

// Request is one answer to check.
type Request struct {
	Question      string            `json:"question"`
	UserAnswer    string            `json:"user_answer"`
	CorrectAnswer string            `json:"correct_answer"`
	ExerciseType  quiz.ExerciseType `json:"exercise_type"`
}

// Result is the verdict on an answer.
type Result struct {
	IsCorrect    bool     `json:"is_correct"`
	Explanation  string   `json:"explanation"`
	Alternatives []string `json:"alternatives"`
}

// Validator checks answers, calling the LLM for open-ended types.
type Validator struct {
	provider llm.Provider
	timeout  time.Duration
	log      *slog.Logger
}

// NewValidator creates a Validator. A zero timeout uses DefaultTimeout and a
// nil logger uses slog.Default().
func NewValidator(provider llm.Provider, timeout time.Duration, log *slog.Logger) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Validator{provider: provider, timeout: timeout, log: log}
}

// Check judges the answer to q. Open-ended types go through Validate; the
// rest are compared with the expected answer.
func (v *Validator) Check(ctx context.Context, q quiz.Question, userAnswer string) (Result, error) {
	req := Request{
		Question:      q.Text,
		UserAnswer:    userAnswer,
		CorrectAnswer: q.CorrectAnswer,
		ExerciseType:  q.ExerciseType,
	}
	if !q.ExerciseType.OpenEnded() {
		return ExactMatch(req), nil
	}
	return v.Validate(ctx, req)
}

// Validate asks the LLM whether req.UserAnswer is an acceptable answer. A
// response that cannot be read falls back to ExactMatch.
func (v *Validator) Validate(ctx context.Context, req Request) (Result, error) {
	callCtx, cancel := context.WithTimeout(llm.WithPurpose(ctx, llm.PurposeAnswerValidation), v.timeout)
	defer cancel()

	resp, err := v.provider.Generate(callCtx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildPrompt(req)},
		},
		Schema:    resultSchema,
		MaxTokens: 512,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			v.log.ErrorContext(ctx, "answer validation timed out",
				"timeout", v.timeout,
				"exercise_type", req.ExerciseType,
			)
			return Result{}, fmt.Errorf("%w after %s", ErrTimeout, v.timeout)
		}
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			v.log.WarnContext(ctx, "unreadable answer validation response", "error", err)
			return ExactMatch(req), nil
		}
		return Result{}, fmt.Errorf("validate answer: %w", err)
	}

	res, ok := parseResult(resp.Text())
	if !ok {
		v.log.WarnContext(ctx, "unreadable answer validation response", "content", resp.Text())
		return ExactMatch(req), nil
	}
	return res, nil
}

// ExactMatch compares answers ignoring case and surrounding space.
func ExactMatch(req Request) Result {
	if strings.EqualFold(strings.TrimSpace(req.UserAnswer), strings.TrimSpace(req.CorrectAnswer)) {
		return Result{IsCorrect: true, Explanation: "Your answer matches the expected answer.", Alternatives: []string{}}
	}
	return Result{
		Explanation:  "The expected answer is: " + req.CorrectAnswer,
		Alternatives: []string{},
	}
}

func parseResult(text string) (Result, bool) {
	text = llm.StripFence(text)

	var raw struct {
		IsCorrect    *bool           `json:"is_correct"`
		Explanation  any             `json:"explanation"`
		Alternatives json.RawMessage `json:"alternatives"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil || text == "null" {
		return Result{}, false
	}

	res := Result{Alternatives: []string{}}
	if raw.IsCorrect != nil {
		res.IsCorrect = *raw.IsCorrect
	}
	switch e := raw.Explanation.(type) {
	case nil:
	case string:
		res.Explanation = e
	default:
		res.Explanation = fmt.Sprint(e)
	}
	if len(raw.Alternatives) > 0 {
		var alts []any
		if err := json.Unmarshal(raw.Alternatives, &alts); err != nil {
			return Result{}, false
		}
		for _, a := range alts {
			if s, ok := a.(string); ok {
				res.Alternatives = append(res.Alternatives, s)
			} else if a != nil {
				res.Alternatives = append(res.Alternatives, fmt.Sprint(a))
			}
		}
	}
	return res, true
}
