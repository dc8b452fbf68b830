package llm

import "context"

type contextKey string

const purposeKey contextKey = "quizgen_llm_purpose"

// WithPurpose labels the LLM calls made under ctx. The label is stored with
// each recorded request and groups usage in `quizgen llm stats`.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// Purposes of the three kinds of LLM call quizgen makes.
const (
	PurposeGeneration       = "quiz-generation"
	PurposeEvaluation       = "quiz-evaluation"
	PurposeAnswerValidation = "answer-validation"
)
