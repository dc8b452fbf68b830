package quizgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
	"github.com/dangdai/quizgen/internal/weakness"
)

// Generator produces a batch of candidate questions with one LLM call.
type Generator struct {
	provider llm.Provider
	config   GeneratorConfig
	log      *slog.Logger
}

// NewGenerator creates a Generator. A nil logger uses slog.Default().
func NewGenerator(provider llm.Provider, cfg GeneratorConfig, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{provider: provider, config: cfg, log: log}
}

// Run generates a new batch, replacing State.Questions. An LLM failure
// yields an empty batch and a single validation error; only cancellation
// of ctx itself is returned as an error.
func (g *Generator) Run(ctx context.Context, s State) (Patch, error) {
	in := promptInput{
		BookID:   s.BookID,
		Lesson:   s.Lesson(),
		Type:     s.ExerciseType,
		Count:    s.ExerciseType.QuestionCount(),
		Chunks:   s.RetrievedContent,
		Profile:  s.WeaknessProfile,
		Feedback: s.EvaluatorFeedback,
	}
	if s.ExerciseType == quiz.TypeMixed {
		in.MixTypes = weakness.SelectMixedTypes(s.WeaknessProfile, chunkTypes(s.RetrievedContent), g.config.MixedTypes)
	}

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(in)},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, llm.PurposeGeneration), req)
	if err != nil {
		if ctx.Err() != nil {
			return Patch{}, ctx.Err()
		}
		g.log.WarnContext(ctx, "quiz generation call failed", "error", err, "retry_count", s.RetryCount)
		return Patch{
			Questions:        set([]quiz.Question{}),
			ValidationErrors: set([]string{fmt.Sprintf("LLM generation failed: %v", err)}),
		}, nil
	}

	questions := decodeQuestions(ParseQuestions(resp.Text()))
	normalizeIDs(questions)

	g.log.InfoContext(ctx, "generated questions",
		"count", len(questions),
		"exercise_type", s.ExerciseType,
		"attempt", s.RetryCount+1,
	)
	return Patch{Questions: set(questions)}, nil
}

// chunkTypes lists the exercise types the chunks are tagged with in
// first-seen order, or the default mixed trio when none is tagged.
func chunkTypes(chunks []quiz.Chunk) []quiz.ExerciseType {
	var out []quiz.ExerciseType
	seen := make(map[quiz.ExerciseType]bool)
	for _, c := range chunks {
		et := quiz.ExerciseType(c.ExerciseType)
		if !et.Concrete() || seen[et] {
			continue
		}
		seen[et] = true
		out = append(out, et)
	}
	if len(out) == 0 {
		return quiz.DefaultMixedTypes
	}
	return out
}
