package quizgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

// Retriever supplies chapter content.
type Retriever interface {
	Retrieve(ctx context.Context, book, lesson int, et quiz.ExerciseType) ([]quiz.Chunk, error)
	RetrieveMixed(ctx context.Context, book, lesson int, types []quiz.ExerciseType) ([]quiz.Chunk, error)
	AvailableTypes(ctx context.Context, book, lesson int) ([]quiz.ExerciseType, error)
}

// Profiler summarises a learner's past mistakes.
type Profiler interface {
	Profile(ctx context.Context, userID string) (quiz.WeaknessProfile, error)
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Payload is empty when no batch was accepted.
	Payload          quiz.Payload
	RetryCount       int
	ValidationErrors []string

	// Attempts is the number of generator calls made.
	Attempts        int
	RetrievedChunks int
}

// Pipeline wires the stages together and drives them with Next.
type Pipeline struct {
	retriever  Retriever
	profiler   Profiler
	generator  *Generator
	structural StructuralValidator
	evaluator  *ContentEvaluator
	log        *slog.Logger
}

// NewPipeline creates a Pipeline whose generator and evaluator share
// provider.
func NewPipeline(retriever Retriever, profiler Profiler, provider llm.Provider, cfg Config) *Pipeline {
	log := cfg.logger()
	return &Pipeline{
		retriever: retriever,
		profiler:  profiler,
		generator: NewGenerator(provider, cfg.Generator, log),
		evaluator: NewContentEvaluator(provider, cfg.Evaluator, log),
		log:       log,
	}
}

// Run executes the pipeline for req until the router reaches StepEnd. It
// returns an error only when ctx ends or a collaborator fails; an
// unaccepted batch is reported through an empty Result.Payload. With an
// error the Result carries no payload but still reports the attempts and
// retries made so far.
func (p *Pipeline) Run(ctx context.Context, req quiz.Request) (Result, error) {
	s := NewState(req)
	attempts := 0
	progress := func() Result {
		return Result{
			RetryCount:       s.RetryCount,
			ValidationErrors: s.ValidationErrors,
			Attempts:         attempts,
			RetrievedChunks:  len(s.RetrievedContent),
		}
	}

	for step := StepRetrieveContent; step != StepEnd; step = Next(step, s) {
		if err := ctx.Err(); err != nil {
			return progress(), err
		}
		if step == StepGenerateQuiz {
			attempts++
		}

		patch, err := p.runStep(ctx, step, s)
		if err != nil {
			return progress(), err
		}
		s = s.Apply(patch)

		p.log.DebugContext(ctx, "pipeline step finished",
			"step", step.String(),
			"questions", len(s.Questions),
			"errors", len(s.ValidationErrors),
			"retry_count", s.RetryCount,
		)
	}

	res := progress()
	res.Payload = s.QuizPayload
	return res, nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, s State) (Patch, error) {
	switch step {
	case StepRetrieveContent:
		return p.retrieve(ctx, s)
	case StepQueryWeakness:
		profile, err := p.profiler.Profile(ctx, s.UserID)
		if err != nil {
			if ctx.Err() != nil {
				return Patch{}, ctx.Err()
			}
			return Patch{}, fmt.Errorf("%w: weakness profile: %v", ErrUpstream, err)
		}
		return Patch{WeaknessProfile: &profile}, nil
	case StepGenerateQuiz:
		return p.generator.Run(ctx, s)
	case StepValidateStructure:
		return p.structural.Run(s), nil
	case StepEvaluateContent:
		return p.evaluator.Run(ctx, s)
	}
	return Patch{}, fmt.Errorf("unknown pipeline step %d", step)
}

func (p *Pipeline) retrieve(ctx context.Context, s State) (Patch, error) {
	var (
		chunks []quiz.Chunk
		err    error
	)
	if s.ExerciseType == quiz.TypeMixed {
		var types []quiz.ExerciseType
		types, err = p.retriever.AvailableTypes(ctx, s.BookID, s.Lesson())
		if err == nil {
			if len(types) == 0 {
				types = quiz.DefaultMixedTypes
			}
			chunks, err = p.retriever.RetrieveMixed(ctx, s.BookID, s.Lesson(), types)
		}
	} else {
		chunks, err = p.retriever.Retrieve(ctx, s.BookID, s.Lesson(), s.ExerciseType)
	}
	if err != nil {
		if ctx.Err() != nil {
			return Patch{}, ctx.Err()
		}
		return Patch{}, fmt.Errorf("%w: content retrieval: %v", ErrUpstream, err)
	}

	p.log.InfoContext(ctx, "retrieved chapter content",
		"chapter_id", s.ChapterID,
		"exercise_type", s.ExerciseType,
		"chunks", len(chunks),
	)
	if chunks == nil {
		chunks = []quiz.Chunk{}
	}
	return Patch{RetrievedContent: &chunks}, nil
}
