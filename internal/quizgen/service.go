package quizgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
	"github.com/dangdai/quizgen/internal/store"
)

// Generation run outcomes recorded in events.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeNoContent = "no_content"
	OutcomeTimeout   = "timeout"
	OutcomeError     = "error"
)

// EventRecorder stores the outcome of finished runs. store.EventRepo
// satisfies it.
type EventRecorder interface {
	AppendGenerationEvent(ctx context.Context, data store.GenerationEventData) error
}

// Response is a generated quiz.
type Response struct {
	QuizID        string            `json:"quiz_id"`
	ChapterID     int               `json:"chapter_id"`
	BookID        int               `json:"book_id"`
	ExerciseType  quiz.ExerciseType `json:"exercise_type"`
	QuestionCount int               `json:"question_count"`
	Questions     []quiz.Question   `json:"questions"`
	RetryCount    int               `json:"retry_count"`
}

// Service validates requests, runs the pipeline under a deadline and
// records each run.
type Service struct {
	pipeline *Pipeline
	events   EventRecorder
	timeout  time.Duration
	log      *slog.Logger
}

// NewService creates a Service. events may be nil.
func NewService(retriever Retriever, profiler Profiler, provider llm.Provider, events EventRecorder, cfg Config) *Service {
	return &Service{
		pipeline: NewPipeline(retriever, profiler, provider, cfg),
		events:   events,
		timeout:  cfg.Timeout,
		log:      cfg.logger(),
	}
}

// Generate produces a quiz for req. Errors are quiz.ErrInvalidRequest,
// ErrTimeout, ErrUpstream, or a *FailureError matching ErrNoContent or
// ErrGenerationFailed.
func (s *Service) Generate(ctx context.Context, req quiz.Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	quizID := uuid.NewString()
	start := time.Now()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.With("quiz_id", quizID, "chapter_id", req.ChapterID, "exercise_type", req.ExerciseType)
	log.InfoContext(ctx, "quiz generation started", "user_id", req.UserID)

	res, err := s.pipeline.Run(runCtx, req)

	event := store.GenerationEventData{
		QuizID:       quizID,
		ChapterID:    req.ChapterID,
		ExerciseType: string(req.ExerciseType),
		UserID:       req.UserID,
		Attempts:     res.Attempts,
		RetryCount:   res.RetryCount,
		Errors:       res.ValidationErrors,
	}
	defer func() {
		event.DurationMs = time.Since(start).Milliseconds()
		s.record(ctx, event)
	}()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			event.Outcome = OutcomeTimeout
			log.WarnContext(ctx, "quiz generation timed out", "timeout", s.timeout)
			return nil, fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		event.Outcome = OutcomeError
		event.Errors = []string{err.Error()}
		log.ErrorContext(ctx, "quiz generation aborted", "error", err)
		return nil, err
	}

	if res.Payload.Empty() {
		kind := ErrGenerationFailed
		event.Outcome = OutcomeFailed
		if res.RetrievedChunks == 0 {
			kind = ErrNoContent
			event.Outcome = OutcomeNoContent
		}
		log.WarnContext(ctx, "quiz generation failed",
			"retry_count", res.RetryCount,
			"errors", res.ValidationErrors,
		)
		return nil, &FailureError{Kind: kind, ValidationErrors: res.ValidationErrors, RetryCount: res.RetryCount}
	}

	questions := EnrichIDs(res.Payload.Questions)
	event.Outcome = OutcomeSuccess
	event.QuestionCount = len(questions)
	log.InfoContext(ctx, "quiz generation finished",
		"questions", len(questions),
		"retry_count", res.RetryCount,
		"attempts", res.Attempts,
	)

	return &Response{
		QuizID:        quizID,
		ChapterID:     req.ChapterID,
		BookID:        req.BookID,
		ExerciseType:  req.ExerciseType,
		QuestionCount: len(questions),
		Questions:     questions,
		RetryCount:    res.RetryCount,
	}, nil
}

func (s *Service) record(ctx context.Context, data store.GenerationEventData) {
	if s.events == nil {
		return
	}
	if err := s.events.AppendGenerationEvent(context.WithoutCancel(ctx), data); err != nil {
		s.log.Warn("failed to record generation event", "error", err)
	}
}

// EnrichIDs returns a copy of questions in which every missing id is
// replaced by q<n>, n being the question's 1-based position.
func EnrichIDs(questions []quiz.Question) []quiz.Question {
	out := make([]quiz.Question, len(questions))
	copy(out, questions)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}
	return out
}
