package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // LLM events only; empty = any
	Outcome string    // generation events only; empty = any
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// GenerationEventData summarises one finished quiz generation run.
type GenerationEventData struct {
	QuizID        string
	ChapterID     int
	ExerciseType  string
	UserID        string
	Attempts      int
	RetryCount    int
	Outcome       string // success, failed, no_content, timeout, error
	QuestionCount int
	DurationMs    int64
	Errors        []string
}

// GenerationEventRecord is a stored generation event.
type GenerationEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	GenerationEventData
}

// LLMEventSink records LLM requests. It is the only part of the event store
// the LLM layer needs.
type LLMEventSink interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// EventRepo provides append and query access to audit events.
type EventRepo interface {
	LLMEventSink

	// QueryLLMEvents returns LLM events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates calls and tokens per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates calls and tokens per model for pricing.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)

	// AppendGenerationEvent records the outcome of a generation run.
	AppendGenerationEvent(ctx context.Context, data GenerationEventData) error

	// QueryGenerationEvents returns generation events newest first.
	QueryGenerationEvents(ctx context.Context, opts QueryOpts) ([]GenerationEventRecord, error)
}
