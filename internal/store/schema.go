package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions for auto-migration. Every event table carries the
// global sequence number and a UTC timestamp.

const textSize = 2147483647

var (
	llmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Default: ""},
	}
	llmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmRequestEventsColumns,
		PrimaryKey: []*schema.Column{llmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmRequestEventsColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestEventsColumns[5]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{llmRequestEventsColumns[9]}},
		},
	}

	generationEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "quiz_id", Type: field.TypeString},
		{Name: "chapter_id", Type: field.TypeInt},
		{Name: "exercise_type", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "retry_count", Type: field.TypeInt, Default: 0},
		{Name: "outcome", Type: field.TypeString},
		{Name: "question_count", Type: field.TypeInt, Default: 0},
		{Name: "duration_ms", Type: field.TypeInt64, Default: 0},
		{Name: "errors", Type: field.TypeString, Size: textSize, Default: ""},
	}
	generationEventsTable = &schema.Table{
		Name:       "generation_events",
		Columns:    generationEventsColumns,
		PrimaryKey: []*schema.Column{generationEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "generationevent_timestamp", Columns: []*schema.Column{generationEventsColumns[2]}},
			{Name: "generationevent_outcome", Columns: []*schema.Column{generationEventsColumns[9]}},
		},
	}

	chunksColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "content", Type: field.TypeString, Size: textSize},
		{Name: "book", Type: field.TypeInt},
		{Name: "lesson", Type: field.TypeInt},
		{Name: "section", Type: field.TypeString, Default: ""},
		{Name: "content_type", Type: field.TypeString, Default: ""},
		{Name: "exercise_type", Type: field.TypeString, Default: ""},
		{Name: "topic", Type: field.TypeString, Default: ""},
	}
	chunksTable = &schema.Table{
		Name:       "dangdai_chunks",
		Columns:    chunksColumns,
		PrimaryKey: []*schema.Column{chunksColumns[0]},
		Indexes: []*schema.Index{
			{Name: "chunk_book_lesson", Columns: []*schema.Column{chunksColumns[2], chunksColumns[3]}},
			{Name: "chunk_exercise_type", Columns: []*schema.Column{chunksColumns[6]}},
		},
	}

	questionResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeString},
		{Name: "quiz_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "exercise_type", Type: field.TypeString},
		{Name: "chapter_id", Type: field.TypeInt, Default: 0},
		{Name: "correct", Type: field.TypeBool},
		{Name: "user_answer", Type: field.TypeString, Size: textSize, Default: ""},
		{Name: "vocabulary_item", Type: field.TypeString, Default: ""},
		{Name: "grammar_pattern", Type: field.TypeString, Default: ""},
	}
	questionResultsTable = &schema.Table{
		Name:       "question_results",
		Columns:    questionResultsColumns,
		PrimaryKey: []*schema.Column{questionResultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "questionresult_user_correct", Columns: []*schema.Column{questionResultsColumns[3], questionResultsColumns[8]}},
		},
	}

	tables = []*schema.Table{
		llmRequestEventsTable,
		generationEventsTable,
		chunksTable,
		questionResultsTable,
	}
)

// migrate creates missing tables, columns and indexes. It never drops.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
