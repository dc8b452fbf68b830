package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var generationEventSelect = []string{
	"id", "sequence", "timestamp", "quiz_id", "chapter_id", "exercise_type", "user_id",
	"attempts", "retry_count", "outcome", "question_count", "duration_ms", "errors",
}

func (r *eventRepo) AppendGenerationEvent(ctx context.Context, data GenerationEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	errs := ""
	if len(data.Errors) > 0 {
		b, err := json.Marshal(data.Errors)
		if err != nil {
			return fmt.Errorf("marshal errors: %w", err)
		}
		errs = string(b)
	}

	insert := builder.Insert(generationEventsTable.Name).
		Set("sequence", seqNum).
		Set("timestamp", time.Now().UTC()).
		Set("quiz_id", data.QuizID).
		Set("chapter_id", data.ChapterID).
		Set("exercise_type", data.ExerciseType).
		Set("user_id", data.UserID).
		Set("attempts", data.Attempts).
		Set("retry_count", data.RetryCount).
		Set("outcome", data.Outcome).
		Set("question_count", data.QuestionCount).
		Set("duration_ms", data.DurationMs).
		Set("errors", errs)
	if err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("save generation event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryGenerationEvents(ctx context.Context, opts QueryOpts) ([]GenerationEventRecord, error) {
	sel := builder.Select(generationEventSelect...).From(entsql.Table(generationEventsTable.Name))
	if opts.Outcome != "" {
		sel.Where(entsql.EQ("outcome", opts.Outcome))
	}
	applyTimeRange(sel, "timestamp", opts)
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generation events: %w", err)
	}
	defer rows.Close()

	var out []GenerationEventRecord
	for rows.Next() {
		var rec GenerationEventRecord
		var errs string
		err := rows.Scan(
			&rec.ID, &rec.Sequence, &rec.Timestamp,
			&rec.QuizID, &rec.ChapterID, &rec.ExerciseType, &rec.UserID,
			&rec.Attempts, &rec.RetryCount, &rec.Outcome, &rec.QuestionCount,
			&rec.DurationMs, &errs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan generation event: %w", err)
		}
		if errs != "" {
			if err := json.Unmarshal([]byte(errs), &rec.Errors); err != nil {
				return nil, fmt.Errorf("decode errors of event %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
