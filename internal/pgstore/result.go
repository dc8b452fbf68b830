package pgstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"

	"github.com/dangdai/quizgen/internal/quiz"
)

// ResultRepo reads and writes question_results.
type ResultRepo struct {
	q querier
}

func appendQuery(res quiz.QuestionResult) (string, []any) {
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return builder.Insert(resultsTable).
		Set("user_id", res.UserID).
		Set("quiz_id", res.QuizID).
		Set("question_id", res.QuestionID).
		Set("exercise_type", res.ExerciseType).
		Set("chapter_id", res.ChapterID).
		Set("correct", res.Correct).
		Set("user_answer", res.UserAnswer).
		Set("vocabulary_item", res.VocabularyItem).
		Set("grammar_pattern", res.GrammarPattern).
		Set("created_at", created.UTC()).
		Query()
}

// Append records one answered question. A zero CreatedAt is set to now.
func (r *ResultRepo) Append(ctx context.Context, res quiz.QuestionResult) error {
	query, args := appendQuery(res)
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save question result: %w", err)
	}
	return nil
}

func recentIncorrectQuery(userID string, limit int) (string, []any) {
	sel := builder.Select(
		"user_id",
		"COALESCE(exercise_type, 'unknown')",
		"COALESCE(vocabulary_item, '')",
		"COALESCE(grammar_pattern, '')",
		"created_at",
	).
		From(entsql.Table(resultsTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.IsFalse("correct"),
		)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	return sel.Query()
}

// RecentIncorrect returns the user's latest incorrect answers, newest first.
// A database without the question_results table yields no results.
func (r *ResultRepo) RecentIncorrect(ctx context.Context, userID string, limit int) ([]quiz.QuestionResult, error) {
	query, args := recentIncorrectQuery(userID, limit)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			slog.InfoContext(ctx, "question_results table not available", "user_id", userID)
			return nil, nil
		}
		return nil, fmt.Errorf("query question results: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.QuestionResult, error) {
		var res quiz.QuestionResult
		err := row.Scan(&res.UserID, &res.ExerciseType, &res.VocabularyItem, &res.GrammarPattern, &res.CreatedAt)
		return res, err
	})
	if err != nil {
		if isUndefinedTable(err) {
			slog.InfoContext(ctx, "question_results table not available", "user_id", userID)
			return nil, nil
		}
		return nil, fmt.Errorf("scan question results: %w", err)
	}
	return results, nil
}
