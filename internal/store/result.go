package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/dangdai/quizgen/internal/quiz"
)

// ResultRepo stores answered questions for weakness profiling.
type ResultRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// Append records one answered question. A zero CreatedAt is set to now.
func (r *ResultRepo) Append(ctx context.Context, res quiz.QuestionResult) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	insert := builder.Insert(questionResultsTable.Name).
		Set("sequence", seqNum).
		Set("created_at", created.UTC()).
		Set("user_id", res.UserID).
		Set("quiz_id", res.QuizID).
		Set("question_id", res.QuestionID).
		Set("exercise_type", res.ExerciseType).
		Set("chapter_id", res.ChapterID).
		Set("correct", res.Correct).
		Set("user_answer", res.UserAnswer).
		Set("vocabulary_item", res.VocabularyItem).
		Set("grammar_pattern", res.GrammarPattern)
	if err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("save question result: %w", err)
	}
	return nil
}

// RecentIncorrect returns the user's latest incorrect answers, newest first.
func (r *ResultRepo) RecentIncorrect(ctx context.Context, userID string, limit int) ([]quiz.QuestionResult, error) {
	sel := builder.Select(
		"user_id", "quiz_id", "question_id", "exercise_type", "chapter_id",
		"correct", "user_answer", "vocabulary_item", "grammar_pattern", "created_at",
	).
		From(entsql.Table(questionResultsTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.IsFalse("correct"),
		)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query question results: %w", err)
	}
	defer rows.Close()

	var out []quiz.QuestionResult
	for rows.Next() {
		var res quiz.QuestionResult
		err := rows.Scan(
			&res.UserID, &res.QuizID, &res.QuestionID, &res.ExerciseType, &res.ChapterID,
			&res.Correct, &res.UserAnswer, &res.VocabularyItem, &res.GrammarPattern, &res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan question result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
