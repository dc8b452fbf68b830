package pgstore

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"

	"github.com/dangdai/quizgen/internal/quiz"
)

// ChunkRepo reads textbook chunks from dangdai_chunks.
type ChunkRepo struct {
	q querier
}

// Optional columns are NULL in the hosted table; the ids are uuids.
var chunkColumns = []string{
	"CAST(id AS TEXT)",
	"content",
	"book",
	"lesson",
	"COALESCE(section, '')",
	"COALESCE(content_type, '')",
	"COALESCE(exercise_type, '')",
	"COALESCE(topic, '')",
}

func searchQuery(f quiz.ChunkFilter) (string, []any) {
	sel := builder.Select(chunkColumns...).From(entsql.Table(chunksTable))
	sel.Where(entsql.EQ("book", f.Book))
	if !f.AllLessons {
		sel.Where(entsql.EQ("lesson", f.Lesson))
	}
	if f.ExerciseType != "" {
		sel.Where(entsql.EQ("exercise_type", f.ExerciseType))
	}
	if f.ContentType != "" {
		sel.Where(entsql.EQ("content_type", f.ContentType))
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	return sel.Query()
}

// Search returns chunks matching the filter.
func (r *ChunkRepo) Search(ctx context.Context, f quiz.ChunkFilter) ([]quiz.Chunk, error) {
	query, args := searchQuery(f)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	chunks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Chunk, error) {
		var c quiz.Chunk
		err := row.Scan(&c.ID, &c.Content, &c.Book, &c.Lesson, &c.Section, &c.ContentType, &c.ExerciseType, &c.Topic)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}
	return chunks, nil
}

func exerciseTypesQuery(book, lesson int) (string, []any) {
	return builder.Select(entsql.Distinct("exercise_type")).
		From(entsql.Table(chunksTable)).
		Where(entsql.And(
			entsql.EQ("book", book),
			entsql.EQ("lesson", lesson),
			entsql.NotNull("exercise_type"),
			entsql.NEQ("exercise_type", ""),
		)).
		OrderBy("exercise_type").
		Query()
}

// ExerciseTypes returns the distinct exercise-type tags of a lesson, sorted.
func (r *ChunkRepo) ExerciseTypes(ctx context.Context, book, lesson int) ([]string, error) {
	query, args := exerciseTypesQuery(book, lesson)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exercise types: %w", err)
	}
	types, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan exercise types: %w", err)
	}
	return types, nil
}
