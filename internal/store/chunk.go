package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/dangdai/quizgen/internal/quiz"
)

// ChunkRepo is the local textbook corpus, shaped like the hosted
// dangdai_chunks table so either can back content retrieval.
type ChunkRepo struct {
	db *sql.DB
}

var chunkSelect = []string{"id", "content", "book", "lesson", "section", "content_type", "exercise_type", "topic"}

// Search returns chunks matching the filter.
func (r *ChunkRepo) Search(ctx context.Context, f quiz.ChunkFilter) ([]quiz.Chunk, error) {
	sel := builder.Select(chunkSelect...).From(entsql.Table(chunksTable.Name))
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

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []quiz.Chunk
	for rows.Next() {
		var c quiz.Chunk
		if err := rows.Scan(&c.ID, &c.Content, &c.Book, &c.Lesson, &c.Section, &c.ContentType, &c.ExerciseType, &c.Topic); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ExerciseTypes returns the distinct exercise-type tags of a lesson, sorted.
func (r *ChunkRepo) ExerciseTypes(ctx context.Context, book, lesson int) ([]string, error) {
	query, args := builder.Select(entsql.Distinct("exercise_type")).
		From(entsql.Table(chunksTable.Name)).
		Where(entsql.And(
			entsql.EQ("book", book),
			entsql.EQ("lesson", lesson),
			entsql.NEQ("exercise_type", ""),
		)).
		OrderBy("exercise_type").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exercise types: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan exercise type: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Upsert inserts chunks, replacing any with the same id.
// It returns the number of chunks written.
func (r *ChunkRepo) Upsert(ctx context.Context, chunks []quiz.Chunk) (int, error) {
	for i, c := range chunks {
		if c.ID == "" {
			return i, fmt.Errorf("chunk %d: missing id", i)
		}
		insert := builder.Insert(chunksTable.Name).
			Columns(chunkSelect...).
			Values(c.ID, c.Content, c.Book, c.Lesson, c.Section, c.ContentType, c.ExerciseType, c.Topic).
			OnConflict(
				entsql.ConflictColumns("id"),
				entsql.ResolveWithNewValues(),
			)
		if err := exec(ctx, r.db, insert); err != nil {
			return i, fmt.Errorf("upsert chunk %q: %w", c.ID, err)
		}
	}
	return len(chunks), nil
}

// Count returns the number of chunks in the corpus.
func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	query, args := builder.Select(entsql.Count("*")).From(entsql.Table(chunksTable.Name)).Query()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
