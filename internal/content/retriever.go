// Package content retrieves textbook chunks for quiz generation, broadening
// the search until enough material is found.
package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangdai/quizgen/internal/quiz"
)

// MinChunks is the number of chunks considered enough to generate from.
const MinChunks = 3

const (
	typedLimit = 20
	broadLimit = 30
)

// Searcher is a chunk corpus. store.ChunkRepo and pgstore.ChunkRepo both
// implement it.
type Searcher interface {
	Search(ctx context.Context, f quiz.ChunkFilter) ([]quiz.Chunk, error)
	ExerciseTypes(ctx context.Context, book, lesson int) ([]string, error)
}

// Retriever implements tiered content retrieval over a Searcher.
type Retriever struct {
	searcher Searcher
	log      *slog.Logger
}

// NewRetriever creates a Retriever. A nil logger uses slog.Default().
func NewRetriever(s Searcher, log *slog.Logger) *Retriever {
	if log == nil {
		log = slog.Default()
	}
	return &Retriever{searcher: s, log: log}
}

type tier struct {
	name   string
	filter quiz.ChunkFilter
	// min is the number of chunks that ends the search at this tier.
	min int
}

func tiers(book, lesson int, exerciseType string) []tier {
	return []tier{
		{"workbook", quiz.ChunkFilter{Book: book, Lesson: lesson, ExerciseType: exerciseType, ContentType: "workbook", Limit: typedLimit}, MinChunks},
		{"exercise_type", quiz.ChunkFilter{Book: book, Lesson: lesson, ExerciseType: exerciseType, Limit: typedLimit}, MinChunks},
		{"lesson", quiz.ChunkFilter{Book: book, Lesson: lesson, Limit: broadLimit}, MinChunks},
		{"book", quiz.ChunkFilter{Book: book, AllLessons: true, Limit: broadLimit}, 1},
	}
}

// Retrieve returns chunks for one exercise type. It tries, in order, the
// lesson's workbook chunks of that type, any chunks of that type, every
// chunk of the lesson, and every chunk of the book. The first of the
// first three tiers with at least MinChunks results wins; the book tier
// wins with any result. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, book, lesson int, exerciseType quiz.ExerciseType) ([]quiz.Chunk, error) {
	for _, t := range tiers(book, lesson, string(exerciseType)) {
		chunks, err := r.searcher.Search(ctx, t.filter)
		if err != nil {
			return nil, fmt.Errorf("retrieve %s chunks: %w", t.name, err)
		}
		if len(chunks) >= t.min {
			r.log.InfoContext(ctx, "retrieved content",
				"tier", t.name,
				"chunks", len(chunks),
				"book", book,
				"lesson", lesson,
				"exercise_type", exerciseType,
			)
			return chunks, nil
		}
	}

	r.log.ErrorContext(ctx, "no content found",
		"book", book,
		"lesson", lesson,
		"exercise_type", exerciseType,
	)
	return nil, nil
}

// RetrieveMixed retrieves content for each type and merges the results,
// dropping chunks already seen by id. With no result at all it falls back
// to every chunk of the lesson.
func (r *Retriever) RetrieveMixed(ctx context.Context, book, lesson int, types []quiz.ExerciseType) ([]quiz.Chunk, error) {
	var all []quiz.Chunk
	seen := make(map[string]bool)

	for _, et := range types {
		chunks, err := r.Retrieve(ctx, book, lesson, et)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			all = append(all, c)
		}
	}

	if len(all) > 0 {
		return all, nil
	}

	chunks, err := r.searcher.Search(ctx, quiz.ChunkFilter{Book: book, Lesson: lesson, Limit: broadLimit})
	if err != nil {
		return nil, fmt.Errorf("retrieve lesson chunks: %w", err)
	}
	return chunks, nil
}

// AvailableTypes returns the exercise types the lesson's chunks are tagged
// with. Tags that are not exercise types are skipped.
func (r *Retriever) AvailableTypes(ctx context.Context, book, lesson int) ([]quiz.ExerciseType, error) {
	tags, err := r.searcher.ExerciseTypes(ctx, book, lesson)
	if err != nil {
		return nil, fmt.Errorf("available exercise types: %w", err)
	}
	var out []quiz.ExerciseType
	for _, tag := range tags {
		if et := quiz.ExerciseType(tag); et.Concrete() {
			out = append(out, et)
		}
	}
	return out, nil
}
