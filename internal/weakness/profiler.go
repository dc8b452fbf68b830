// Package weakness aggregates a learner's incorrect answers into a
// WeaknessProfile and biases mixed quizzes toward weak exercise types.
package weakness

import (
	"context"
	"fmt"
	"slices"

	"github.com/dangdai/quizgen/internal/quiz"
)

const (
	// HistoryLimit is how many recent incorrect answers are aggregated.
	HistoryLimit = 100

	maxWeakTypes   = 3
	maxWeakVocab   = 10
	maxWeakGrammar = 10
)

// ResultSource returns a learner's latest incorrect answers, newest first.
// store.ResultRepo and pgstore.ResultRepo both implement it.
type ResultSource interface {
	RecentIncorrect(ctx context.Context, userID string, limit int) ([]quiz.QuestionResult, error)
}

// Profiler builds weakness profiles from answer history.
type Profiler struct {
	source ResultSource
}

// NewProfiler creates a Profiler over the given result source.
func NewProfiler(source ResultSource) *Profiler {
	return &Profiler{source: source}
}

// Profile aggregates the user's latest incorrect answers. A user with no
// history gets the zero profile.
func (p *Profiler) Profile(ctx context.Context, userID string) (quiz.WeaknessProfile, error) {
	results, err := p.source.RecentIncorrect(ctx, userID, HistoryLimit)
	if err != nil {
		return quiz.WeaknessProfile{}, fmt.Errorf("load answer history: %w", err)
	}
	return Aggregate(results), nil
}

// Aggregate ranks exercise types, vocabulary items and grammar patterns by
// how often they were answered incorrectly. Ties keep first-appearance order.
func Aggregate(results []quiz.QuestionResult) quiz.WeaknessProfile {
	var types, vocab, grammar counter
	for _, r := range results {
		et := r.ExerciseType
		if et == "" {
			et = "unknown"
		}
		types.add(et)
		vocab.add(r.VocabularyItem)
		grammar.add(r.GrammarPattern)
	}
	return quiz.WeaknessProfile{
		WeakExerciseTypes: types.top(maxWeakTypes),
		WeakVocab:         vocab.top(maxWeakVocab),
		WeakGrammar:       grammar.top(maxWeakGrammar),
	}
}

// counter counts strings, remembering first-appearance order.
type counter struct {
	order  []string
	counts map[string]int
}

func (c *counter) add(key string) {
	if key == "" {
		return
	}
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top(n int) []string {
	ranked := slices.Clone(c.order)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SelectMixedTypes picks up to count exercise types for a mixed quiz:
// weak types that are available first, in profile order, then the other
// available types in availability order.
func SelectMixedTypes(profile quiz.WeaknessProfile, available []quiz.ExerciseType, count int) []quiz.ExerciseType {
	if len(available) == 0 || count <= 0 {
		return nil
	}

	selected := make([]quiz.ExerciseType, 0, count)
	for _, w := range profile.WeakExerciseTypes {
		if len(selected) >= count {
			break
		}
		wt := quiz.ExerciseType(w)
		if slices.Contains(available, wt) && !slices.Contains(selected, wt) {
			selected = append(selected, wt)
		}
	}
	for _, at := range available {
		if len(selected) >= count {
			break
		}
		if !slices.Contains(selected, at) {
			selected = append(selected, at)
		}
	}
	return selected
}
