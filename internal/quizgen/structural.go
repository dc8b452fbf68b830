package quizgen

import (
	"fmt"
	"slices"

	"github.com/dangdai/quizgen/internal/quiz"
)

// NoQuestionsMessage is the validation error recorded for an empty batch.
const NoQuestionsMessage = "No questions were generated"

// A check inspects one question and returns its violations. seen holds the
// texts of earlier questions in the batch.
type check func(q *quiz.Question, seen map[string]bool) []string

var structuralChecks = []check{
	checkRequired,
	checkDuplicateText,
	checkOptions,
	checkExplanation,
}

func checkRequired(q *quiz.Question, _ map[string]bool) []string {
	var out []string
	for _, f := range []struct{ name, value string }{
		{"question_text", q.Text},
		{"correct_answer", q.CorrectAnswer},
		{"exercise_type", string(q.ExerciseType)},
	} {
		if f.value == "" {
			out = append(out, fmt.Sprintf("missing required field '%s'", f.name))
		}
	}
	return out
}

func checkDuplicateText(q *quiz.Question, seen map[string]bool) []string {
	if seen[q.Text] {
		return []string{"duplicate question text"}
	}
	return nil
}

func checkOptions(q *quiz.Question, _ map[string]bool) []string {
	opts := q.Options()
	if len(opts) == 0 {
		return nil
	}
	var out []string
	distinct := make(map[string]bool, len(opts))
	for _, o := range opts {
		distinct[o] = true
	}
	if len(distinct) != len(opts) {
		out = append(out, "duplicate options found")
	}
	if q.CorrectAnswer != "" && !slices.Contains(opts, q.CorrectAnswer) {
		out = append(out, "correct_answer not in options")
	}
	return out
}

func checkExplanation(q *quiz.Question, _ map[string]bool) []string {
	if q.Explanation == "" {
		return []string{"missing explanation"}
	}
	return nil
}

// StructuralValidator applies deterministic per-question checks. Questions
// with any violation are dropped; the batch is regenerated only when none
// survive.
type StructuralValidator struct{}

// Run validates State.Questions.
func (StructuralValidator) Run(s State) Patch {
	if len(s.Questions) == 0 {
		return Patch{
			ValidationErrors: set([]string{NoQuestionsMessage}),
			RetryCount:       set(s.RetryCount + 1),
		}
	}

	var errs []string
	survivors := make([]quiz.Question, 0, len(s.Questions))
	seen := make(map[string]bool, len(s.Questions))

	for i := range s.Questions {
		q := &s.Questions[i]
		id := q.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}

		var violations []string
		for _, c := range structuralChecks {
			violations = append(violations, c(q, seen)...)
		}
		// The first occurrence of a text wins, even when it is dropped.
		seen[q.Text] = true

		if len(violations) == 0 {
			survivors = append(survivors, *q)
			continue
		}
		for _, v := range violations {
			errs = append(errs, id+": "+v)
		}
	}

	if len(survivors) == 0 {
		return Patch{
			Questions:        set(survivors),
			ValidationErrors: set(errs),
			RetryCount:       set(s.RetryCount + 1),
		}
	}
	return Patch{
		Questions:        set(survivors),
		ValidationErrors: set([]string{}),
	}
}
