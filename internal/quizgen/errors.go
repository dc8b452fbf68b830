package quizgen

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout means the run exceeded its deadline. Partial results are
	// discarded.
	ErrTimeout = errors.New("quiz generation timed out")

	// ErrGenerationFailed means the run ended without an accepted batch.
	ErrGenerationFailed = errors.New("quiz generation failed")

	// ErrNoContent means no textbook content was found for the chapter
	// and no batch was accepted.
	ErrNoContent = errors.New("no content available for chapter")

	// ErrUpstream wraps failures of the content retriever or the
	// weakness profiler. They end the run.
	ErrUpstream = errors.New("upstream collaborator failed")
)

// FailureError describes a run that finished without a quiz.
type FailureError struct {
	// Kind is ErrGenerationFailed or ErrNoContent.
	Kind             error
	ValidationErrors []string
	RetryCount       int
}

func (e *FailureError) Error() string {
	detail := "no questions generated"
	if len(e.ValidationErrors) > 0 {
		detail = strings.Join(e.ValidationErrors, "; ")
	}
	return fmt.Sprintf("%v after %d retries: %s", e.Kind, e.RetryCount, detail)
}

// Is matches the failure's kind. Every FailureError also matches
// ErrGenerationFailed.
func (e *FailureError) Is(target error) bool {
	return target == e.Kind || target == ErrGenerationFailed
}
