package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dangdai/quizgen/internal/quiz"
	"github.com/dangdai/quizgen/internal/quizgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz and print it as JSON",
	Example: `  quizgen generate --chapter 105 --type vocabulary
  quizgen generate --chapter 212 --type mixed --user alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := quizRequest(cmd)
		if err != nil {
			return err
		}

		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		resp, err := b.service().Generate(cmd.Context(), req)
		if err != nil {
			return describeGenerateError(err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	addQuizFlags(generateCmd)
}

// addQuizFlags registers the flags that describe a quiz request.
func addQuizFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("chapter", "c", 0, "Chapter id: book*100 + lesson, e.g. 105 (required)")
	cmd.Flags().IntP("book", "b", 0, "Book number (default: derived from --chapter)")
	cmd.Flags().StringP("type", "t", string(quiz.TypeVocabulary), "Exercise type, or mixed")
	cmd.Flags().StringP("user", "u", "local", "Learner id used for weakness profiling")
	_ = cmd.MarkFlagRequired("chapter")
}

func quizRequest(cmd *cobra.Command) (quiz.Request, error) {
	chapter, _ := cmd.Flags().GetInt("chapter")
	book, _ := cmd.Flags().GetInt("book")
	exerciseType, _ := cmd.Flags().GetString("type")
	user, _ := cmd.Flags().GetString("user")

	if book == 0 {
		book, _ = quiz.SplitChapterID(chapter)
	}
	req := quiz.Request{
		ChapterID:    chapter,
		BookID:       book,
		ExerciseType: quiz.ExerciseType(exerciseType),
		UserID:       user,
	}
	return req, req.Validate()
}

// describeGenerateError turns generation failures into messages for the
// terminal.
func describeGenerateError(err error) error {
	var failure *quizgen.FailureError
	switch {
	case errors.Is(err, quizgen.ErrTimeout):
		return fmt.Errorf("quiz generation took too long, please try again: %w", err)
	case errors.As(err, &failure) && errors.Is(failure.Kind, quizgen.ErrNoContent):
		return fmt.Errorf("no textbook content found for this chapter: %w", err)
	case errors.As(err, &failure):
		return fmt.Errorf("could not produce a valid quiz after %d retries: %w", failure.RetryCount, err)
	case errors.Is(err, quizgen.ErrUpstream):
		return fmt.Errorf("content or history lookup failed: %w", err)
	}
	return err
}
