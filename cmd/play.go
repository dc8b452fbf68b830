package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dangdai/quizgen/internal/ui/app"
	"github.com/dangdai/quizgen/internal/ui/player"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Generate a quiz and play it in the terminal",
	Long: `Generate a quiz and answer it question by question. Answers are
checked as you go and recorded, so later quizzes lean toward what you
got wrong.`,
	Example: `  quizgen play --chapter 105 --type vocabulary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := quizRequest(cmd)
		if err != nil {
			return err
		}

		b, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		fmt.Printf("Generating a %s quiz for chapter %d...\n", req.ExerciseType, req.ChapterID)
		q, err := b.service().Generate(ctx, req)
		if err != nil {
			return describeGenerateError(err)
		}

		screen := player.New(q, req.UserID, b.validator(), b.results, slog.Default())
		if err := app.Run(ctx, screen); err != nil {
			return fmt.Errorf("run quiz: %w", err)
		}

		sum := player.BuildSummary(q, screen.Outcomes())
		fmt.Printf("Score: %d/%d correct (%.0f%%), %d of %d questions answered.\n",
			sum.Correct, sum.Answered, sum.Accuracy()*100, sum.Answered, sum.Total)
		return nil
	},
}

func init() {
	addQuizFlags(playCmd)
}
