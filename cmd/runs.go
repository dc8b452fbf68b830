package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dangdai/quizgen/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent quiz generation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		outcome, _ := cmd.Flags().GetString("outcome")
		since, _ := cmd.Flags().GetDuration("since")
		showErrors, _ := cmd.Flags().GetBool("errors")

		opts := store.QueryOpts{Limit: limit, Outcome: outcome}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}

		_, s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryGenerationEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No generation runs found.")
			return nil
		}

		fmt.Printf("%-19s  %-8s  %-7s  %-22s  %-10s  %5s  %5s  %4s  %7s\n",
			"Timestamp", "Quiz", "Chapter", "Type", "Outcome", "Calls", "Retry", "Qs", "Ms")
		fmt.Println(strings.Repeat("─", 101))

		outcomes := make(map[string]int)
		for _, e := range events {
			outcomes[e.Outcome]++
			fmt.Printf("%-19s  %-8s  %-7d  %-22s  %-10s  %5d  %5d  %4d  %7d\n",
				e.Timestamp.Local().Format(timeLayout),
				truncate(e.QuizID, 8),
				e.ChapterID,
				truncate(e.ExerciseType, 22),
				e.Outcome,
				e.Attempts,
				e.RetryCount,
				e.QuestionCount,
				e.DurationMs,
			)
			if showErrors {
				for _, msg := range e.Errors {
					fmt.Printf("    %s\n", msg)
				}
			}
		}

		fmt.Println(strings.Repeat("─", 101))
		var parts []string
		for _, o := range []string{"success", "failed", "no_content", "timeout", "error"} {
			if n := outcomes[o]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", o, n))
			}
		}
		fmt.Printf("%d runs: %s\n", len(events), strings.Join(parts, ", "))
		return nil
	},
}

func init() {
	runsCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	runsCmd.Flags().StringP("outcome", "o", "", "Filter by outcome (success, failed, no_content, timeout, error)")
	runsCmd.Flags().Duration("since", 0, "Only show runs newer than this, e.g. 24h")
	runsCmd.Flags().BoolP("errors", "e", false, "Show validation errors under each run")
}
