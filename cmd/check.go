package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dangdai/quizgen/internal/answer"
	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a learner answer against the expected answer",
	Long: `Ask the LLM whether an answer to an open-ended question is acceptable.
Without --answer, answers are read from stdin one per line.

Sentence construction and dialogue completion answers are judged by the
LLM; every other type is compared with the expected answer.`,
	Example: `  quizgen check --type sentence_construction --question "Build: 我 / 學生 / 是" --expected 我是學生 --answer 我是學生`,
	RunE:    runCheck,
}

func init() {
	checkCmd.Flags().StringP("type", "t", string(quiz.TypeSentenceConstruction), "Exercise type of the question")
	checkCmd.Flags().StringP("question", "q", "", "Question text (required)")
	checkCmd.Flags().StringP("expected", "e", "", "Expected answer (required)")
	checkCmd.Flags().StringP("answer", "a", "", "Learner answer (default: read from stdin)")
	_ = checkCmd.MarkFlagRequired("question")
	_ = checkCmd.MarkFlagRequired("expected")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	typeVal, _ := cmd.Flags().GetString("type")
	question, _ := cmd.Flags().GetString("question")
	expected, _ := cmd.Flags().GetString("expected")
	answerVal, _ := cmd.Flags().GetString("answer")

	et := quiz.ExerciseType(typeVal)
	if !et.Concrete() {
		return fmt.Errorf("invalid exercise type %q", typeVal)
	}

	cfg, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}
	v := answer.NewValidator(provider, cfg.AnswerTimeout, slog.Default())

	q := quiz.Question{ExerciseType: et, Text: question, CorrectAnswer: expected}

	if answerVal != "" {
		return checkOne(cmd, v, q, answerVal)
	}

	fmt.Printf("Question: %s\n", question)
	fmt.Println("Type an answer and press Enter (Ctrl+D to stop).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := checkOne(cmd, v, q, line); err != nil {
			return err
		}
	}
}

func checkOne(cmd *cobra.Command, v *answer.Validator, q quiz.Question, userAnswer string) error {
	res, err := v.Check(cmd.Context(), q, userAnswer)
	if errors.Is(err, answer.ErrTimeout) {
		fmt.Println("  Answer checking timed out; try again.")
		return nil
	}
	if err != nil {
		return err
	}

	mark := "✗ incorrect"
	if res.IsCorrect {
		mark = "✓ correct"
	}
	fmt.Printf("  %s: %s\n", mark, res.Explanation)
	if len(res.Alternatives) > 0 {
		fmt.Printf("  also accepted: %s\n", strings.Join(res.Alternatives, " / "))
	}
	return nil
}
