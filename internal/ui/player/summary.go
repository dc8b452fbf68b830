package player

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dangdai/quizgen/internal/quiz"
	"github.com/dangdai/quizgen/internal/quizgen"
	"github.com/dangdai/quizgen/internal/ui/layout"
	"github.com/dangdai/quizgen/internal/ui/screen"
	"github.com/dangdai/quizgen/internal/ui/theme"
)

// TypeScore is the score for one exercise type.
type TypeScore struct {
	Type     quiz.ExerciseType
	Answered int
	Correct  int
}

// Summary is the result of a played quiz.
type Summary struct {
	QuizID   string
	Total    int
	Answered int
	Correct  int
	ByType   []TypeScore
	Missed   []Outcome
}

// Accuracy is the share of answered questions that were correct.
func (s Summary) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

// BuildSummary scores outcomes. Types are listed in order of first
// appearance.
func BuildSummary(q *quizgen.Response, outcomes []Outcome) Summary {
	sum := Summary{QuizID: q.QuizID, Total: len(q.Questions), Answered: len(outcomes)}
	index := make(map[quiz.ExerciseType]int)
	for _, o := range outcomes {
		i, ok := index[o.Question.ExerciseType]
		if !ok {
			i = len(sum.ByType)
			index[o.Question.ExerciseType] = i
			sum.ByType = append(sum.ByType, TypeScore{Type: o.Question.ExerciseType})
		}
		sum.ByType[i].Answered++
		if o.Result.IsCorrect {
			sum.Correct++
			sum.ByType[i].Correct++
		} else {
			sum.Missed = append(sum.Missed, o)
		}
	}
	return sum
}

// SummaryScreen shows the score after a quiz.
type SummaryScreen struct {
	summary Summary
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// NewSummary creates the summary screen for a finished quiz.
func NewSummary(q *quizgen.Response, outcomes []Outcome) *SummaryScreen {
	return &SummaryScreen{summary: BuildSummary(q, outcomes)}
}

// Summary returns the computed score.
func (s *SummaryScreen) Summary() Summary { return s.summary }

func (s *SummaryScreen) Init() tea.Cmd { return nil }

func (s *SummaryScreen) Title() string { return "Quiz Summary" }

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Exit"}}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc", "q":
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary

	var b strings.Builder
	b.WriteString(theme.Centered(width).Foreground(theme.Primary).Bold(true).Render("Quiz complete!"))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Answered: %d/%d        Correct: %d        Accuracy: %.0f%%",
		sum.Answered, sum.Total, sum.Correct, sum.Accuracy()*100)
	b.WriteString(theme.Centered(width).Foreground(theme.Text).Render(stats))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))

	if len(sum.ByType) > 1 {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Subtitle.Render("By exercise type")))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		for _, ts := range sum.ByType {
			line := fmt.Sprintf("%-24s %d/%d", displayType(ts.Type), ts.Correct, ts.Answered)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Body.Render(line)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(sum.Missed) > 0 {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Subtitle.Render("To review")))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		inner := min(width-8, 60)
		for _, o := range sum.Missed {
			entry := theme.Body.Width(inner).Render(o.Question.Text) + "\n" +
				theme.Incorrect.Render("  you: "+o.UserAnswer) + "   " +
				theme.Correct.Render("expected: "+o.Question.CorrectAnswer)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(inner).Render(entry)))
			b.WriteString("\n\n")
		}
	}

	return b.String()
}
