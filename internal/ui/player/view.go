package player

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dangdai/quizgen/internal/quiz"
	"github.com/dangdai/quizgen/internal/ui/components"
	"github.com/dangdai/quizgen/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	if len(s.quiz.Questions) == 0 {
		return theme.Centered(width).Foreground(theme.TextDim).Render("\n\nThis quiz has no questions.")
	}
	if s.phase == phaseQuitConfirm {
		return renderQuitConfirm(width)
	}

	q := s.current()
	inner := min(width-8, 76)

	var b strings.Builder
	bar := components.ProgressBar{Done: len(s.outcomes), Total: len(s.quiz.Questions), Width: inner}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	b.WriteString(theme.Centered(width).Foreground(theme.Secondary).Render(
		fmt.Sprintf("Question %d of %d · %s", s.index+1, len(s.quiz.Questions), displayType(q.ExerciseType))))
	b.WriteString("\n\n")

	block := theme.Body.Bold(true).Width(inner).Render(q.Text)
	if material := renderMaterial(q); material != "" {
		block += "\n\n" + lipgloss.NewStyle().Width(inner).Render(material)
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, block))
	b.WriteString("\n\n")

	var answerArea string
	if s.mcActive {
		answerArea = s.mc.View()
	} else {
		answerArea = "Answer: " + s.input.View()
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(inner).Render(answerArea)))
	b.WriteString("\n")

	switch s.phase {
	case phaseChecking:
		b.WriteString(theme.Centered(width).Foreground(theme.TextDim).Render("Checking your answer..."))
	case phaseFeedback:
		b.WriteString(s.renderFeedback(width, inner))
	}
	return b.String()
}

// renderMaterial shows the type-specific prompt material of q.
func renderMaterial(q quiz.Question) string {
	var b strings.Builder
	switch body := q.Body.(type) {
	case *quiz.Vocabulary:
		if body.Character != "" && body.Subtype != "meaning_to_char" && body.Subtype != "pinyin_to_char" {
			b.WriteString(theme.Hanzi.Render(body.Character))
		}
	case *quiz.Grammar:
		b.WriteString(theme.Hanzi.Render(body.Sentence))
	case *quiz.FillInBlank:
		b.WriteString(theme.Hanzi.Render(body.SentenceWithBlank))
		if len(body.WordBank) > 0 {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("Word bank: " + strings.Join(body.WordBank, "  ")))
		}
	case *quiz.Matching:
		rows := max(len(body.LeftItems), len(body.RightItems))
		for i := range rows {
			var left, right string
			if i < len(body.LeftItems) {
				left = body.LeftItems[i]
			}
			if i < len(body.RightItems) {
				right = body.RightItems[i]
			}
			fmt.Fprintf(&b, "%d. %-12s  %c. %s\n", i+1, left, 'a'+rune(i), right)
		}
	case *quiz.DialogueCompletion:
		for _, bubble := range body.Bubbles {
			text := bubble.Text
			if bubble.IsBlank {
				text = "______"
			}
			fmt.Fprintf(&b, "%s: %s\n", bubble.Speaker, theme.Hanzi.Render(text))
		}
	case *quiz.SentenceConstruction:
		b.WriteString(theme.Hanzi.Render(strings.Join(body.ScrambledWords, " / ")))
	case *quiz.ReadingComprehension:
		b.WriteString(theme.Hanzi.Render(body.Passage))
		for i, cq := range body.Questions {
			fmt.Fprintf(&b, "\n\n%d. %s", i+1, cq.Question)
			for j, o := range cq.Options {
				fmt.Fprintf(&b, "\n   %c) %s", 'A'+rune(j), o)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *QuizScreen) renderFeedback(width, inner int) string {
	out := s.outcomes[len(s.outcomes)-1]

	var b strings.Builder
	b.WriteString("\n")
	if out.Result.IsCorrect {
		b.WriteString(theme.Centered(width).Inherit(theme.Correct).Render("Correct!"))
	} else {
		b.WriteString(theme.Centered(width).Inherit(theme.Incorrect).Render("Not quite"))
		b.WriteString("\n")
		b.WriteString(theme.Centered(width).Foreground(theme.TextDim).Render("Expected: " + out.Question.CorrectAnswer))
	}
	b.WriteString("\n\n")

	explanation := out.Result.Explanation
	if explanation == "" || explanation == "Your answer matches the expected answer." {
		explanation = out.Question.Explanation
	}
	if explanation != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Body.Width(inner).Render(explanation)))
		b.WriteString("\n")
	}
	if len(out.Result.Alternatives) > 0 {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Width(inner).Render("Also accepted: "+strings.Join(out.Result.Alternatives, " / "))))
		b.WriteString("\n")
	}
	if s.note != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Width(inner).Render(s.note)))
		b.WriteString("\n")
	}
	if out.Question.SourceCitation != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Width(inner).Render(out.Question.SourceCitation)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Centered(width).Foreground(theme.TextDim).Render("Press any key to continue..."))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(theme.Centered(width).Foreground(theme.Text).Bold(true).Render("End quiz early?"))
	b.WriteString("\n")
	b.WriteString(theme.Centered(width).Foreground(theme.TextDim).Render("Answers so far are saved."))
	b.WriteString("\n\n")
	b.WriteString(theme.Centered(width).Foreground(theme.Success).Render("[Y] Yes, end quiz"))
	b.WriteString("\n")
	b.WriteString(theme.Centered(width).Foreground(theme.Primary).Render("[N] No, keep going"))
	return b.String()
}
