// Package player runs a generated quiz in the terminal: one question at a
// time, answers checked as they are submitted and a summary at the end.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/dangdai/quizgen/internal/answer"
	"github.com/dangdai/quizgen/internal/quiz"
	"github.com/dangdai/quizgen/internal/quizgen"
	"github.com/dangdai/quizgen/internal/ui/components"
	"github.com/dangdai/quizgen/internal/ui/layout"
	"github.com/dangdai/quizgen/internal/ui/screen"
)

// Checker judges one answer. answer.Validator satisfies it.
type Checker interface {
	Check(ctx context.Context, q quiz.Question, userAnswer string) (answer.Result, error)
}

// ResultRecorder stores answered questions. store.ResultRepo satisfies it.
type ResultRecorder interface {
	Append(ctx context.Context, res quiz.QuestionResult) error
}

type phase int

const (
	phaseAnswering phase = iota
	phaseChecking
	phaseFeedback
	phaseQuitConfirm
)

// Outcome is the verdict on one answered question.
type Outcome struct {
	Question   quiz.Question
	UserAnswer string
	Result     answer.Result
}

// checkedMsg carries the verdict for the question at index.
type checkedMsg struct {
	index  int
	result answer.Result
	err    error
}

// QuizScreen plays a quiz.
type QuizScreen struct {
	quiz     *quizgen.Response
	userID   string
	checker  Checker
	recorder ResultRecorder
	log      *slog.Logger

	index    int
	phase    phase
	resume   phase
	mc       components.MultiChoice
	mcActive bool
	input    components.TextInput
	outcomes []Outcome
	note     string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.StatusProvider = (*QuizScreen)(nil)

// New creates a QuizScreen. recorder may be nil.
func New(q *quizgen.Response, userID string, checker Checker, recorder ResultRecorder, log *slog.Logger) *QuizScreen {
	if log == nil {
		log = slog.Default()
	}
	s := &QuizScreen{
		quiz:     q,
		userID:   userID,
		checker:  checker,
		recorder: recorder,
		log:      log,
	}
	s.prepare()
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	if s.mcActive {
		return nil
	}
	return s.input.Init()
}

func (s *QuizScreen) Title() string {
	return fmt.Sprintf("Book %d · Lesson %d · %s", s.quiz.BookID, s.quiz.ChapterID%100, displayType(s.quiz.ExerciseType))
}

func (s *QuizScreen) Status() string {
	return fmt.Sprintf("✓ %d/%d", s.correct(), len(s.outcomes))
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseQuitConfirm:
		return []layout.KeyHint{{Key: "Y", Description: "End quiz"}, {Key: "N", Description: "Keep going"}}
	case phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case phaseChecking:
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}
	if s.mcActive {
		return []layout.KeyHint{{Key: "↑↓", Description: "Choose"}, {Key: "1-9", Description: "Pick"}, {Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Quit"}}
	}
	return []layout.KeyHint{{Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Quit"}}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case checkedMsg:
		return s.handleChecked(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseAnswering && !s.mcActive {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *QuizScreen) current() quiz.Question {
	return s.quiz.Questions[s.index]
}

func (s *QuizScreen) correct() int {
	n := 0
	for _, o := range s.outcomes {
		if o.Result.IsCorrect {
			n++
		}
	}
	return n
}

// prepare sets up the input for the current question.
func (s *QuizScreen) prepare() {
	s.phase = phaseAnswering
	s.note = ""
	if s.index >= len(s.quiz.Questions) {
		return
	}
	q := s.current()
	if opts := q.Options(); len(opts) > 0 {
		s.mcActive = true
		s.mc = components.NewMultiChoice(opts)
		return
	}
	s.mcActive = false
	s.input = components.NewTextInput("Type your answer...", 0)
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseQuitConfirm:
		switch key {
		case "y", "Y":
			return s, s.finish()
		case "n", "N", "esc":
			s.phase = s.resume
		}
		return s, nil

	case phaseChecking:
		return s, nil

	case phaseFeedback:
		s.index++
		if s.index >= len(s.quiz.Questions) {
			return s, s.finish()
		}
		s.prepare()
		return s, s.Init()
	}

	if key == "esc" {
		s.resume = s.phase
		s.phase = phaseQuitConfirm
		return s, nil
	}

	if s.mcActive {
		var cmd tea.Cmd
		s.mc, cmd = s.mc.Update(msg)
		if s.mc.Submitted {
			return s, s.submit(s.mc.Choice())
		}
		return s, cmd
	}

	if key == "enter" {
		if strings.TrimSpace(s.input.Value()) == "" {
			return s, nil
		}
		return s, s.submit(s.input.Value())
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// submit checks userAnswer asynchronously.
func (s *QuizScreen) submit(userAnswer string) tea.Cmd {
	s.phase = phaseChecking
	index := s.index
	q := s.current()
	s.outcomes = append(s.outcomes, Outcome{Question: q, UserAnswer: userAnswer})

	checker := s.checker
	return func() tea.Msg {
		res, err := checker.Check(context.Background(), q, userAnswer)
		return checkedMsg{index: index, result: res, err: err}
	}
}

func (s *QuizScreen) handleChecked(msg checkedMsg) (screen.Screen, tea.Cmd) {
	if msg.index != s.index || len(s.outcomes) == 0 {
		return s, nil
	}
	out := &s.outcomes[len(s.outcomes)-1]

	res := msg.result
	if msg.err != nil {
		s.log.Warn("answer check failed, comparing exactly", "question_id", out.Question.ID, "error", msg.err)
		res = answer.ExactMatch(answer.Request{
			Question:      out.Question.Text,
			UserAnswer:    out.UserAnswer,
			CorrectAnswer: out.Question.CorrectAnswer,
			ExerciseType:  out.Question.ExerciseType,
		})
		s.note = "Answer checking is unavailable; compared with the expected answer."
	}
	out.Result = res

	if s.mcActive {
		s.mc.Reveal(out.Question.CorrectAnswer)
	} else {
		s.input.Submit(res.IsCorrect)
	}
	s.phase = phaseFeedback
	s.record(*out)
	return s, nil
}

func (s *QuizScreen) record(out Outcome) {
	if s.recorder == nil {
		return
	}
	res := quiz.QuestionResult{
		UserID:       s.userID,
		QuizID:       s.quiz.QuizID,
		QuestionID:   out.Question.ID,
		ExerciseType: string(out.Question.ExerciseType),
		ChapterID:    s.quiz.ChapterID,
		Correct:      out.Result.IsCorrect,
		UserAnswer:   out.UserAnswer,
		CreatedAt:    time.Now().UTC(),
	}
	switch b := out.Question.Body.(type) {
	case *quiz.Vocabulary:
		res.VocabularyItem = b.Character
	case *quiz.Grammar:
		res.GrammarPattern = b.GrammarPoint
	}
	if err := s.recorder.Append(context.Background(), res); err != nil {
		s.log.Warn("failed to record answer", "question_id", out.Question.ID, "error", err)
	}
}

// finish replaces the quiz with its summary.
func (s *QuizScreen) finish() tea.Cmd {
	sum := NewSummary(s.quiz, s.outcomes)
	return func() tea.Msg { return screen.ReplaceMsg{Screen: sum} }
}

// Outcomes returns the answered questions so far.
func (s *QuizScreen) Outcomes() []Outcome {
	return s.outcomes
}

func displayType(t quiz.ExerciseType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
