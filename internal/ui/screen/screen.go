// Package screen defines the screens of the terminal UI and the stack that
// navigates between them.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/dangdai/quizgen/internal/ui/layout"
)

// Screen is one full-window view.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content between header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show a status, such as a
// running score, on the right of the header.
type StatusProvider interface {
	Status() string
}

// PushMsg asks the stack to open Screen on top of the current one.
type PushMsg struct {
	Screen Screen
}

// ReplaceMsg asks the stack to swap the active screen for Screen.
type ReplaceMsg struct {
	Screen Screen
}

// PopMsg asks the stack to close the active screen.
type PopMsg struct{}

// Stack holds the open screens; the last one is active.
type Stack struct {
	screens []Screen
}

// NewStack creates a stack with initial as its only screen.
func NewStack(initial Screen) *Stack {
	return &Stack{screens: []Screen{initial}}
}

// Push opens s and returns its Init command.
func (st *Stack) Push(s Screen) tea.Cmd {
	st.screens = append(st.screens, s)
	return s.Init()
}

// Replace swaps the active screen for s and returns its Init command.
func (st *Stack) Replace(s Screen) tea.Cmd {
	if len(st.screens) == 0 {
		return st.Push(s)
	}
	st.screens[len(st.screens)-1] = s
	return s.Init()
}

// Pop closes the active screen. The last screen is never popped.
func (st *Stack) Pop() {
	if len(st.screens) > 1 {
		st.screens = st.screens[:len(st.screens)-1]
	}
}

// Active returns the top screen.
func (st *Stack) Active() Screen {
	if len(st.screens) == 0 {
		return nil
	}
	return st.screens[len(st.screens)-1]
}

// Depth returns the number of open screens.
func (st *Stack) Depth() int {
	return len(st.screens)
}

// Update handles navigation messages and forwards everything else to the
// active screen.
func (st *Stack) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushMsg:
		return st.Push(msg.Screen)
	case ReplaceMsg:
		return st.Replace(msg.Screen)
	case PopMsg:
		st.Pop()
		return nil
	}

	active := st.Active()
	if active == nil {
		return nil
	}
	updated, cmd := active.Update(msg)
	st.screens[len(st.screens)-1] = updated
	return cmd
}

// View renders the active screen.
func (st *Stack) View(width, height int) string {
	if active := st.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}
