// Package app hosts the root Bubble Tea model that frames the active
// screen with a header and footer.
package app

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/dangdai/quizgen/internal/ui/layout"
	"github.com/dangdai/quizgen/internal/ui/screen"
)

// Model is the root Bubble Tea model.
type Model struct {
	stack  *screen.Stack
	width  int
	height int
}

// New creates a Model showing initial.
func New(initial screen.Screen) Model {
	return Model{stack: screen.NewStack(initial)}
}

func (m Model) Init() tea.Cmd {
	if active := m.stack.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, m.stack.Update(msg)
}

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the frame around the active screen. It is empty until the
// first window size is known.
func (m Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.stack.Active()
	var title, status string
	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
		if kp, ok := active.(screen.KeyHintProvider); ok {
			hints = kp.KeyHints()
		}
	}

	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(hints, m.width)
	content := m.stack.View(m.width, layout.ContentHeight(header, footer, m.height))

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run shows initial until a screen quits or ctx is cancelled.
func Run(ctx context.Context, initial screen.Screen) error {
	p := tea.NewProgram(New(initial), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
