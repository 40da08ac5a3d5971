package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/inquiry"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/router"
	"github.com/tomo-edu/inquiry/internal/screen"
	"github.com/tomo-edu/inquiry/internal/screens/home"
	"github.com/tomo-edu/inquiry/internal/store"
	"github.com/tomo-edu/inquiry/internal/task"
	"github.com/tomo-edu/inquiry/internal/ui/layout"
)

// Deps carries the services shared by every screen.
type Deps struct {
	Profile *profile.Store
	Inquiry *inquiry.Service
	Coins   *coins.Service
	Events  store.EventRepo
	Runner  *task.Runner
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	deps   Deps
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(deps Deps) AppModel {
	homeScreen := home.New(deps.Profile, deps.Inquiry, deps.Coins, deps.Events, deps.Runner)
	return AppModel{
		deps:   deps,
		router: router.New(homeScreen),
	}
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			// Exit checkpoint: mid-session coin awards live only in
			// memory until the next theme save.
			_ = m.deps.Profile.Save()
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	p := m.deps.Profile.Profile
	header := layout.RenderHeader(title, p.CurrentLevel, p.Coins, m.width)

	var footerHints []layout.KeyHint
	if hinter, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hinter.KeyHints()
	}
	if footerHints == nil {
		if m.router.Depth() > 1 {
			footerHints = []layout.KeyHint{
				{Key: "Esc", Description: "Back"},
				{Key: "Ctrl+C", Description: "Quit"},
			}
		} else {
			footerHints = []layout.KeyHint{
				{Key: "↑↓", Description: "Navigate"},
				{Key: "Enter", Description: "Select"},
				{Key: "Ctrl+C", Description: "Quit"},
			}
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(deps Deps) error {
	p := tea.NewProgram(newAppModel(deps))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
