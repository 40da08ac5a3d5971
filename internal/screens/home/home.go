// Package home is the landing screen: greeting, today's photo mission,
// and the main menu. Grade and level settings are edited inline.
package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/inquiry"
	"github.com/tomo-edu/inquiry/internal/level"
	"github.com/tomo-edu/inquiry/internal/missions"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/router"
	"github.com/tomo-edu/inquiry/internal/screen"
	"github.com/tomo-edu/inquiry/internal/screens/learn"
	"github.com/tomo-edu/inquiry/internal/screens/themes"
	"github.com/tomo-edu/inquiry/internal/store"
	"github.com/tomo-edu/inquiry/internal/task"
	"github.com/tomo-edu/inquiry/internal/ui/components"
	"github.com/tomo-edu/inquiry/internal/ui/layout"
	"github.com/tomo-edu/inquiry/internal/ui/theme"
)

type mode int

const (
	modeMenu mode = iota
	modeGrade
	modeLevel
)

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	ps      *profile.Store
	svc     *inquiry.Service
	coinSvc *coins.Service
	events  store.EventRepo
	runner  *task.Runner

	mode        mode
	menu        components.Menu
	gradeMenu   components.Menu
	levelMenu   components.Menu
	missionWord string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(ps *profile.Store, svc *inquiry.Service, coinSvc *coins.Service, events store.EventRepo, runner *task.Runner) *HomeScreen {
	h := &HomeScreen{
		ps:          ps,
		svc:         svc,
		coinSvc:     coinSvc,
		events:      events,
		runner:      runner,
		missionWord: missions.Next(),
	}

	items := []components.MenuItem{
		{Label: "写真から始める", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{
					Screen: learn.New(svc, ps, coinSvc, events, runner, h.missionWord),
				}
			}
		}},
		{Label: "テーマのきろく", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{
					Screen: themes.New(svc, ps, coinSvc, events, runner),
				}
			}
		}},
		{Label: "せってい（学年・レベル）", Action: func() tea.Cmd {
			h.mode = modeGrade
			h.gradeMenu = selectionMenu(inquiry.Grades, ps.Profile.Grade)
			return nil
		}},
		{Label: "おわる", Action: func() tea.Cmd {
			// Exit checkpoint: coins earned since the last theme save
			// must survive the quit.
			_ = ps.Save()
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

// selectionMenu builds a menu over options with current preselected.
func selectionMenu(options []string, current string) components.Menu {
	items := make([]components.MenuItem, len(options))
	for i, opt := range options {
		items[i] = components.MenuItem{Label: opt}
	}
	m := components.NewMenu(items)
	for i, opt := range options {
		if opt == current {
			m.Selected = i
		}
	}
	return m
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "ホーム"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	if h.mode != modeMenu {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
		}
	}
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, isKey := msg.(tea.KeyMsg)

	switch h.mode {
	case modeGrade:
		if isKey && kmsg.String() == "enter" {
			if h.gradeMenu.Selected < len(inquiry.Grades) {
				h.ps.Profile.Grade = inquiry.Grades[h.gradeMenu.Selected]
			}
			h.mode = modeLevel
			h.levelMenu = selectionMenu(level.Levels, h.ps.Profile.CurrentLevel)
			return h, nil
		}
		h.gradeMenu, _ = h.gradeMenu.Update(msg)
		return h, nil

	case modeLevel:
		if isKey && kmsg.String() == "enter" {
			if h.levelMenu.Selected < len(level.Levels) {
				h.ps.Profile.CurrentLevel = level.Levels[h.levelMenu.Selected]
			}
			h.svc.SetLearner(h.ps.Profile.Grade, h.ps.Profile.CurrentLevel)
			_ = h.ps.Save()
			h.mode = modeMenu
			return h, nil
		}
		h.levelMenu, _ = h.levelMenu.Update(msg)
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	switch h.mode {
	case modeGrade:
		return theme.Title.Width(width).Render("学年をえらんでね") + "\n\n" + h.gradeMenu.View()
	case modeLevel:
		return theme.Title.Width(width).Render("レベルをえらんでね") + "\n\n" + h.levelMenu.View()
	}

	var sections []string

	greeting := theme.Title.Render("こんにちは！今日はなにをしらべる？")
	sections = append(sections, greeting)

	mission := theme.Card.Render(
		lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("今日のミッション") + "\n" +
			lipgloss.NewStyle().Foreground(theme.Text).
				Render(fmt.Sprintf("「%s」をさがして写真にとろう！", h.missionWord)))
	sections = append(sections, mission)

	p := h.ps.Profile
	stats := lipgloss.NewStyle().Foreground(theme.TextDim).Render(
		fmt.Sprintf("%s ・ %s ・ テーマ %d こ", p.Grade, p.CurrentLevel, len(p.ThemeHistory)))
	sections = append(sections, stats)

	sections = append(sections, h.menu.View())

	content := strings.Join(sections, "\n\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
