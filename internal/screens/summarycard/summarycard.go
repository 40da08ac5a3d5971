// Package summarycard is the reflection screen shown after a quiz run:
// four free-text fields, an AI coaching pane, and the coin reward plus
// level evaluation on save.
package summarycard

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/inquiry"
	"github.com/tomo-edu/inquiry/internal/level"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/router"
	"github.com/tomo-edu/inquiry/internal/screen"
	"github.com/tomo-edu/inquiry/internal/store"
	"github.com/tomo-edu/inquiry/internal/task"
	"github.com/tomo-edu/inquiry/internal/ui/components"
	"github.com/tomo-edu/inquiry/internal/ui/layout"
	"github.com/tomo-edu/inquiry/internal/ui/theme"
)

// fieldLabels name the four reflection fields, in display order.
var fieldLabels = []string{
	"事実（わかったこと）",
	"気持ち・解決策",
	"新しい視点",
	"参考（もっと知りたいこと）",
}

// Screen is the summary card editor.
type Screen struct {
	svc     *inquiry.Service
	ps      *profile.Store
	coinSvc *coins.Service
	events  store.EventRepo
	runner  *task.Runner

	session *profile.Session

	inputs  [4]components.TextInput
	focus   int
	guide   string
	loading bool

	saved     bool
	levelFrom string
	levelTo   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the editor for session's summary card. An existing card
// pre-fills the fields so editing never starts from scratch.
func New(svc *inquiry.Service, ps *profile.Store, coinSvc *coins.Service, events store.EventRepo, runner *task.Runner, session *profile.Session) *Screen {
	s := &Screen{
		svc:     svc,
		ps:      ps,
		coinSvc: coinSvc,
		events:  events,
		runner:  runner,
		session: session,
		loading: true,
	}
	prefill := [4]string{}
	if card := session.SummaryCard; card != nil {
		prefill = [4]string{card.Field1, card.Field2, card.Field3, card.Field4}
	}
	for i := range s.inputs {
		s.inputs[i] = components.NewTextInput("ここに書いてね...", false, 120)
		if prefill[i] != "" {
			s.inputs[i].Model.SetValue(prefill[i])
		}
		if i != 0 {
			s.inputs[i].Model.Blur()
		}
	}
	return s
}

func (s *Screen) Title() string {
	return "まとめカード"
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(
		s.inputs[0].Init(),
		s.fetchGuidance(),
	)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.saved {
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Ctrl+S", Description: "Save"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case guidanceMsg:
		s.loading = false
		if msg.Err != nil {
			s.guide = "（ヒントを取得できませんでした）"
		} else {
			s.guide = msg.Text
		}
		return s, nil

	case tea.KeyMsg:
		if s.saved {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.setFocus(s.focus + 1)
		case "shift+tab", "up":
			return s, s.setFocus(s.focus - 1)
		case "enter":
			if s.focus < len(s.inputs)-1 {
				return s, s.setFocus(s.focus + 1)
			}
			s.save()
			return s, nil
		case "ctrl+s":
			s.save()
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s *Screen) setFocus(next int) tea.Cmd {
	if next < 0 {
		next = len(s.inputs) - 1
	}
	if next >= len(s.inputs) {
		next = 0
	}
	s.inputs[s.focus].Model.Blur()
	s.focus = next
	return s.inputs[s.focus].Model.Focus()
}

// save installs the card, persists the profile, pays the reward, and
// runs the level evaluation.
func (s *Screen) save() {
	ctx := context.Background()

	card := &profile.SummaryCard{
		Field1: strings.TrimSpace(s.inputs[0].Value()),
		Field2: strings.TrimSpace(s.inputs[1].Value()),
		Field3: strings.TrimSpace(s.inputs[2].Value()),
		Field4: strings.TrimSpace(s.inputs[3].Value()),
	}
	s.session.SummaryCard = card

	s.coinSvc.AwardSummaryCard(ctx)

	current := s.ps.Profile.CurrentLevel
	next := level.Evaluate(s.session.UserAnswers, s.session.Quizzes, card, current)
	if next != current {
		s.levelFrom = current
		s.levelTo = next
		s.ps.Profile.CurrentLevel = next
		s.svc.SetLearner(s.ps.Profile.Grade, next)
		if s.events != nil {
			_ = s.events.AppendLevelChange(ctx, store.LevelEventData{
				From:     current,
				To:       next,
				Accuracy: level.Accuracy(s.session.UserAnswers, s.session.Quizzes),
			})
		}
	}

	_ = s.ps.Save()
	s.saved = true
}

func (s *Screen) View(width, height int) string {
	if s.saved {
		return s.renderSaved(width, height)
	}

	var b strings.Builder

	b.WriteString(theme.Title.Width(width).Render("まとめカードを書こう"))
	b.WriteString("\n\n")

	guide := s.guide
	if s.loading {
		guide = "先生からのヒントを考え中..."
	}
	guideBox := theme.Card.Width(min(width-8, 70)).Render(
		lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("先生から") + "\n" +
			lipgloss.NewStyle().Foreground(theme.Text).Render(guide))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, guideBox))
	b.WriteString("\n\n")

	for i, in := range s.inputs {
		label := fieldLabels[i]
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if i == s.focus {
			style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		}
		line := "  " + style.Render(label) + "\n  " + in.View()
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	return b.String()
}

func (s *Screen) renderSaved(width, height int) string {
	lines := []string{
		lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render("まとめカードを保存しました！"),
		"",
		lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("◎ +%d コイン", coins.SummaryCardReward)),
	}
	if s.levelTo != "" {
		lines = append(lines, "",
			lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
				Render(fmt.Sprintf("レベルが変わりました: %s → %s", s.levelFrom, s.levelTo)))
	}
	content := strings.Join(lines, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// fetchGuidance asks the tutor for a short coaching message.
func (s *Screen) fetchGuidance() tea.Cmd {
	session := s.session
	return s.runner.Cmd(
		func() (any, error) {
			return s.svc.SummaryGuidance(context.Background(), session)
		},
		func(v any, err error) tea.Msg {
			if err != nil {
				return guidanceMsg{Err: err}
			}
			text, _ := v.(string)
			return guidanceMsg{Text: text}
		},
	)
}
