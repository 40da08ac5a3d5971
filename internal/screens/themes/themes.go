// Package themes lets the learner browse everything studied so far:
// themes, their word sessions, and each session's story, quiz results,
// and summary card.
package themes

import (
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/inquiry"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/router"
	"github.com/tomo-edu/inquiry/internal/screen"
	"github.com/tomo-edu/inquiry/internal/screens/summarycard"
	"github.com/tomo-edu/inquiry/internal/store"
	"github.com/tomo-edu/inquiry/internal/task"
	"github.com/tomo-edu/inquiry/internal/ui/components"
	"github.com/tomo-edu/inquiry/internal/ui/layout"
	"github.com/tomo-edu/inquiry/internal/ui/theme"
)

type mode int

const (
	modeThemes mode = iota
	modeWords
	modeReview
)

// Screen is the theme history browser.
type Screen struct {
	svc     *inquiry.Service
	ps      *profile.Store
	coinSvc *coins.Service
	events  store.EventRepo
	runner  *task.Runner

	mode  mode
	menu  components.Menu
	theme *profile.Theme
	words []string
	word  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates the browser over the current profile.
func New(svc *inquiry.Service, ps *profile.Store, coinSvc *coins.Service, events store.EventRepo, runner *task.Runner) *Screen {
	s := &Screen{
		svc:     svc,
		ps:      ps,
		coinSvc: coinSvc,
		events:  events,
		runner:  runner,
	}
	s.menu = s.themeMenu()
	return s
}

func (s *Screen) Title() string {
	return "テーマのきろく"
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modeReview:
		hints := []layout.KeyHint{{Key: "M", Description: "まとめカード"}}
		return append(hints,
			layout.KeyHint{Key: "←", Description: "Back"},
			layout.KeyHint{Key: "Esc", Description: "Home"})
	case modeWords:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Open"},
			{Key: "←", Description: "Back"},
			{Key: "Esc", Description: "Home"},
		}
	}
	return nil
}

func (s *Screen) themeMenu() components.Menu {
	items := make([]components.MenuItem, 0, len(s.ps.Profile.ThemeHistory))
	for _, t := range s.ps.Profile.ThemeHistory {
		label := fmt.Sprintf("%s（%d ことば）", t.Title, len(t.WordSessions))
		items = append(items, components.MenuItem{Label: label})
	}
	return components.NewMenu(items)
}

func (s *Screen) wordMenu() components.Menu {
	s.words = s.words[:0]
	for w := range s.theme.WordSessions {
		s.words = append(s.words, w)
	}
	sort.Strings(s.words)

	items := make([]components.MenuItem, len(s.words))
	for i, w := range s.words {
		sess := s.theme.WordSessions[w]
		marker := " "
		if sess != nil && sess.SummaryCard.FilledFields() > 0 {
			marker = "✎"
		}
		items[i] = components.MenuItem{Label: fmt.Sprintf("%s %s", marker, w)}
	}
	return components.NewMenu(items)
}

func (s *Screen) session() *profile.Session {
	if s.theme == nil || s.word == "" {
		return nil
	}
	return s.theme.WordSessions[s.word]
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	key := kmsg.String()

	switch s.mode {
	case modeThemes:
		if key == "enter" {
			if s.menu.Selected < len(s.ps.Profile.ThemeHistory) {
				s.theme = s.ps.Profile.ThemeHistory[s.menu.Selected]
				s.mode = modeWords
				s.menu = s.wordMenu()
			}
			return s, nil
		}

	case modeWords:
		switch key {
		case "enter":
			if s.menu.Selected < len(s.words) {
				s.word = s.words[s.menu.Selected]
				s.mode = modeReview
			}
			return s, nil
		case "left", "h":
			s.mode = modeThemes
			s.menu = s.themeMenu()
			return s, nil
		}

	case modeReview:
		switch key {
		case "left", "h":
			s.mode = modeWords
			s.menu = s.wordMenu()
			return s, nil
		case "m", "M":
			sess := s.session()
			if sess == nil {
				return s, nil
			}
			// Restore story context so card guidance sees it.
			s.svc.SetStory(sess.Story)
			card := summarycard.New(s.svc, s.ps, s.coinSvc, s.events, s.runner, sess)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: card} }
		}
		return s, nil
	}

	s.menu, _ = s.menu.Update(msg)
	return s, nil
}

func (s *Screen) View(width, height int) string {
	switch s.mode {
	case modeThemes:
		if len(s.ps.Profile.ThemeHistory) == 0 {
			return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).
					Render("まだきろくがありません。写真から始めてみよう！"))
		}
		return theme.Title.Width(width).Render("どのテーマを見る？") + "\n\n" + s.menu.View()

	case modeWords:
		return theme.Title.Width(width).Render(s.theme.Title) + "\n\n" + s.menu.View()

	case modeReview:
		return s.renderReview(width, height)
	}
	return ""
}

func (s *Screen) renderReview(width, height int) string {
	sess := s.session()
	if sess == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render(fmt.Sprintf("%s — %s", s.theme.Title, s.word)))
	b.WriteString("\n\n")

	card := theme.Card.Width(min(width-8, 70))
	body := lipgloss.NewStyle().Foreground(theme.Text).Render(sess.Story)
	if sess.StoryTranslation != "" {
		body += "\n\n" + theme.Translation.Render(sess.StoryTranslation)
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card.Render(body)))
	b.WriteString("\n\n")

	for i, q := range sess.Quizzes {
		given := ""
		if i < len(sess.UserAnswers) {
			given = sess.UserAnswers[i]
		}
		mark := lipgloss.NewStyle().Foreground(theme.Error).Render("×")
		if strings.EqualFold(given, q.Answer) {
			mark = lipgloss.NewStyle().Foreground(theme.Success).Render("○")
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", mark,
			lipgloss.NewStyle().Foreground(theme.Text).Render(q.Question)))
		b.WriteString("     " + lipgloss.NewStyle().Foreground(theme.TextDim).
			Render(fmt.Sprintf("こたえ: %s / あなた: %s", q.Answer, given)) + "\n")
	}

	if n := sess.SummaryCard.FilledFields(); n > 0 {
		b.WriteString("\n  " + lipgloss.NewStyle().Foreground(theme.Secondary).
			Render(fmt.Sprintf("✎ まとめカードあり（%d/4 記入）", n)) + "\n")
	}
	if inquiry.GradeNeedsChoices(s.ps.Profile.Grade) {
		// Younger learners get the reminder about editing the card.
		b.WriteString("\n  " + theme.Hint.Render("M でまとめカードを書けるよ") + "\n")
	}

	return b.String()
}
