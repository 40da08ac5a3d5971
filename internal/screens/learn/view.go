package learn

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/ui/theme"
)

var spinnerFrames = []string{"", ".", "..", "..."}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return s.renderError(width, height)
	}

	switch s.phase {
	case phasePhoto:
		return s.renderPhoto(width, height)
	case phaseDetecting:
		return renderWaiting(width, height, "写真を見ています"+s.dots())
	case phaseKeyword:
		return s.renderKeyword(width, height)
	case phaseThinking:
		return s.renderConversation(width, height, true)
	case phaseConversation:
		return s.renderConversation(width, height, false)
	case phaseStoryGen:
		return renderWaiting(width, height, "お話を作っています"+s.dots())
	case phaseStory:
		return s.renderStory(width, height)
	case phaseQuizGen:
		return renderWaiting(width, height, "クイズを作っています"+s.dots())
	case phaseQuiz:
		return s.renderQuiz(width, height)
	case phaseNextSteps:
		return s.renderNextSteps(width, height)
	}
	return ""
}

func (s *Screen) dots() string {
	return spinnerFrames[s.frame%len(spinnerFrames)]
}

func renderWaiting(width, height int, text string) string {
	msg := lipgloss.NewStyle().Foreground(theme.TextDim).Render(text)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
}

func (s *Screen) renderError(width, height int) string {
	content := lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(s.errMsg) +
		"\n\n" +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("R でもう一度 / ほかのキーでもどる")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (s *Screen) renderPhoto(width, height int) string {
	var b strings.Builder

	b.WriteString(theme.Title.Width(width).Render("写真をえらぼう"))
	b.WriteString("\n\n")

	if s.missionWord != "" {
		mission := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
			Render(fmt.Sprintf("  ミッション: 「%s」をさがして写真にとろう！", s.missionWord))
		b.WriteString(mission)
		b.WriteString("\n\n")
	}

	b.WriteString("  " + s.pathInput.View())
	b.WriteString("\n")

	if s.photoErr != "" {
		b.WriteString("\n  " + lipgloss.NewStyle().Foreground(theme.Error).Render(s.photoErr))
	}

	return b.String()
}

func (s *Screen) renderKeyword(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("どのことばをしらべる？"))
	b.WriteString("\n\n")
	b.WriteString(s.keywordMenu.View())
	return b.String()
}

func (s *Screen) renderConversation(width, height int, thinking bool) string {
	var b strings.Builder

	tutorStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	learnerStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(theme.Text)
	wrap := lipgloss.NewStyle().Width(width - 8)

	// Keep the tail of the transcript that fits.
	lines := s.chat
	if len(lines) > 6 {
		lines = lines[len(lines)-6:]
	}
	for _, line := range lines {
		who := tutorStyle.Render("先生")
		if line.Learner {
			who = learnerStyle.Render("あなた")
		}
		b.WriteString("  " + who + "\n")
		b.WriteString("  " + wrap.Render(textStyle.Render(line.English)) + "\n")
		if line.Translation != "" {
			b.WriteString("  " + wrap.Render(theme.Translation.Render(line.Translation)) + "\n")
		}
		b.WriteString("\n")
	}

	if thinking {
		b.WriteString("  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render("考え中"+s.dots()))
		return b.String()
	}

	if len(s.choices) > 0 {
		b.WriteString(s.choiceMenu.View())
	} else {
		b.WriteString("  " + s.replyInput.View())
	}
	return b.String()
}

func (s *Screen) renderStory(width, height int) string {
	var b strings.Builder

	b.WriteString(theme.Title.Width(width).Render("お話のじかん"))
	b.WriteString("\n\n")

	card := theme.Card.Width(min(width-8, 70))
	body := lipgloss.NewStyle().Foreground(theme.Text).Render(s.storyEN)
	if s.storyJA != "" {
		body += "\n\n" + theme.Translation.Render(s.storyJA)
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card.Render(body)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
		Render("Enter でクイズへ"))
	return b.String()
}

func (s *Screen) renderQuiz(width, height int) string {
	var b strings.Builder

	q := s.quizzes[s.quizIdx]

	progress := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("  クイズ %d/%d   ◎ +%d × %d", s.quizIdx+1, len(s.quizzes), coins.QuizCorrectReward, s.correctCount))
	b.WriteString(progress)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("  " + strings.Repeat("─", max(width-8, 0))))
	b.WriteString("\n\n")

	if s.showFeedback {
		b.WriteString(s.renderQuizFeedback(width, q.Answer))
		return b.String()
	}

	if s.mcHints {
		b.WriteString(s.mc.View())
		return b.String()
	}

	b.WriteString("  " + lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(q.Question))
	b.WriteString("\n\n  " + s.quizInput.View())
	return b.String()
}

func (s *Screen) renderQuizFeedback(width int, answer string) string {
	if s.lastCorrect {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(
			lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render("○ せいかい！") +
				"  " +
				lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("◎ +%d", coins.QuizCorrectReward)))
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(
		lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("× ざんねん…") +
			"\n" +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("こたえ: "+answer))
}

func (s *Screen) renderNextSteps(width, height int) string {
	var b strings.Builder

	title := "よくできました！つぎはどうする？"
	switch s.nextMode {
	case nextWords:
		title = "つぎはどのことば？"
	case nextMissions:
		title = "つぎの写真ミッション"
	}
	b.WriteString(theme.Title.Width(width).Render(title))
	b.WriteString("\n\n")

	if s.nextMode == nextRoot {
		score := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Text).
			Render(fmt.Sprintf("クイズ %d/%d せいかい   ◎ このセッションで +%d",
				s.correctCount, len(s.quizzes), s.coinSvc.SessionCoins))
		b.WriteString(score)
		b.WriteString("\n\n")
	}

	b.WriteString(s.nextMenu.View())

	if s.nextMode == nextRoot && (s.tagLoading || s.missionLoading) {
		b.WriteString("\n  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render("つぎの候補を考え中"+s.dots()))
	}
	return b.String()
}
