// Package learn drives one learning session end to end: photo intake,
// keyword pick, the inquiry conversation, story time, the quiz run,
// and the next-steps menu.
package learn

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/convo"
	"github.com/tomo-edu/inquiry/internal/inquiry"
	"github.com/tomo-edu/inquiry/internal/missions"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/router"
	"github.com/tomo-edu/inquiry/internal/screen"
	"github.com/tomo-edu/inquiry/internal/screens/summarycard"
	"github.com/tomo-edu/inquiry/internal/store"
	"github.com/tomo-edu/inquiry/internal/task"
	"github.com/tomo-edu/inquiry/internal/ui/components"
	"github.com/tomo-edu/inquiry/internal/ui/layout"
	"github.com/tomo-edu/inquiry/internal/words"
)

type phase int

const (
	phasePhoto phase = iota
	phaseDetecting
	phaseKeyword
	phaseThinking
	phaseConversation
	phaseStoryGen
	phaseStory
	phaseQuizGen
	phaseQuiz
	phaseNextSteps
)

type nextMode int

const (
	nextRoot nextMode = iota
	nextWords
	nextMissions
)

// chatLine is one rendered conversation turn.
type chatLine struct {
	Learner     bool
	English     string
	Translation string
}

// Screen implements screen.Screen for the learning session.
type Screen struct {
	svc     *inquiry.Service
	ps      *profile.Store
	coinSvc *coins.Service
	events  store.EventRepo
	runner  *task.Runner

	phase  phase
	errMsg string
	frame  int

	// photo intake
	pathInput   components.TextInput
	photoErr    string
	missionWord string
	image       []byte
	imageMIME   string
	labels      []string

	// keyword pick
	keywordMenu components.Menu
	keywords    []string
	keyword     string

	// conversation
	chat       []chatLine
	choiceMenu components.Menu
	choices    []string
	replyInput components.TextInput
	turns      int

	// story
	storyRaw string
	storyEN  string
	storyJA  string

	// quiz run
	quizzes      []profile.Quiz
	quizIdx      int
	answers      []string
	mc           components.MultiChoice
	mcHints      bool
	quizInput    components.TextInput
	showFeedback bool
	lastCorrect  bool
	correctCount int
	session      *profile.Session

	// next steps
	nextMode       nextMode
	nextMenu       components.Menu
	tagWords       []string
	missionWords   []string
	tagLoading     bool
	missionLoading bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a learning session screen. missionWord, when non-empty,
// is shown as the photo mission nudge.
func New(svc *inquiry.Service, ps *profile.Store, coinSvc *coins.Service, events store.EventRepo, runner *task.Runner, missionWord string) *Screen {
	return &Screen{
		svc:         svc,
		ps:          ps,
		coinSvc:     coinSvc,
		events:      events,
		runner:      runner,
		missionWord: missionWord,
		pathInput:   components.NewTextInput("写真ファイルのパス (例: photos/dog.jpg)", false, 200),
	}
}

func (s *Screen) Init() tea.Cmd {
	return s.pathInput.Init()
}

func (s *Screen) Title() string {
	return "たんきゅう"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phasePhoto:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Open photo"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseConversation:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Answer"}}
		if s.turns >= 1 {
			hints = append(hints, layout.KeyHint{Key: "Ctrl+T", Description: "Story time"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	case phaseStory:
		return []layout.KeyHint{{Key: "Enter", Description: "Quiz time"}}
	case phaseQuiz:
		if s.showFeedback {
			return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
		}
		return []layout.KeyHint{{Key: "Enter", Description: "Answer"}}
	case phaseNextSteps:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Esc", Description: "Home"},
		}
	}
	return nil
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case labelsMsg:
		return s.handleLabels(msg)
	case replyMsg:
		return s.handleReply(msg)
	case storyMsg:
		return s.handleStory(msg)
	case quizzesMsg:
		return s.handleQuizzes(msg)
	case tagMsg:
		s.tagLoading = false
		s.tagWords = s.parseTagWords(msg)
		return s, nil
	case missionMsg:
		s.missionLoading = false
		s.missionWords = s.parseMissionWords(msg)
		return s, nil
	case spinnerTickMsg:
		s.frame++
		if s.waiting() {
			return s, spinnerTick()
		}
		return s, nil
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s.forwardInput(msg)
}

func (s *Screen) waiting() bool {
	switch s.phase {
	case phaseDetecting, phaseThinking, phaseStoryGen, phaseQuizGen:
		return true
	}
	return s.tagLoading || s.missionLoading
}

func (s *Screen) forwardInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch s.phase {
	case phasePhoto:
		s.pathInput, cmd = s.pathInput.Update(msg)
	case phaseConversation:
		if len(s.choices) == 0 {
			s.replyInput, cmd = s.replyInput.Update(msg)
		}
	case phaseQuiz:
		if !s.mcHints && !s.showFeedback {
			s.quizInput, cmd = s.quizInput.Update(msg)
		}
	}
	return s, cmd
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.errMsg != "" {
		if msg.String() == "r" {
			return s.retryAfterError()
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	switch s.phase {
	case phasePhoto:
		if msg.String() == "enter" {
			return s.openPhoto()
		}
	case phaseKeyword:
		if msg.String() == "enter" {
			if s.keywordMenu.Selected < len(s.keywords) {
				return s.startInquiry(s.keywords[s.keywordMenu.Selected])
			}
			return s, nil
		}
		s.keywordMenu, _ = s.keywordMenu.Update(msg)
		return s, nil
	case phaseConversation:
		return s.handleConversationKey(msg)
	case phaseStory:
		if msg.String() == "enter" {
			return s.startQuizzes()
		}
		return s, nil
	case phaseQuiz:
		return s.handleQuizKey(msg)
	case phaseNextSteps:
		return s.handleNextStepsKey(msg)
	}

	return s.forwardInput(msg)
}

// openPhoto reads the photo file and kicks off label detection.
func (s *Screen) openPhoto() (screen.Screen, tea.Cmd) {
	path := strings.TrimSpace(s.pathInput.Value())
	if path == "" {
		s.photoErr = "パスを入力してね"
		return s, nil
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.photoErr = "写真を開けませんでした: " + err.Error()
		return s, nil
	}

	s.photoErr = ""
	s.image = data
	s.imageMIME = mimeForPath(path)
	s.phase = phaseDetecting
	s.coinSvc.ResetSession()

	image, mime := s.image, s.imageMIME
	detect := s.runner.Cmd(
		func() (any, error) {
			return s.svc.DetectLabels(context.Background(), image, mime)
		},
		func(v any, err error) tea.Msg {
			if err != nil {
				return labelsMsg{Err: err}
			}
			labels, _ := v.([]string)
			return labelsMsg{Labels: labels}
		},
	)
	return s, tea.Batch(detect, spinnerTick())
}

func (s *Screen) handleLabels(msg labelsMsg) (screen.Screen, tea.Cmd) {
	// Detection failure falls back to generic keywords so the learner
	// is never stuck.
	s.labels = msg.Labels

	candidates := words.FromLabels(s.labels, words.DefaultLimit)
	s.keywords = words.Fresh(candidates, s.usedWords(), words.DefaultLimit)
	if len(s.keywords) == 0 {
		s.keywords = candidates
	}

	items := make([]components.MenuItem, len(s.keywords))
	for i, w := range s.keywords {
		items[i] = components.MenuItem{Label: w}
	}
	s.keywordMenu = components.NewMenu(items)
	s.phase = phaseKeyword
	return s, nil
}

// usedWords collects the keywords already studied against this photo.
func (s *Screen) usedWords() map[string]bool {
	used := map[string]bool{}
	if t := s.ps.FindThemeByImage(s.image); t != nil {
		for w := range t.WordSessions {
			used[w] = true
		}
	}
	return used
}

// startInquiry opens the conversation for keyword.
func (s *Screen) startInquiry(keyword string) (screen.Screen, tea.Cmd) {
	s.keyword = keyword
	s.chat = nil
	s.choices = nil
	s.turns = 0
	s.storyRaw, s.storyEN, s.storyJA = "", "", ""
	s.quizzes = nil
	s.answers = nil
	s.correctCount = 0
	s.session = nil
	s.phase = phaseThinking

	s.svc.Reset()
	s.svc.SetLearner(s.ps.Profile.Grade, s.ps.Profile.CurrentLevel)

	input := inquiry.StartInput{
		Image:     s.image,
		ImageMIME: s.imageMIME,
		Keyword:   keyword,
		Labels:    s.labels,
	}
	start := s.runner.Cmd(
		func() (any, error) {
			return s.svc.StartInquiry(context.Background(), input)
		},
		replyDone,
	)
	return s, tea.Batch(start, spinnerTick())
}

func replyDone(v any, err error) tea.Msg {
	if err != nil {
		return replyMsg{Err: err}
	}
	text, _ := v.(string)
	return replyMsg{Text: text}
}

func (s *Screen) handleReply(msg replyMsg) (screen.Screen, tea.Cmd) {
	s.phase = phaseConversation
	if msg.Err != nil {
		s.chat = append(s.chat, chatLine{English: "（エラーが起きました。もう一度ためしてね）"})
		s.choices = nil
		s.replyInput = components.NewTextInput("こたえを入力してね...", false, 200)
		return s, s.replyInput.Init()
	}

	cleaned, choices := convo.ExtractChoices(msg.Text)
	english, translation, _ := convo.SplitTranslation(cleaned)

	s.chat = append(s.chat, chatLine{English: english, Translation: translation})
	s.turns++
	s.choices = choices

	if len(choices) > 0 {
		items := make([]components.MenuItem, len(choices))
		for i, c := range choices {
			items[i] = components.MenuItem{Label: c}
		}
		s.choiceMenu = components.NewMenu(items)
		return s, nil
	}
	s.replyInput = components.NewTextInput("こたえを入力してね...", false, 200)
	return s, s.replyInput.Init()
}

func (s *Screen) handleConversationKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+t" && s.turns >= 1 {
		return s.startStory()
	}

	if len(s.choices) > 0 {
		if key == "enter" {
			if s.choiceMenu.Selected < len(s.choices) {
				return s.sendReply(s.choices[s.choiceMenu.Selected])
			}
			return s, nil
		}
		s.choiceMenu, _ = s.choiceMenu.Update(msg)
		return s, nil
	}

	if key == "enter" {
		reply := strings.TrimSpace(s.replyInput.Value())
		if reply == "" {
			return s, nil
		}
		return s.sendReply(reply)
	}

	var cmd tea.Cmd
	s.replyInput, cmd = s.replyInput.Update(msg)
	return s, cmd
}

func (s *Screen) sendReply(reply string) (screen.Screen, tea.Cmd) {
	s.chat = append(s.chat, chatLine{Learner: true, English: reply})
	s.choices = nil
	s.phase = phaseThinking

	send := s.runner.Cmd(
		func() (any, error) {
			return s.svc.Continue(context.Background(), reply)
		},
		replyDone,
	)
	return s, tea.Batch(send, spinnerTick())
}

func (s *Screen) startStory() (screen.Screen, tea.Cmd) {
	s.phase = phaseStoryGen
	gen := s.runner.Cmd(
		func() (any, error) {
			return s.svc.GenerateStory(context.Background())
		},
		func(v any, err error) tea.Msg {
			if err != nil {
				return storyMsg{Err: err}
			}
			text, _ := v.(string)
			return storyMsg{Text: text}
		},
	)
	return s, tea.Batch(gen, spinnerTick())
}

func (s *Screen) handleStory(msg storyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = "お話を作れませんでした: " + msg.Err.Error()
		return s, nil
	}
	s.storyRaw = msg.Text
	s.storyEN, s.storyJA, _ = convo.SplitTranslation(msg.Text)
	s.phase = phaseStory
	return s, nil
}

func (s *Screen) startQuizzes() (screen.Screen, tea.Cmd) {
	s.phase = phaseQuizGen
	previous := s.previousQuestions()
	gen := s.runner.Cmd(
		func() (any, error) {
			return s.svc.GenerateQuizzes(context.Background(), previous)
		},
		func(v any, err error) tea.Msg {
			if err != nil {
				return quizzesMsg{Err: err}
			}
			qs, _ := v.([]profile.Quiz)
			return quizzesMsg{Quizzes: qs}
		},
	)
	return s, tea.Batch(gen, spinnerTick())
}

// previousQuestions returns the quiz questions from an earlier pass on
// the same keyword, so regeneration avoids repeats.
func (s *Screen) previousQuestions() []string {
	t := s.ps.FindThemeByImage(s.image)
	if t == nil {
		return nil
	}
	prev, ok := t.WordSessions[s.keyword]
	if !ok {
		return nil
	}
	var out []string
	for _, q := range prev.Quizzes {
		out = append(out, q.Question)
	}
	return out
}

func (s *Screen) handleQuizzes(msg quizzesMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = "クイズを作れませんでした: " + msg.Err.Error()
		return s, nil
	}
	s.quizzes = msg.Quizzes
	s.quizIdx = 0
	s.answers = nil
	s.correctCount = 0
	s.phase = phaseQuiz
	return s, s.setupQuiz()
}

// setupQuiz prepares the input for the current quiz. Younger grades see
// the choices; the oldest types the answer.
func (s *Screen) setupQuiz() tea.Cmd {
	s.showFeedback = false
	q := s.quizzes[s.quizIdx]

	s.mcHints = inquiry.GradeShowsHints(s.ps.Profile.Grade) && answerIndex(q) >= 0
	if s.mcHints {
		s.mc = components.NewMultiChoice(q.Question, q.Choices, answerIndex(q))
		return nil
	}
	s.quizInput = components.NewTextInput("こたえは？ (True/False はTかFでもOK)", false, 100)
	return s.quizInput.Init()
}

// answerIndex finds the correct choice index, case-insensitively.
func answerIndex(q profile.Quiz) int {
	for i, c := range q.Choices {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(q.Answer)) {
			return i
		}
	}
	return -1
}

func (s *Screen) handleQuizKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.showFeedback {
		return s.advanceQuiz()
	}

	q := s.quizzes[s.quizIdx]

	if s.mcHints {
		s.mc, _ = s.mc.Update(msg)
		if s.mc.Submitted {
			given := q.Choices[s.mc.ChosenIndex]
			s.gradeAnswer(q, given, s.mc.IsCorrect())
		}
		return s, nil
	}

	if msg.String() == "enter" {
		raw := s.quizInput.Value()
		if strings.TrimSpace(raw) == "" {
			return s, nil
		}
		given := inquiry.NormalizeAnswer(q.Type, raw)
		s.gradeAnswer(q, given, strings.EqualFold(given, q.Answer))
		return s, nil
	}

	var cmd tea.Cmd
	s.quizInput, cmd = s.quizInput.Update(msg)
	return s, cmd
}

// gradeAnswer records the answer, pays the reward, and logs the event.
func (s *Screen) gradeAnswer(q profile.Quiz, given string, correct bool) {
	s.answers = append(s.answers, given)
	s.lastCorrect = correct
	s.showFeedback = true
	if correct {
		s.correctCount++
		s.coinSvc.AwardQuizCorrect(context.Background())
	}
	if s.events != nil {
		_ = s.events.AppendAnswer(context.Background(), store.AnswerEventData{
			Theme:         s.themeTitle(),
			Word:          s.keyword,
			QuizType:      q.Type,
			Question:      q.Question,
			CorrectAnswer: q.Answer,
			GivenAnswer:   given,
			Correct:       correct,
		})
	}
}

func (s *Screen) advanceQuiz() (screen.Screen, tea.Cmd) {
	if s.quizIdx+1 < len(s.quizzes) {
		s.quizIdx++
		return s, s.setupQuiz()
	}
	return s.finishQuizzes()
}

// themeTitle names the theme this photo belongs to: the first detected
// label, falling back to the chosen keyword.
func (s *Screen) themeTitle() string {
	if t := s.ps.FindThemeByImage(s.image); t != nil && t.Title != "" {
		return t.Title
	}
	if len(s.labels) > 0 {
		return s.labels[0]
	}
	return s.keyword
}

// finishQuizzes checkpoints the session into the profile and opens the
// next-steps menu while tag and mission choices generate in the
// background.
func (s *Screen) finishQuizzes() (screen.Screen, tea.Cmd) {
	s.session = &profile.Session{
		Story:            s.storyEN,
		StoryTranslation: s.storyJA,
		Quizzes:          s.quizzes,
		UserAnswers:      s.answers,
	}
	s.ps.SaveOrUpdateTheme(s.image, s.themeTitle(), s.keyword, s.labels, s.session)

	s.phase = phaseNextSteps
	s.nextMode = nextRoot
	s.nextMenu = newNextRootMenu()
	s.tagLoading = true
	s.missionLoading = true

	fetchTag := s.runner.Cmd(
		func() (any, error) {
			return s.svc.GenerateTagChoices(context.Background())
		},
		func(v any, err error) tea.Msg {
			if err != nil {
				return tagMsg{Err: err}
			}
			raw, _ := v.(string)
			return tagMsg{Raw: raw}
		},
	)
	fetchMission := s.runner.Cmd(
		func() (any, error) {
			return s.svc.GenerateMissionChoices(context.Background())
		},
		func(v any, err error) tea.Msg {
			if err != nil {
				return missionMsg{Err: err}
			}
			raw, _ := v.(string)
			return missionMsg{Raw: raw}
		},
	)
	return s, tea.Batch(fetchTag, fetchMission, spinnerTick())
}

func newNextRootMenu() components.Menu {
	return components.NewMenu([]components.MenuItem{
		{Label: "まとめカードを書く"},
		{Label: "おなじ写真でべつのことば"},
		{Label: "つぎの写真ミッション"},
		{Label: "ホームにもどる"},
	})
}

// parseTagWords extracts keyword choices from the tag response, falling
// back to fresh words from the photo labels.
func (s *Screen) parseTagWords(msg tagMsg) []string {
	if msg.Err == nil {
		if cs := parseChoices(msg.Raw); len(cs) > 0 {
			return cs
		}
	}
	used := s.usedWords()
	used[s.keyword] = true
	return words.Fresh(words.FromLabels(s.labels, words.DefaultLimit), used, 5)
}

// parseMissionWords extracts photo mission choices, falling back to the
// story's marked words and always offering the way home.
func (s *Screen) parseMissionWords(msg missionMsg) []string {
	var out []string
	if msg.Err == nil {
		out = parseChoices(msg.Raw)
	}
	if len(out) == 0 {
		out = missions.FromStory(s.storyRaw)
	}
	if len(out) == 0 {
		out = words.FromLabels(s.labels, 5)
	}
	return missions.WithReturnHome(out)
}

func parseChoices(raw string) []string {
	if _, cs := convo.ParseQuestionChoices(raw); len(cs) > 0 {
		return cs
	}
	if _, cs := convo.ExtractChoices(raw); len(cs) > 0 {
		return cs
	}
	return nil
}

func (s *Screen) handleNextStepsKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if key != "enter" {
		s.nextMenu, _ = s.nextMenu.Update(msg)
		return s, nil
	}

	switch s.nextMode {
	case nextRoot:
		switch s.nextMenu.Selected {
		case 0:
			card := summarycard.New(s.svc, s.ps, s.coinSvc, s.events, s.runner, s.session)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: card} }
		case 1:
			if s.tagLoading {
				return s, nil
			}
			s.nextMode = nextWords
			s.nextMenu = wordMenu(s.tagWords)
			return s, nil
		case 2:
			if s.missionLoading {
				return s, nil
			}
			s.nextMode = nextMissions
			s.nextMenu = wordMenu(s.missionWords)
			return s, nil
		default:
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}

	case nextWords:
		if s.nextMenu.Selected < len(s.tagWords) {
			return s.startInquiry(s.tagWords[s.nextMenu.Selected])
		}
		return s, nil

	case nextMissions:
		if s.nextMenu.Selected >= len(s.missionWords) {
			return s, nil
		}
		choice := s.missionWords[s.nextMenu.Selected]
		if choice == missions.ReturnHome {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		s.missionWord = choice
		s.resetForNewPhoto()
		return s, s.pathInput.Init()
	}

	return s, nil
}

func wordMenu(choices []string) components.Menu {
	items := make([]components.MenuItem, len(choices))
	for i, c := range choices {
		items[i] = components.MenuItem{Label: c}
	}
	return components.NewMenu(items)
}

// resetForNewPhoto returns the screen to photo intake for the next
// mission.
func (s *Screen) resetForNewPhoto() {
	s.phase = phasePhoto
	s.photoErr = ""
	s.image = nil
	s.labels = nil
	s.keyword = ""
	s.chat = nil
	s.choices = nil
	s.session = nil
	s.pathInput = components.NewTextInput("写真ファイルのパス (例: photos/dog.jpg)", false, 200)
}

// retryAfterError re-runs the step that failed.
func (s *Screen) retryAfterError() (screen.Screen, tea.Cmd) {
	s.errMsg = ""
	switch s.phase {
	case phaseStoryGen:
		return s.startStory()
	case phaseQuizGen:
		return s.startQuizzes()
	}
	return s, func() tea.Msg { return router.PopScreenMsg{} }
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
