package learn

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/inquiry"
	"github.com/tomo-edu/inquiry/internal/llm"
	"github.com/tomo-edu/inquiry/internal/missions"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/prompts"
	"github.com/tomo-edu/inquiry/internal/store"
	"github.com/tomo-edu/inquiry/internal/task"
)

// mockEventRepo implements store.EventRepo for testing.
type mockEventRepo struct {
	answers []store.AnswerEventData
	coins   []store.CoinEventData
	levels  []store.LevelEventData
}

func (m *mockEventRepo) AppendLLMRequest(_ context.Context, _ store.LLMRequestEventData) error {
	return nil
}
func (m *mockEventRepo) AppendAnswer(_ context.Context, data store.AnswerEventData) error {
	m.answers = append(m.answers, data)
	return nil
}
func (m *mockEventRepo) AppendCoins(_ context.Context, data store.CoinEventData) error {
	m.coins = append(m.coins, data)
	return nil
}
func (m *mockEventRepo) AppendLevelChange(_ context.Context, data store.LevelEventData) error {
	m.levels = append(m.levels, data)
	return nil
}
func (m *mockEventRepo) LLMUsage(_ context.Context) (*store.LLMUsageSummary, error) {
	return &store.LLMUsageSummary{}, nil
}
func (m *mockEventRepo) AnswerStats(_ context.Context) (*store.AnswerSummary, error) {
	return &store.AnswerSummary{}, nil
}
func (m *mockEventRepo) LevelHistory(_ context.Context, _ int) ([]store.LevelEventRecord, error) {
	return nil, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testScreen(t *testing.T) (*Screen, *mockEventRepo, *profile.Store) {
	t.Helper()
	ps := profile.NewStore(filepath.Join(t.TempDir(), "profile.json"))
	ps.Logf = func(string, ...any) {}
	repo := &mockEventRepo{}
	svc := inquiry.NewService(llm.NewMockProvider(), prompts.New(t.TempDir()), inquiry.DefaultConfig())
	s := New(svc, ps, coins.NewService(ps, repo), repo, task.New(), "dog")
	return s, repo, ps
}

func TestMimeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"photos/dog.jpg", "image/jpeg"},
		{"photos/dog.JPEG", "image/jpeg"},
		{"photos/cat.png", "image/png"},
		{"photos/bird.gif", "image/gif"},
		{"photos/fish.webp", "image/webp"},
		{"photos/noext", "image/jpeg"},
	}
	for _, tt := range tests {
		if got := mimeForPath(tt.path); got != tt.want {
			t.Errorf("mimeForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAnswerIndex(t *testing.T) {
	q := profile.Quiz{
		Choices: []string{"Dog", "Cat", "Bird"},
		Answer:  "cat ",
	}
	if got := answerIndex(q); got != 1 {
		t.Errorf("answerIndex = %d, want 1", got)
	}

	q.Answer = "fish"
	if got := answerIndex(q); got != -1 {
		t.Errorf("answerIndex for missing answer = %d, want -1", got)
	}
}

func TestLabelFailureFallsBackToGenericWords(t *testing.T) {
	s, _, _ := testScreen(t)
	s.phase = phaseDetecting

	s.Update(labelsMsg{Err: errors.New("vision unavailable")})

	if s.phase != phaseKeyword {
		t.Fatalf("phase = %d, want keyword pick", s.phase)
	}
	if len(s.keywords) == 0 {
		t.Error("expected generic keywords when detection fails")
	}
}

func TestParseTagWordsFromResponse(t *testing.T) {
	s, _, _ := testScreen(t)

	raw := "QUESTION: つぎはどれ？\nCHOICES: [apple] [banana] [cherry]"
	got := s.parseTagWords(tagMsg{Raw: raw})

	want := []string{"apple", "banana", "cherry"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("choice %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseTagWordsFallbackSkipsStudiedWord(t *testing.T) {
	s, _, _ := testScreen(t)
	s.labels = []string{"dog", "cat", "tree"}
	s.keyword = "dog"

	got := s.parseTagWords(tagMsg{Err: errors.New("rate limited")})

	for _, w := range got {
		if w == "dog" {
			t.Errorf("fallback offered the word just studied: %v", got)
		}
	}
	if len(got) == 0 {
		t.Error("expected fallback words from labels")
	}
}

func TestParseMissionWordsFromStory(t *testing.T) {
	s, _, _ := testScreen(t)
	s.storyRaw = "A <dog> sat under the <tree>. The <dog> was happy."

	got := s.parseMissionWords(missionMsg{Err: errors.New("rate limited")})

	if len(got) != 3 {
		t.Fatalf("got %v, want dog, tree and return home", got)
	}
	if got[0] != "dog" || got[1] != "tree" {
		t.Errorf("story words = %v", got[:2])
	}
	if got[2] != missions.ReturnHome {
		t.Errorf("last choice = %q, want return home", got[2])
	}
}

func TestParseMissionWordsFallbackToLabels(t *testing.T) {
	s, _, _ := testScreen(t)
	s.labels = []string{"car"}

	got := s.parseMissionWords(missionMsg{Err: errors.New("rate limited")})

	if got[0] != "car" {
		t.Errorf("first choice = %q, want car", got[0])
	}
	if got[len(got)-1] != missions.ReturnHome {
		t.Error("expected return home as the final choice")
	}
}

func TestQuizFlowTypedAnswers(t *testing.T) {
	s, repo, ps := testScreen(t)
	ps.Profile.Grade = "5-6年生"
	s.image = []byte("photo-bytes")
	s.imageMIME = "image/jpeg"
	s.labels = []string{"dog park"}
	s.keyword = "dog"
	s.storyEN = "Once there was a dog."
	s.storyJA = "むかし、いぬがいました。"

	quizzes := []profile.Quiz{
		{Type: "ことばのいみ", Question: "What is 犬?", Choices: []string{"dog", "cat", "bird", "fish"}, Answer: "dog"},
		{Type: "True/False", Question: "A dog is an animal.", Choices: []string{"True", "False"}, Answer: "True"},
	}
	s.Update(quizzesMsg{Quizzes: quizzes})

	if s.phase != phaseQuiz {
		t.Fatalf("phase = %d, want quiz", s.phase)
	}
	if s.mcHints {
		t.Fatal("oldest grade should type answers, not pick choices")
	}

	// First quiz: correct answer.
	s.quizInput.Model.SetValue("dog")
	s.Update(specialKey(tea.KeyEnter))
	if !s.showFeedback || !s.lastCorrect {
		t.Fatal("expected correct feedback")
	}
	if ps.Profile.Coins != coins.QuizCorrectReward {
		t.Errorf("coins = %d, want %d", ps.Profile.Coins, coins.QuizCorrectReward)
	}

	// Second quiz: t/f shorthand is accepted.
	s.Update(keyPress(' '))
	if s.quizIdx != 1 || s.showFeedback {
		t.Fatalf("expected quiz 2, got idx %d feedback %v", s.quizIdx, s.showFeedback)
	}
	s.quizInput.Model.SetValue("t")
	s.Update(specialKey(tea.KeyEnter))
	if !s.lastCorrect {
		t.Error("expected t to count as True")
	}

	// Finishing checkpoints the session into the profile.
	s.Update(keyPress(' '))
	if s.phase != phaseNextSteps {
		t.Fatalf("phase = %d, want next steps", s.phase)
	}
	if s.correctCount != 2 {
		t.Errorf("correct count = %d, want 2", s.correctCount)
	}
	if len(repo.answers) != 2 {
		t.Fatalf("answer events = %d, want 2", len(repo.answers))
	}
	if repo.answers[1].GivenAnswer != "True" {
		t.Errorf("given answer = %q, want normalized True", repo.answers[1].GivenAnswer)
	}

	if len(ps.Profile.ThemeHistory) != 1 {
		t.Fatalf("themes = %d, want 1", len(ps.Profile.ThemeHistory))
	}
	theme := ps.Profile.ThemeHistory[0]
	if theme.Title != "dog park" {
		t.Errorf("theme title = %q, want first label", theme.Title)
	}
	sess := theme.WordSessions["dog"]
	if sess == nil {
		t.Fatal("expected a session under the studied word")
	}
	if len(sess.UserAnswers) != 2 {
		t.Errorf("saved answers = %v", sess.UserAnswers)
	}
}

func TestQuizChoicesForYoungerGrade(t *testing.T) {
	s, repo, ps := testScreen(t)
	ps.Profile.Grade = "1-2年生"
	s.image = []byte("photo-bytes")
	s.labels = []string{"dog"}
	s.keyword = "dog"

	quizzes := []profile.Quiz{
		{Type: "ことばのいみ", Question: "What is 犬?", Choices: []string{"dog", "cat"}, Answer: "dog"},
	}
	s.Update(quizzesMsg{Quizzes: quizzes})

	if !s.mcHints {
		t.Fatal("younger grade should see the choices")
	}

	// Pick the wrong choice.
	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyEnter))

	if !s.showFeedback || s.lastCorrect {
		t.Fatal("expected incorrect feedback")
	}
	if ps.Profile.Coins != 0 {
		t.Errorf("coins = %d, want 0 for a wrong answer", ps.Profile.Coins)
	}
	if len(repo.answers) != 1 || repo.answers[0].Correct {
		t.Errorf("answer events = %+v", repo.answers)
	}
	if repo.answers[0].GivenAnswer != "cat" {
		t.Errorf("given answer = %q, want cat", repo.answers[0].GivenAnswer)
	}
}

func TestQuizGenerationErrorOffersRetry(t *testing.T) {
	s, _, _ := testScreen(t)
	s.phase = phaseQuizGen

	s.Update(quizzesMsg{Err: errors.New("rate limited")})
	if s.errMsg == "" {
		t.Fatal("expected an error message")
	}

	// Any key other than r backs out.
	_, cmd := s.Update(keyPress('x'))
	if cmd == nil {
		t.Error("expected a pop command after dismissing the error")
	}
}
