package coins

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/store"
)

// mockEventRepo records coin events and stubs the rest of the repo.
type mockEventRepo struct {
	coinEvents []store.CoinEventData
}

func (m *mockEventRepo) AppendLLMRequest(_ context.Context, _ store.LLMRequestEventData) error {
	return nil
}
func (m *mockEventRepo) AppendAnswer(_ context.Context, _ store.AnswerEventData) error {
	return nil
}
func (m *mockEventRepo) AppendCoins(_ context.Context, data store.CoinEventData) error {
	m.coinEvents = append(m.coinEvents, data)
	return nil
}
func (m *mockEventRepo) AppendLevelChange(_ context.Context, _ store.LevelEventData) error {
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

func newTestService(t *testing.T) (*Service, *mockEventRepo) {
	t.Helper()
	ps := profile.NewStore(filepath.Join(t.TempDir(), "profile.json"))
	repo := &mockEventRepo{}
	return NewService(ps, repo), repo
}

func TestAwardQuizCorrect(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	balance := svc.AwardQuizCorrect(ctx)
	if balance != QuizCorrectReward {
		t.Errorf("balance = %d, want %d", balance, QuizCorrectReward)
	}
	if svc.SessionCoins != QuizCorrectReward {
		t.Errorf("session coins = %d, want %d", svc.SessionCoins, QuizCorrectReward)
	}
	if len(repo.coinEvents) != 1 {
		t.Fatalf("events = %d, want 1", len(repo.coinEvents))
	}
	ev := repo.coinEvents[0]
	if ev.Amount != QuizCorrectReward || ev.Balance != QuizCorrectReward || ev.Reason != "quiz_correct" {
		t.Errorf("event = %+v", ev)
	}
}

func TestAwardSummaryCardAccumulates(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	svc.AwardQuizCorrect(ctx)
	balance := svc.AwardSummaryCard(ctx)

	want := QuizCorrectReward + SummaryCardReward
	if balance != want {
		t.Errorf("balance = %d, want %d", balance, want)
	}
	if svc.Balance() != want {
		t.Errorf("Balance() = %d, want %d", svc.Balance(), want)
	}
	if svc.SessionCoins != want {
		t.Errorf("session coins = %d, want %d", svc.SessionCoins, want)
	}
	if repo.coinEvents[1].Reason != "summary_card" {
		t.Errorf("event reason = %q", repo.coinEvents[1].Reason)
	}
}

func TestResetSessionKeepsBalance(t *testing.T) {
	svc, _ := newTestService(t)
	svc.AwardQuizCorrect(context.Background())

	svc.ResetSession()
	if svc.SessionCoins != 0 {
		t.Errorf("session coins = %d, want 0", svc.SessionCoins)
	}
	if svc.Balance() != QuizCorrectReward {
		t.Errorf("balance = %d, want %d", svc.Balance(), QuizCorrectReward)
	}
}

func TestNilEventRepoIsSafe(t *testing.T) {
	ps := profile.NewStore(filepath.Join(t.TempDir(), "profile.json"))
	svc := NewService(ps, nil)
	if balance := svc.AwardQuizCorrect(context.Background()); balance != QuizCorrectReward {
		t.Errorf("balance = %d, want %d", balance, QuizCorrectReward)
	}
}
