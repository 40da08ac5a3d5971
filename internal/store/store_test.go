package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRepo(t *testing.T) EventRepo {
	t.Helper()
	repo, err := openTestStore(t).EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	return repo
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{
		"llm_request_events", "answer_events", "coin_events", "level_events",
	} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if want := int64(i + 1); seq != want {
			t.Errorf("seq = %d, want %d", seq, want)
		}
	}
}

func TestLLMUsageAggregation(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "conversation", InputTokens: 100, OutputTokens: 50, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "quiz-gen", InputTokens: 200, OutputTokens: 80, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "quiz-gen", Success: false, ErrorMessage: "429 quota"},
	}
	for i, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := repo.LLMUsage(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if got.Requests != 3 {
		t.Errorf("requests = %d, want 3", got.Requests)
	}
	if got.Failures != 1 {
		t.Errorf("failures = %d, want 1", got.Failures)
	}
	if got.InputTokens != 300 || got.OutputTokens != 130 {
		t.Errorf("tokens = %d/%d, want 300/130", got.InputTokens, got.OutputTokens)
	}
	if len(got.ByModel) != 1 || got.ByModel[0].Model != "gemini-2.0-flash" {
		t.Errorf("by model = %+v", got.ByModel)
	}
}

func TestAnswerStats(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	answers := []AnswerEventData{
		{Theme: "Dog Adventure", Word: "dog", QuizType: "word_en_ja", Correct: true},
		{Theme: "Dog Adventure", Word: "dog", QuizType: "word_ja_en", Correct: false},
		{Theme: "Dog Adventure", Word: "dog", QuizType: "story_comprehension", Correct: true},
	}
	for i, a := range answers {
		if err := repo.AppendAnswer(ctx, a); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := repo.AnswerStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got.Total != 3 || got.Correct != 2 {
		t.Errorf("stats = %d/%d, want 2/3 correct", got.Correct, got.Total)
	}
}

func TestLevelHistoryNewestFirst(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	transitions := []LevelEventData{
		{From: "CEFR Pre-A1", To: "CEFR A1", Accuracy: 0.83},
		{From: "CEFR A1", To: "CEFR A2", Accuracy: 1.0},
		{From: "CEFR A2", To: "CEFR A1", Accuracy: 0.33},
	}
	for i, tr := range transitions {
		if err := repo.AppendLevelChange(ctx, tr); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := repo.LevelHistory(ctx, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].To != "CEFR A1" || got[0].From != "CEFR A2" {
		t.Errorf("newest = %+v, want the demotion", got[0])
	}
	if got[2].From != "CEFR Pre-A1" {
		t.Errorf("oldest = %+v, want the first promotion", got[2])
	}

	limited, err := repo.LevelHistory(ctx, 1)
	if err != nil {
		t.Fatalf("history limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited len = %d, want 1", len(limited))
	}
}

func TestEventsStampedWithRunID(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	ctx := context.Background()

	if err := repo.AppendCoins(ctx, CoinEventData{Amount: 10, Balance: 10, Reason: "quiz_correct"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.AppendAnswer(ctx, AnswerEventData{Word: "dog", Correct: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var coinRun, answerRun string
	if err := s.DB().QueryRow("SELECT run_id FROM coin_events").Scan(&coinRun); err != nil {
		t.Fatalf("query coin run: %v", err)
	}
	if err := s.DB().QueryRow("SELECT run_id FROM answer_events").Scan(&answerRun); err != nil {
		t.Fatalf("query answer run: %v", err)
	}
	if coinRun == "" {
		t.Error("run_id is empty")
	}
	if coinRun != answerRun {
		t.Errorf("run_id differs across tables: %q vs %q", coinRun, answerRun)
	}

	// A second repo is a new launch.
	repo2, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	if err := repo2.AppendCoins(ctx, CoinEventData{Amount: 50, Balance: 60, Reason: "summary_card"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	var runs int
	if err := s.DB().QueryRow("SELECT COUNT(DISTINCT run_id) FROM coin_events").Scan(&runs); err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if runs != 2 {
		t.Errorf("distinct runs = %d, want 2", runs)
	}
}

func TestCoinEvents(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	ctx := context.Background()

	if err := repo.AppendCoins(ctx, CoinEventData{Amount: 10, Balance: 10, Reason: "quiz_correct"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.AppendCoins(ctx, CoinEventData{Amount: 50, Balance: 60, Reason: "summary_card"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var count, balance int
	err = s.DB().QueryRow(
		"SELECT COUNT(*), MAX(balance) FROM coin_events").Scan(&count, &balance)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 || balance != 60 {
		t.Errorf("count/balance = %d/%d, want 2/60", count, balance)
	}
}
