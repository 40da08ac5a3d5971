package store

import (
	"context"
	"time"
)

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// AnswerEventData records one quiz answer.
type AnswerEventData struct {
	Theme         string
	Word          string
	QuizType      string
	Question      string
	CorrectAnswer string
	GivenAnswer   string
	Correct       bool
}

// CoinEventData records a coin balance change.
type CoinEventData struct {
	Amount  int
	Balance int
	Reason  string
}

// LevelEventData records a CEFR level transition.
type LevelEventData struct {
	From     string
	To       string
	Accuracy float64
}

// LevelEventRecord is a level transition read back from the log.
type LevelEventRecord struct {
	From      string
	To        string
	Accuracy  float64
	Sequence  int64
	Timestamp time.Time
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Requests     int
	InputTokens  int
	OutputTokens int
}

// LLMUsageSummary aggregates LLM usage across the whole log.
type LLMUsageSummary struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	ByModel      []ModelUsage
}

// AnswerSummary aggregates quiz answer counts.
type AnswerSummary struct {
	Total   int
	Correct int
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendAnswer records a quiz answer event.
	AppendAnswer(ctx context.Context, data AnswerEventData) error

	// AppendCoins records a coin balance change event.
	AppendCoins(ctx context.Context, data CoinEventData) error

	// AppendLevelChange records a CEFR level transition event.
	AppendLevelChange(ctx context.Context, data LevelEventData) error

	// LLMUsage aggregates token usage across all recorded requests.
	LLMUsage(ctx context.Context) (*LLMUsageSummary, error)

	// AnswerStats aggregates answer counts across all recorded answers.
	AnswerStats(ctx context.Context) (*AnswerSummary, error)

	// LevelHistory returns level transitions, newest first.
	LevelHistory(ctx context.Context, limit int) ([]LevelEventRecord, error)
}
