package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// sequenceCounter manages the global monotonic sequence number shared
// across all event types. Each event type lives in its own table, so
// per-table auto-increment IDs can't establish cross-type ordering.
// This shared counter assigns a single increasing sequence to every
// event regardless of type, enabling:
//
//   - Cross-type ordering (e.g. did the level change before or after the answer?)
//   - Append-only guarantees (events are never reordered)
//
// The mutex serializes within the process; the RETURNING clause makes
// the increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo on raw SQL and the global sequence
// counter. runID tags every appended event with the app launch it
// belongs to.
type eventRepo struct {
	db    *sql.DB
	seq   *sequenceCounter
	runID string
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO llm_request_events
		(sequence, run_id, provider, model, purpose, input_tokens, output_tokens,
		 latency_ms, success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, r.runID, data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO answer_events
		(sequence, run_id, theme, word, quiz_type, question, correct_answer, given_answer, correct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, r.runID, data.Theme, data.Word, data.QuizType,
		data.Question, data.CorrectAnswer, data.GivenAnswer, data.Correct)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendCoins(ctx context.Context, data CoinEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO coin_events
		(sequence, run_id, amount, balance, reason) VALUES (?, ?, ?, ?, ?)`,
		seqNum, r.runID, data.Amount, data.Balance, data.Reason)
	if err != nil {
		return fmt.Errorf("save coin event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLevelChange(ctx context.Context, data LevelEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO level_events
		(sequence, run_id, from_level, to_level, accuracy) VALUES (?, ?, ?, ?, ?)`,
		seqNum, r.runID, data.From, data.To, data.Accuracy)
	if err != nil {
		return fmt.Errorf("save level event: %w", err)
	}
	return nil
}

func (r *eventRepo) LLMUsage(ctx context.Context) (*LLMUsageSummary, error) {
	summary := &LLMUsageSummary{}

	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(input_tokens), 0),
		COALESCE(SUM(output_tokens), 0)
		FROM llm_request_events`).Scan(
		&summary.Requests, &summary.Failures,
		&summary.InputTokens, &summary.OutputTokens)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT
		model, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		FROM llm_request_events GROUP BY model ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by model: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mu ModelUsage
		if err := rows.Scan(&mu.Model, &mu.Requests, &mu.InputTokens, &mu.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		summary.ByModel = append(summary.ByModel, mu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model usage: %w", err)
	}

	return summary, nil
}

func (r *eventRepo) AnswerStats(ctx context.Context) (*AnswerSummary, error) {
	summary := &AnswerSummary{}
	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN correct = 1 THEN 1 ELSE 0 END), 0)
		FROM answer_events`).Scan(&summary.Total, &summary.Correct)
	if err != nil {
		return nil, fmt.Errorf("query answer stats: %w", err)
	}
	return summary, nil
}

func (r *eventRepo) LevelHistory(ctx context.Context, limit int) ([]LevelEventRecord, error) {
	q := `SELECT from_level, to_level, accuracy, sequence, created_at
		FROM level_events ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query level history: %w", err)
	}
	defer rows.Close()

	var records []LevelEventRecord
	for rows.Next() {
		var rec LevelEventRecord
		if err := rows.Scan(&rec.From, &rec.To, &rec.Accuracy, &rec.Sequence, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan level event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate level events: %w", err)
	}
	return records, nil
}
