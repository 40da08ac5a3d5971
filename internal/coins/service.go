// Package coins applies coin rewards to the learner profile and logs
// every movement to the event store.
package coins

import (
	"context"

	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/store"
)

// Reward amounts.
const (
	QuizCorrectReward = 10
	SummaryCardReward = 50
)

// Service manages coin awards. Event logging is best-effort: a failed
// append never blocks the reward.
type Service struct {
	profile   *profile.Store
	eventRepo store.EventRepo

	// SessionCoins accumulates coins awarded during the current session.
	SessionCoins int
}

// NewService creates a coin service. eventRepo may be nil.
func NewService(ps *profile.Store, eventRepo store.EventRepo) *Service {
	return &Service{profile: ps, eventRepo: eventRepo}
}

// AwardQuizCorrect rewards a correct quiz answer and returns the new
// balance.
func (s *Service) AwardQuizCorrect(ctx context.Context) int {
	return s.award(ctx, QuizCorrectReward, "quiz_correct")
}

// AwardSummaryCard rewards a saved summary card and returns the new
// balance.
func (s *Service) AwardSummaryCard(ctx context.Context) int {
	return s.award(ctx, SummaryCardReward, "summary_card")
}

// Balance returns the current coin balance.
func (s *Service) Balance() int {
	return s.profile.Profile.Coins
}

// ResetSession clears the session coin accumulator. Called when a new
// theme starts.
func (s *Service) ResetSession() {
	s.SessionCoins = 0
}

func (s *Service) award(ctx context.Context, amount int, reason string) int {
	balance := s.profile.AddCoins(amount)
	s.SessionCoins += amount
	s.persist(ctx, amount, balance, reason)
	return balance
}

func (s *Service) persist(ctx context.Context, amount, balance int, reason string) {
	if s.eventRepo == nil {
		return
	}
	_ = s.eventRepo.AppendCoins(ctx, store.CoinEventData{
		Amount:  amount,
		Balance: balance,
		Reason:  reason,
	})
}
