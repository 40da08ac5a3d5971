// Package level holds the CEFR level ladder and the rule that moves a
// learner along it after each summary card.
package level

import (
	"strings"

	"github.com/tomo-edu/inquiry/internal/profile"
)

// The ordered ladder. Promotion moves right, demotion moves left.
const (
	PreA1 = "CEFR Pre-A1"
	A1    = "CEFR A1"
	A2    = "CEFR A2"
)

// Levels is the full ladder in ascending order.
var Levels = []string{PreA1, A1, A2}

// Thresholds for the adjustment rule.
const (
	promoteAccuracy = 0.8
	promoteFields   = 3
	demoteAccuracy  = 0.5
)

// Accuracy computes quiz accuracy: case-insensitive exact matches of
// answers[i] against quizzes[i].Answer over min(len) pairs, divided by
// the total quiz count. No quizzes means 0.
func Accuracy(answers []string, quizzes []profile.Quiz) float64 {
	if len(quizzes) == 0 {
		return 0
	}
	correct := 0
	for i, ans := range answers {
		if i >= len(quizzes) {
			break
		}
		if strings.EqualFold(ans, quizzes[i].Answer) {
			correct++
		}
	}
	return float64(correct) / float64(len(quizzes))
}

// Evaluate applies the adjustment rule and returns the new level. The
// rules are checked in order and the first match wins:
//
//  1. accuracy >= 0.8 and >= 3 filled summary fields: promote one level
//     (unless already at the top).
//  2. accuracy < 0.5: demote one level (unless already at the bottom).
//  3. otherwise: unchanged.
//
// An unrecognized current level is treated as A1, matching the rest of
// the app's defaults. Pure function; call it fresh on every summary
// card save.
func Evaluate(answers []string, quizzes []profile.Quiz, card *profile.SummaryCard, current string) string {
	idx := index(current)
	accuracy := Accuracy(answers, quizzes)
	filled := card.FilledFields()

	switch {
	case accuracy >= promoteAccuracy && filled >= promoteFields && idx < len(Levels)-1:
		return Levels[idx+1]
	case accuracy < demoteAccuracy && idx > 0:
		return Levels[idx-1]
	default:
		return Levels[idx]
	}
}

func index(level string) int {
	for i, l := range Levels {
		if l == level {
			return i
		}
	}
	return 1 // A1
}
