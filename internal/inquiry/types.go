// Package inquiry orchestrates the learning flow against the LLM:
// photo labels, the inquiry conversation, story and quiz generation,
// and summary card guidance.
package inquiry

import "strings"

// Config tunes LLM generation for the inquiry flow.
type Config struct {
	// MaxTokens caps each response.
	MaxTokens int

	// Temperature for conversational and creative calls.
	Temperature float64

	// QuizCount is how many quizzes one session generates.
	QuizCount int

	// MaxLabels caps how many image labels are requested.
	MaxLabels int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
		QuizCount:   6,
		MaxLabels:   10,
	}
}

// StartInput seeds a new inquiry conversation. Either Image or Keyword
// must be set; both is the normal case.
type StartInput struct {
	Image     []byte
	ImageMIME string
	Keyword   string
	Labels    []string
}

// Grades lists the selectable school grades, youngest first.
var Grades = []string{"小学生以下", "1-2年生", "3-4年生", "5-6年生"}

// GradeNeedsChoices reports whether conversation prompts must offer
// clickable choices. Younger learners can't type free English yet.
func GradeNeedsChoices(grade string) bool {
	return grade == "小学生以下" || grade == "1-2年生"
}

// GradeShowsHints reports whether quiz questions show their choices as
// hints. Only the oldest grade answers without them.
func GradeShowsHints(grade string) bool {
	return grade != "5-6年生"
}

// NormalizeAnswer canonicalizes a typed quiz answer before comparison.
// True/False quizzes accept t/f shorthand in any case.
func NormalizeAnswer(quizType, raw string) string {
	ans := strings.TrimSpace(raw)
	if quizType == "True/False" {
		switch strings.ToLower(ans) {
		case "t", "true":
			return "True"
		case "f", "false":
			return "False"
		}
	}
	return ans
}
