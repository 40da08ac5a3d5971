package learn

import (
	"time"

	"github.com/tomo-edu/inquiry/internal/profile"
)

// labelsMsg delivers the detected photo labels.
type labelsMsg struct {
	Labels []string
	Err    error
}

// replyMsg delivers the tutor's next conversational turn.
type replyMsg struct {
	Text string
	Err  error
}

// storyMsg delivers the generated story.
type storyMsg struct {
	Text string
	Err  error
}

// quizzesMsg delivers the generated quiz set.
type quizzesMsg struct {
	Quizzes []profile.Quiz
	Err     error
}

// tagMsg delivers the raw tag-choice text for the next-steps menu.
type tagMsg struct {
	Raw string
	Err error
}

// missionMsg delivers the raw mission-choice text for the next-steps menu.
type missionMsg struct {
	Raw string
	Err error
}

// spinnerTickMsg animates the waiting indicator.
type spinnerTickMsg time.Time
