// Package task runs long-latency API calls off the UI loop and
// delivers their outcome back as a single Bubble Tea message. It also
// owns the rate-limit retry protocol: a call that fails with a 429
// style error is retried once, sleeping the server-hinted delay.
package task

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
)

// DefaultMaxAttempts bounds the retry loop: one initial call plus one
// retry on rate limiting.
const DefaultMaxAttempts = 2

// DefaultRetryDelay applies when the error carries no retry_delay hint.
const DefaultRetryDelay = 5 * time.Second

var retryDelayRe = regexp.MustCompile(`retry_delay\s*\{\s*seconds:\s*(\d+)`)

// Runner executes calls with the retry policy. The zero value is not
// usable; construct with New.
type Runner struct {
	MaxAttempts int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// New returns a Runner with the default retry policy.
func New() *Runner {
	return &Runner{MaxAttempts: DefaultMaxAttempts, sleep: time.Sleep}
}

// IsRateLimited reports whether err looks like a provider rate-limit
// rejection: its text contains "429" together with one of the known
// quota markers. Only such errors are ever retried.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	if !strings.Contains(text, "429") {
		return false
	}
	return strings.Contains(text, "retry_delay") ||
		strings.Contains(text, "quota") ||
		strings.Contains(text, "rate")
}

// RetryDelay extracts the server-provided backoff from an error's
// "retry_delay { seconds: N }" fragment, defaulting to 5 seconds.
func RetryDelay(err error) time.Duration {
	if err == nil {
		return DefaultRetryDelay
	}
	m := retryDelayRe.FindStringSubmatch(err.Error())
	if m == nil {
		return DefaultRetryDelay
	}
	secs, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return DefaultRetryDelay
	}
	return time.Duration(secs) * time.Second
}

// Do runs fn synchronously with the retry policy. A rate-limited error
// sleeps and retries while attempts remain; any other error, or a
// rate-limit error on the final attempt, is returned as a value. Do
// never panics across the boundary.
func (r *Runner) Do(fn func() (any, error)) (any, error) {
	var lastErr error
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !IsRateLimited(err) || attempt == r.MaxAttempts-1 {
			return nil, err
		}
		r.sleep(RetryDelay(err))
	}
	return nil, lastErr
}

// Cmd wraps Do as a tea.Cmd. Bubble Tea runs the command in its own
// goroutine and delivers the message returned by done on the UI loop
// exactly once, after the call fully finishes (success, final failure,
// or exhausted retries).
func (r *Runner) Cmd(fn func() (any, error), done func(v any, err error) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, err := r.Do(fn)
		return done(v, err)
	}
}
