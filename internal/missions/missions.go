// Package missions picks the "photo mission" word shown on the home
// button: a nudge about what to photograph next.
package missions

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

// ReturnHome is the choice that backs out of a mission list. The
// mission screen always offers it.
const ReturnHome = "ホームに戻る"

// pool is the fixed set of starter mission words.
var pool = []string{"dog", "cat", "tree", "car", "book", "flower", "house", "food"}

// Next returns a random mission word from the starter pool.
func Next() string {
	return pool[rand.IntN(len(pool))]
}

var storyWordRe = regexp.MustCompile(`<([^<>]+)>`)

// FromStory extracts the <angle-bracketed> keywords a story marks as
// photographable subjects. Duplicates are dropped, order kept.
func FromStory(story string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range storyWordRe.FindAllStringSubmatch(story, -1) {
		w := strings.TrimSpace(m[1])
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// WithReturnHome dedupes choices (keeping order) and guarantees the
// return-home choice is present, appending it when missing.
func WithReturnHome(choices []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range choices {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if !seen[ReturnHome] {
		out = append(out, ReturnHome)
	}
	return out
}
