// Package words turns raw image labels into the keyword choices shown
// to the learner.
package words

import "strings"

// DefaultLimit caps how many keywords are offered at once.
const DefaultLimit = 10

// genericWords pad the keyword list when an image yields too few usable
// labels, so the learner always has something to pick.
var genericWords = []string{
	"animal", "object", "place", "person", "food",
	"plant", "color", "shape", "material", "action",
}

// FromLabels normalizes detected labels into keywords: underscores
// become spaces, anything after a comma is dropped, the result is
// lowercased and trimmed, and only words of 2-30 characters survive.
// Duplicates are removed and order preserved. When fewer than three
// labels survive, generic filler words pad the list. At most limit
// words are returned.
func FromLabels(labels []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	seen := map[string]bool{}
	var out []string
	for _, label := range labels {
		w := strings.ReplaceAll(label, "_", " ")
		if i := strings.Index(w, ","); i >= 0 {
			w = w[:i]
		}
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < 2 || len(w) > 30 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= limit {
			return out
		}
	}

	if len(out) < 3 {
		for _, w := range genericWords {
			if seen[w] {
				continue
			}
			out = append(out, w)
			seen[w] = true
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Fresh filters words down to those not yet studied in the current
// theme, capped at limit.
func Fresh(candidates []string, used map[string]bool, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var out []string
	for _, w := range candidates {
		if used[w] {
			continue
		}
		out = append(out, w)
		if len(out) >= limit {
			break
		}
	}
	return out
}
