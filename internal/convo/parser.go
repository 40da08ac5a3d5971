// Package convo extracts structured fields from the semi-structured text
// the model returns during a conversation. The model is prompted to use
// fixed markers (QUESTION:, CHOICES:, ANSWER:, [TRANSLATION]) but its
// output is never trusted to be well-formed: every function here
// degrades to empty values instead of failing.
package convo

import (
	"regexp"
	"strings"
)

// TranslationMarker separates the English text from its Japanese
// translation in model output.
const TranslationMarker = "[TRANSLATION]"

var (
	questionChoicesRe = regexp.MustCompile(`(?si)QUESTION:\s*(.+?)\s*CHOICES:\s*(.+)`)
	answerMarkerRe    = regexp.MustCompile(`(?i)\bANSWER\s*:`)
	bracketTokenRe    = regexp.MustCompile(`\[(.*?)\]`)
	inlineChoicesRe   = regexp.MustCompile(`(?si)CHOICES: \[(.+?)\](?:\n|$)`)
	innerBracketRe    = regexp.MustCompile(`\[([^\]]+)\]`)
)

// ParseQuestionChoices extracts a QUESTION/CHOICES pair from text. The
// markers are matched case-insensitively across newlines. A trailing
// ANSWER: segment is discarded so an answer key never leaks into the
// choices. Choices are the bracketed tokens, trimmed, in order,
// duplicates kept. Missing markers yield ("", nil) — not an error.
func ParseQuestionChoices(text string) (question string, choices []string) {
	if text == "" {
		return "", nil
	}
	m := questionChoicesRe.FindStringSubmatch(text)
	if m == nil {
		return "", nil
	}
	question = strings.TrimSpace(m[1])

	raw := strings.TrimSpace(m[2])
	if loc := answerMarkerRe.FindStringIndex(raw); loc != nil {
		raw = strings.TrimSpace(raw[:loc[0]])
	}
	for _, tok := range bracketTokenRe.FindAllStringSubmatch(raw, -1) {
		choices = append(choices, strings.TrimSpace(tok[1]))
	}
	return question, choices
}

// ExtractChoices pulls an inline "CHOICES: [...]" block out of a
// conversational turn. The block content splits on bracketed sub-tokens
// when present, otherwise on commas. The matched block is stripped from
// the returned text so the remaining message is choice-free.
func ExtractChoices(text string) (cleaned string, choices []string) {
	m := inlineChoicesRe.FindStringSubmatch(text)
	if m == nil {
		return strings.TrimSpace(text), nil
	}

	content := strings.TrimSpace(m[1])
	if innerBracketRe.MatchString(content) {
		for _, tok := range innerBracketRe.FindAllStringSubmatch(content, -1) {
			choices = append(choices, strings.TrimSpace(tok[1]))
		}
	} else {
		for _, part := range strings.Split(content, ",") {
			choices = append(choices, strings.TrimSpace(part))
		}
	}

	cleaned = strings.TrimSpace(inlineChoicesRe.ReplaceAllString(text, ""))
	return cleaned, choices
}

// SplitTranslation splits text on the [TRANSLATION] marker. The part
// before is the English text; the part after, trimmed, is the Japanese
// translation. Without the marker the whole text is English and ok is
// false.
func SplitTranslation(text string) (english, translation string, ok bool) {
	before, after, found := strings.Cut(text, TranslationMarker)
	if !found {
		return strings.TrimSpace(text), "", false
	}
	return strings.TrimSpace(before), strings.TrimSpace(after), true
}
