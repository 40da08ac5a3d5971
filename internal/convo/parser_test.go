package convo

import (
	"reflect"
	"testing"
)

func TestParseQuestionChoices(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		question string
		choices  []string
	}{
		{
			name:     "answer segment excluded",
			text:     "QUESTION: Why? CHOICES: [A],[B] ANSWER: A",
			question: "Why?",
			choices:  []string{"A", "B"},
		},
		{
			name:     "case insensitive across newlines",
			text:     "question:\nHow do trees help?\nchoices:\n[They make air],[They are tall]",
			question: "How do trees help?",
			choices:  []string{"They make air", "They are tall"},
		},
		{
			name:     "duplicates and order preserved",
			text:     "QUESTION: Pick CHOICES: [x], [y] ,[x]",
			question: "Pick",
			choices:  []string{"x", "y", "x"},
		},
		{
			name: "no markers",
			text: "Just a friendly reply with [brackets] but no markers.",
		},
		{
			name: "empty input",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, c := ParseQuestionChoices(tt.text)
			if q != tt.question {
				t.Errorf("question = %q, want %q", q, tt.question)
			}
			if !reflect.DeepEqual(c, tt.choices) {
				t.Errorf("choices = %#v, want %#v", c, tt.choices)
			}
		})
	}
}

func TestExtractChoices(t *testing.T) {
	text := "What do you think?\nCHOICES: [[Dogs],[Cats],[Birds]]\n[TRANSLATION]\nどう思う？"
	cleaned, choices := ExtractChoices(text)

	want := []string{"Dogs", "Cats", "Birds"}
	if !reflect.DeepEqual(choices, want) {
		t.Errorf("choices = %#v, want %#v", choices, want)
	}
	if got := cleaned; got == text {
		t.Error("choices block was not stripped from the text")
	}
}

func TestExtractChoices_CommaSplit(t *testing.T) {
	text := "Pick one!\nCHOICES: [red, blue, green]\n"
	cleaned, choices := ExtractChoices(text)

	want := []string{"red", "blue", "green"}
	if !reflect.DeepEqual(choices, want) {
		t.Errorf("choices = %#v, want %#v", choices, want)
	}
	if cleaned != "Pick one!" {
		t.Errorf("cleaned = %q, want %q", cleaned, "Pick one!")
	}
}

func TestExtractChoices_NoBlock(t *testing.T) {
	cleaned, choices := ExtractChoices("  Nothing structured here.  ")
	if choices != nil {
		t.Errorf("choices = %#v, want nil", choices)
	}
	if cleaned != "Nothing structured here." {
		t.Errorf("cleaned = %q", cleaned)
	}
}

func TestSplitTranslation(t *testing.T) {
	english, translation, ok := SplitTranslation("Hello\n[TRANSLATION]\nこんにちは")
	if !ok {
		t.Fatal("expected translation to be found")
	}
	if english != "Hello" {
		t.Errorf("english = %q, want %q", english, "Hello")
	}
	if translation != "こんにちは" {
		t.Errorf("translation = %q, want %q", translation, "こんにちは")
	}
}

func TestSplitTranslation_NoMarker(t *testing.T) {
	english, translation, ok := SplitTranslation("  Hello there.  ")
	if ok {
		t.Error("expected no translation")
	}
	if english != "Hello there." {
		t.Errorf("english = %q", english)
	}
	if translation != "" {
		t.Errorf("translation = %q, want empty", translation)
	}
}

func TestParsers_AreDeterministic(t *testing.T) {
	text := "QUESTION: Q CHOICES: [a],[b]"
	q1, c1 := ParseQuestionChoices(text)
	q2, c2 := ParseQuestionChoices(text)
	if q1 != q2 || !reflect.DeepEqual(c1, c2) {
		t.Error("same input produced different output")
	}
}
