package profile

import (
	"encoding/json"
	"strings"
)

// Default values for a fresh profile. Grade bands match the settings
// screen; the level set is the ordered CEFR slice used by the level
// package.
const (
	DefaultGrade = "3-4年生"
	DefaultLevel = "CEFR A1"
)

// Profile is the root persisted object: who the learner is and
// everything they have studied so far.
type Profile struct {
	Grade        string   `json:"grade"`
	CurrentLevel string   `json:"current_level"`
	Coins        int      `json:"coins"`
	ThemeHistory []*Theme `json:"theme_history"`

	// extra holds unknown top-level keys found in the profile file.
	// They round-trip through save untouched.
	extra map[string]json.RawMessage
}

// Theme is one photographed subject and all learning passes against it.
// ImageData is the raw photo bytes and is the merge identity of the
// theme; it is persisted as base64 under image_data_b64.
type Theme struct {
	Title        string              `json:"title"`
	ImageData    []byte              `json:"-"`
	ImageDataB64 string              `json:"image_data_b64,omitempty"`
	AllLabels    []string            `json:"all_labels"`
	WordSessions map[string]*Session `json:"word_sessions"`
}

// Session is one keyword's learning pass: the generated story, the quiz
// set with the learner's answers, and the optional reflection card.
// Transcript is the live conversation and is never written to disk.
type Session struct {
	Story            string       `json:"story"`
	StoryTranslation string       `json:"story_translation"`
	Quizzes          []Quiz       `json:"quizzes"`
	UserAnswers      []string     `json:"user_answers"`
	SummaryCard      *SummaryCard `json:"summary_card,omitempty"`

	Transcript []Turn `json:"-"`
}

// Quiz is a single generated question. Answer matches one entry of
// Choices under case-insensitive comparison.
type Quiz struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer"`
}

// SummaryCard is the four-field learner reflection completed after the
// quizzes: facts, feelings/solutions, new perspectives, further reading.
type SummaryCard struct {
	Field1 string `json:"field1"`
	Field2 string `json:"field2"`
	Field3 string `json:"field3"`
	Field4 string `json:"field4"`
}

// Turn is one exchange of the in-memory conversation transcript.
type Turn struct {
	Speaker string
	Text    string
}

// FilledFields counts summary fields with non-empty trimmed text.
// Defined on the pointer so a nil card counts zero.
func (c *SummaryCard) FilledFields() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, f := range []string{c.Field1, c.Field2, c.Field3, c.Field4} {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}

// defaultProfile returns a fresh profile with all required keys set.
func defaultProfile() *Profile {
	return &Profile{
		Grade:        DefaultGrade,
		CurrentLevel: DefaultLevel,
		Coins:        0,
		ThemeHistory: []*Theme{},
	}
}

// Clone returns a deep copy of the session. Used by the save path so
// serialization never mutates the live tree.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{
		Story:            s.Story,
		StoryTranslation: s.StoryTranslation,
		Quizzes:          make([]Quiz, len(s.Quizzes)),
		UserAnswers:      append([]string(nil), s.UserAnswers...),
	}
	for i, q := range s.Quizzes {
		out.Quizzes[i] = Quiz{
			Type:     q.Type,
			Question: q.Question,
			Choices:  append([]string(nil), q.Choices...),
			Answer:   q.Answer,
		}
	}
	if s.SummaryCard != nil {
		card := *s.SummaryCard
		out.SummaryCard = &card
	}
	// Transcript is deliberately not copied: the save path drops it.
	return out
}

// Clone returns a deep copy of the theme, transcript-free.
func (t *Theme) Clone() *Theme {
	if t == nil {
		return nil
	}
	out := &Theme{
		Title:        t.Title,
		ImageData:    append([]byte(nil), t.ImageData...),
		ImageDataB64: t.ImageDataB64,
		AllLabels:    append([]string(nil), t.AllLabels...),
	}
	if t.WordSessions != nil {
		out.WordSessions = make(map[string]*Session, len(t.WordSessions))
		for w, sess := range t.WordSessions {
			out.WordSessions[w] = sess.Clone()
		}
	}
	return out
}
