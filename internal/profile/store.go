package profile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath resolves the profile file path in priority order:
// 1. INQUIRY_PROFILE environment variable
// 2. $XDG_DATA_HOME/inquiry/profile.json
// 3. ~/.local/share/inquiry/profile.json
func DefaultPath() (string, error) {
	if p := os.Getenv("INQUIRY_PROFILE"); p != "" {
		return p, nil
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "inquiry", "profile.json"), nil
}

// Store owns the persistent learner profile. Load never fails (a broken
// or missing file yields defaults) and Save never corrupts the
// in-memory tree (it serializes a deep copy).
type Store struct {
	path    string
	Profile *Profile

	// Logf receives diagnostic messages. Defaults to a stderr printer;
	// tests replace it to assert on the silent no-op paths.
	Logf func(format string, args ...any)
}

// NewStore creates a store for the profile file at path and loads it.
func NewStore(path string) *Store {
	s := &Store{
		path: path,
		Logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
	s.Profile = s.Load()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads and parses the profile file. Any read or parse failure is
// logged and replaced with a fresh default profile; missing keys are
// back-filled without discarding unknown keys; base64 image fields are
// decoded back into binary image data.
func (s *Store) Load() *Profile {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.Logf("error loading profile: %v, loading defaults", err)
		}
		return defaultProfile()
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		s.Logf("error loading profile: %v, loading defaults", err)
		return defaultProfile()
	}

	p := defaultProfile()
	for key, val := range fields {
		var err error
		switch key {
		case "grade":
			err = json.Unmarshal(val, &p.Grade)
		case "current_level":
			err = json.Unmarshal(val, &p.CurrentLevel)
		case "coins":
			err = json.Unmarshal(val, &p.Coins)
		case "theme_history":
			err = json.Unmarshal(val, &p.ThemeHistory)
		default:
			if p.extra == nil {
				p.extra = map[string]json.RawMessage{}
			}
			p.extra[key] = val
		}
		if err != nil {
			s.Logf("error loading profile: %v, loading defaults", err)
			return defaultProfile()
		}
	}

	// Recover binary image data from its persisted base64 form. A theme
	// without the field simply has no image data; that is not a load
	// failure.
	for _, theme := range p.ThemeHistory {
		if theme.ImageDataB64 == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(theme.ImageDataB64)
		if err != nil {
			s.Logf("error decoding theme image for %q: %v", theme.Title, err)
			continue
		}
		theme.ImageData = data
	}

	return p
}

// Save writes the profile as pretty-printed UTF-8 JSON. It operates on
// a deep copy: binary image data is encoded to image_data_b64 on the
// copy only, and transcripts are dropped by construction. A write
// failure is logged and returned; the in-memory profile is unaffected,
// so a later retry produces the same file.
func (s *Store) Save() error {
	out := make(map[string]any, 4+len(s.Profile.extra))
	for k, v := range s.Profile.extra {
		out[k] = v
	}
	out["grade"] = s.Profile.Grade
	out["current_level"] = s.Profile.CurrentLevel
	out["coins"] = s.Profile.Coins

	themes := make([]*Theme, 0, len(s.Profile.ThemeHistory))
	for _, t := range s.Profile.ThemeHistory {
		saved := t.Clone()
		if len(saved.ImageData) > 0 {
			saved.ImageDataB64 = base64.StdEncoding.EncodeToString(saved.ImageData)
		}
		saved.ImageData = nil
		themes = append(themes, saved)
	}
	out["theme_history"] = themes

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		s.Logf("error saving profile: %v", err)
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.Logf("error saving profile: %v", err)
			return err
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		s.Logf("error saving profile: %v", err)
		return err
	}
	return nil
}

// AddCoins adds amount to the coin counter and returns the new total.
// Negative amounts are allowed and the total has no floor.
func (s *Store) AddCoins(amount int) int {
	s.Profile.Coins += amount
	return s.Profile.Coins
}

// FindThemeByImage returns the theme whose image bytes exactly match
// image, or nil. Byte equality is the merge identity: re-captured
// photos of the same subject intentionally start a new theme.
func (s *Store) FindThemeByImage(image []byte) *Theme {
	for _, t := range s.Profile.ThemeHistory {
		if len(t.ImageData) > 0 && bytes.Equal(t.ImageData, image) {
			return t
		}
	}
	return nil
}

// SaveOrUpdateTheme is the "quizzes complete" checkpoint. It finds the
// theme matching image (or appends a new one), installs session under
// keyword, and persists the profile. If the keyword was studied before
// and had a summary card, that card is carried forward into the new
// session so replaying a word never loses a completed reflection.
//
// Missing preconditions (no image, empty title, empty keyword) are a
// logged no-op: this is a best-effort checkpoint and must not block
// the learner. Returns true when a save was attempted.
func (s *Store) SaveOrUpdateTheme(image []byte, title, keyword string, labels []string, session *Session) bool {
	if len(image) == 0 || title == "" {
		s.Logf("theme save skipped: no image data or title")
		return false
	}
	if keyword == "" {
		s.Logf("theme save skipped: no word was selected for this session")
		return false
	}

	existing := s.FindThemeByImage(image)
	if existing != nil {
		if existing.WordSessions == nil {
			existing.WordSessions = map[string]*Session{}
		}
		if prev, ok := existing.WordSessions[keyword]; ok && prev.SummaryCard != nil && session.SummaryCard == nil {
			card := *prev.SummaryCard
			session.SummaryCard = &card
		}
		existing.WordSessions[keyword] = session
	} else {
		s.Profile.ThemeHistory = append(s.Profile.ThemeHistory, &Theme{
			Title:        title,
			ImageData:    append([]byte(nil), image...),
			AllLabels:    append([]string(nil), labels...),
			WordSessions: map[string]*Session{keyword: session},
		})
	}

	if err := s.Save(); err != nil {
		s.Logf("theme checkpoint save failed: %v", err)
	}
	return true
}
