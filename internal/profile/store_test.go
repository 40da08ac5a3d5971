package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "profile.json"))
	s.Logf = t.Logf
	return s
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	s := testStore(t)

	if s.Profile.Grade != DefaultGrade {
		t.Errorf("Grade = %q, want %q", s.Profile.Grade, DefaultGrade)
	}
	if s.Profile.CurrentLevel != DefaultLevel {
		t.Errorf("CurrentLevel = %q, want %q", s.Profile.CurrentLevel, DefaultLevel)
	}
	if s.Profile.Coins != 0 {
		t.Errorf("Coins = %d, want 0", s.Profile.Coins)
	}
	if s.Profile.ThemeHistory == nil {
		t.Error("ThemeHistory should be an empty slice, not nil")
	}
}

func TestLoad_CorruptFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if s.Profile.CurrentLevel != DefaultLevel {
		t.Errorf("CurrentLevel = %q, want default", s.Profile.CurrentLevel)
	}
}

func TestLoad_BackfillsMissingKeysKeepsUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	content := `{"coins": 120, "nickname": "taro"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if s.Profile.Coins != 120 {
		t.Errorf("Coins = %d, want 120 (present key kept)", s.Profile.Coins)
	}
	if s.Profile.Grade != DefaultGrade {
		t.Errorf("Grade = %q, want default back-filled", s.Profile.Grade)
	}

	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if string(got["nickname"]) != `"taro"` {
		t.Errorf("unknown key not preserved: %s", got["nickname"])
	}
	for _, key := range []string{"grade", "current_level", "coins", "theme_history"} {
		if _, ok := got[key]; !ok {
			t.Errorf("saved profile missing key %q", key)
		}
	}
}

func TestSaveLoad_BinaryImageRoundTrip(t *testing.T) {
	s := testStore(t)
	image := []byte{0xFF, 0xD8, 0x00, 0x01, 0xFE, 0x7F}

	ok := s.SaveOrUpdateTheme(image, "dog", "dog", []string{"dog", "animal"}, &Session{Story: "A dog runs."})
	if !ok {
		t.Fatal("SaveOrUpdateTheme returned false")
	}

	reloaded := NewStore(s.Path())
	if len(reloaded.Profile.ThemeHistory) != 1 {
		t.Fatalf("themes = %d, want 1", len(reloaded.Profile.ThemeHistory))
	}
	got := reloaded.Profile.ThemeHistory[0].ImageData
	if string(got) != string(image) {
		t.Errorf("image data not byte-identical after round trip: %v != %v", got, image)
	}
}

func TestSave_TranscriptNeverPersisted(t *testing.T) {
	s := testStore(t)
	sess := &Session{
		Story:      "A cat sleeps.",
		Transcript: []Turn{{Speaker: "AI", Text: "What do cats eat?"}},
	}
	s.SaveOrUpdateTheme([]byte("img"), "cat", "cat", nil, sess)

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "What do cats eat") {
		t.Error("conversation transcript leaked into the profile file")
	}
	if !strings.Contains(string(raw), "A cat sleeps.") {
		t.Error("story missing from the profile file")
	}

	// The in-memory session still holds its transcript after save.
	if len(sess.Transcript) != 1 {
		t.Error("save mutated the in-memory session transcript")
	}
}

func TestSave_DoesNotMutateInMemoryTree(t *testing.T) {
	s := testStore(t)
	image := []byte("binary-image")
	s.SaveOrUpdateTheme(image, "tree", "tree", nil, &Session{Story: "x"})

	theme := s.Profile.ThemeHistory[0]
	if string(theme.ImageData) != "binary-image" {
		t.Error("save dropped binary image data from the live tree")
	}

	// Saving twice produces the same file.
	first, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("save is not idempotent")
	}
}

func TestSaveOrUpdateTheme_MergeIdempotent(t *testing.T) {
	s := testStore(t)
	image := []byte("same-photo")
	sess := func() *Session { return &Session{Story: "story", UserAnswers: []string{"True"}} }

	s.SaveOrUpdateTheme(image, "flower", "flower", nil, sess())
	s.SaveOrUpdateTheme(image, "flower", "flower", nil, sess())

	if n := len(s.Profile.ThemeHistory); n != 1 {
		t.Fatalf("themes = %d, want 1 (merge must not duplicate)", n)
	}
	if n := len(s.Profile.ThemeHistory[0].WordSessions); n != 1 {
		t.Fatalf("sessions = %d, want 1", n)
	}
}

func TestSaveOrUpdateTheme_DifferentImageCreatesNewTheme(t *testing.T) {
	s := testStore(t)
	s.SaveOrUpdateTheme([]byte("photo-a"), "dog", "dog", nil, &Session{})
	s.SaveOrUpdateTheme([]byte("photo-b"), "dog", "dog", nil, &Session{})

	if n := len(s.Profile.ThemeHistory); n != 2 {
		t.Fatalf("themes = %d, want 2 (different bytes never merge)", n)
	}
}

func TestSaveOrUpdateTheme_SummaryCardCarriedForward(t *testing.T) {
	s := testStore(t)
	image := []byte("photo")

	first := &Session{Story: "first pass"}
	first.SummaryCard = &SummaryCard{Field1: "facts"}
	s.SaveOrUpdateTheme(image, "car", "car", nil, first)

	replay := &Session{Story: "second pass"}
	s.SaveOrUpdateTheme(image, "car", "car", nil, replay)

	got := s.Profile.ThemeHistory[0].WordSessions["car"]
	if got.Story != "second pass" {
		t.Errorf("Story = %q, want overwrite from replay", got.Story)
	}
	if got.SummaryCard == nil || got.SummaryCard.Field1 != "facts" {
		t.Error("summary card from the earlier pass was not carried forward")
	}
}

func TestSaveOrUpdateTheme_ExplicitCardWins(t *testing.T) {
	s := testStore(t)
	image := []byte("photo")

	s.SaveOrUpdateTheme(image, "car", "car", nil,
		&Session{SummaryCard: &SummaryCard{Field1: "old"}})
	s.SaveOrUpdateTheme(image, "car", "car", nil,
		&Session{SummaryCard: &SummaryCard{Field1: "new"}})

	got := s.Profile.ThemeHistory[0].WordSessions["car"]
	if got.SummaryCard.Field1 != "new" {
		t.Errorf("Field1 = %q, want explicit card to win", got.SummaryCard.Field1)
	}
}

func TestSaveOrUpdateTheme_PreconditionsAreNoOps(t *testing.T) {
	s := testStore(t)

	if s.SaveOrUpdateTheme(nil, "title", "word", nil, &Session{}) {
		t.Error("expected no-op with missing image")
	}
	if s.SaveOrUpdateTheme([]byte("img"), "", "word", nil, &Session{}) {
		t.Error("expected no-op with empty title")
	}
	if s.SaveOrUpdateTheme([]byte("img"), "title", "", nil, &Session{}) {
		t.Error("expected no-op with empty keyword")
	}
	if len(s.Profile.ThemeHistory) != 0 {
		t.Error("no-op checkpoint must not create themes")
	}
}

func TestAddCoins(t *testing.T) {
	s := testStore(t)

	if got := s.AddCoins(10); got != 10 {
		t.Errorf("AddCoins(10) = %d, want 10", got)
	}
	if got := s.AddCoins(50); got != 60 {
		t.Errorf("AddCoins(50) = %d, want 60", got)
	}
	// Negative totals are permitted; no clamping.
	if got := s.AddCoins(-100); got != -40 {
		t.Errorf("AddCoins(-100) = %d, want -40", got)
	}
}

func TestFilledFields(t *testing.T) {
	var nilCard *SummaryCard
	if nilCard.FilledFields() != 0 {
		t.Error("nil card should count 0")
	}
	card := &SummaryCard{Field1: "a", Field2: "  ", Field3: "c"}
	if got := card.FilledFields(); got != 2 {
		t.Errorf("FilledFields = %d, want 2", got)
	}
}

func TestSave_NonASCIIPreservedLiterally(t *testing.T) {
	s := testStore(t)
	s.Profile.Grade = "小学生以下"
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "小学生以下") {
		t.Error("non-ASCII text was escaped in the saved file")
	}
}
