package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRender_Substitution(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "prompt_master.txt", "Grade: {grade}, Level: {guide_level}")

	r := New(dir)
	got := r.Render("prompt_master.txt", map[string]string{
		"grade":       "3-4年生",
		"guide_level": "CEFR A1",
	})
	want := "Grade: 3-4年生, Level: CEFR A1"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_MissingPlaceholderStaysVerbatim(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "t.txt", "Hello {name}, you are {missing}.")

	r := New(dir)
	got := r.Render("t.txt", map[string]string{"name": "Hana"})
	want := "Hello Hana, you are {missing}."
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_MissingFileIsEmpty(t *testing.T) {
	r := New(t.TempDir())
	if got := r.Render("nope.txt", nil); got != "" {
		t.Errorf("Render = %q, want empty", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "t.txt", "template line")
	r := New(dir)

	got := r.BuildPrompt("t.txt", "fallback line", nil)
	if got != "template line\n\nfallback line" {
		t.Errorf("BuildPrompt = %q", got)
	}

	got = r.BuildPrompt("absent.txt", "fallback line", nil)
	if got != "fallback line" {
		t.Errorf("BuildPrompt with absent template = %q, want fallback alone", got)
	}
}

func TestReadText_UTF8BOM(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bom.txt", "\xEF\xBB\xBFhello")

	r := New(dir)
	if got := r.ReadText("bom.txt"); got != "hello" {
		t.Errorf("ReadText = %q, want BOM stripped", got)
	}
}

func TestReadText_ShiftJISFallback(t *testing.T) {
	dir := t.TempDir()
	sjis, err := japanese.ShiftJIS.NewEncoder().String("こんにちは")
	if err != nil {
		t.Fatal(err)
	}
	writeTemplate(t, dir, "sjis.txt", sjis)

	r := New(dir)
	got := r.ReadText("sjis.txt")
	if !strings.Contains(got, "こんにちは") {
		t.Errorf("ReadText = %q, want Shift_JIS decoded", got)
	}
}
