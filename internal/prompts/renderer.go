// Package prompts loads optional prompt template files and fills in
// named placeholders. Templates are an override mechanism: every call
// site carries an inline fallback prompt, so a missing or broken
// template file never breaks the app.
package prompts

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Renderer resolves template files relative to Dir.
type Renderer struct {
	Dir string
}

// New creates a Renderer rooted at dir.
func New(dir string) *Renderer {
	return &Renderer{Dir: dir}
}

// ReadText reads a template file tolerantly. UTF-8 (with or without a
// BOM) is preferred; anything else is decoded as Shift_JIS on a
// best-effort basis, substituting unrepresentable bytes rather than
// failing. A missing file reads as empty.
func (r *Renderer) ReadText(name string) string {
	raw, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return ""
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil {
		// The decoder already substitutes bad bytes; an error here
		// means something deeper, so fall back to the raw bytes.
		return string(raw)
	}
	return string(decoded)
}

// Render loads the named template and substitutes {name} placeholders.
// A placeholder with no entry in values stays verbatim in the output,
// so an incomplete template degrades visibly instead of crashing the
// session. A missing template renders as "".
func (r *Renderer) Render(name string, values map[string]string) string {
	template := r.ReadText(name)
	if template == "" {
		return ""
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(tok string) string {
		key := tok[1 : len(tok)-1]
		if v, ok := values[key]; ok {
			return v
		}
		return tok
	})
}

// BuildPrompt composes the rendered template with the inline fallback.
// A non-empty template is prepended to the fallback; an empty template
// yields the fallback alone.
func (r *Renderer) BuildPrompt(name, fallback string, values map[string]string) string {
	template := r.Render(name, values)
	if template == "" {
		return fallback
	}
	return template + "\n\n" + fallback
}
