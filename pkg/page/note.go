package page

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Warning codes recorded on notes and report rows.
const (
	WarnSlotMissing      = "slot_missing"
	WarnNoSlotAvailable  = "no_slot_available"
	WarnOversetHard      = "overset_hard"
	WarnOverset          = "overset"
	WarnPhotoSlotMissing = "photo_slot_missing"
	WarnNoDocxFound      = "no_docx_found"
	WarnMeasureFailed    = "measure_failed"
)

// Note is one title-delimited text segment destined for a page.
type Note struct {
	ID       string   `json:"id" bson:"id"`
	Page     int      `json:"page" bson:"page"`
	Title    string   `json:"title" bson:"title"`
	Body     string   `json:"body" bson:"body"`
	Images   []string `json:"images,omitempty" bson:"images,omitempty"`
	Warnings []string `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// Normalize returns a copy with NFC-normalised, trimmed title and body.
func (n Note) Normalize() Note {
	n.Title = strings.TrimSpace(norm.NFC.String(n.Title))
	n.Body = strings.TrimSpace(norm.NFC.String(n.Body))
	n.Images = slices.Clone(n.Images)
	n.Warnings = slices.Clone(n.Warnings)
	return n
}

// TitleChars is the title length in runes.
func (n Note) TitleChars() int { return utf8.RuneCountInString(n.Title) }

// BodyChars is the body length in runes.
func (n Note) BodyChars() int { return utf8.RuneCountInString(n.Body) }

// Chars is the total content length in runes.
func (n Note) Chars() int { return n.TitleChars() + n.BodyChars() }

// HasTitle reports whether the note has a non-empty title.
func (n Note) HasTitle() bool { return n.Title != "" }

// HasBody reports whether the note has a non-empty body.
func (n Note) HasBody() bool { return n.Body != "" }

// WithWarnings returns a copy with the given warnings appended, skipping
// ones already present.
func (n Note) WithWarnings(ws ...string) Note {
	out := slices.Clone(n.Warnings)
	for _, w := range ws {
		if !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	n.Warnings = out
	return n
}
