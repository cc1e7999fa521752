package page

import (
	"fmt"
	"math"
	"strings"
)

// Role is a bit set of what a slot may host.
type Role uint8

const (
	RoleText Role = 1 << iota
	RolePhoto
)

// Has reports whether r includes all bits of other.
func (r Role) Has(other Role) bool { return r&other == other }

// String returns "text", "photo", "text+photo" or "none".
func (r Role) String() string {
	var parts []string
	if r.Has(RoleText) {
		parts = append(parts, "text")
	}
	if r.Has(RolePhoto) {
		parts = append(parts, "photo")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// ParseRole parses the textual form produced by [Role.String]. An empty
// string means a text slot.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleText, nil
	}
	var r Role
	for _, part := range strings.FieldsFunc(s, func(c rune) bool { return c == '+' || c == ',' || c == '|' }) {
		switch strings.TrimSpace(part) {
		case "text":
			r |= RoleText
		case "photo", "image":
			r |= RolePhoto
		default:
			return 0, fmt.Errorf("unknown slot role %q", part)
		}
	}
	return r, nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// MaxSpan is the widest title span the solver ever tries.
const MaxSpan = 5

// Slot is a fixed placement region on a page template.
type Slot struct {
	ID           string  `json:"id" bson:"id"`
	Page         int     `json:"page" bson:"page"`
	Rect         Rect    `json:"rect" bson:"rect"`
	Role         Role    `json:"role" bson:"role"`
	Columns      int     `json:"columns" bson:"columns"`
	Gutter       float64 `json:"gutter" bson:"gutter"`
	MaxTitleSpan int     `json:"max_title_span,omitempty" bson:"max_title_span,omitempty"`
}

// Width returns the slot width in points.
func (s Slot) Width() float64 { return s.Rect.Width() }

// Height returns the slot height in points.
func (s Slot) Height() float64 { return s.Rect.Height() }

// ColumnCount returns the number of text columns, at least 1.
func (s Slot) ColumnCount() int {
	if s.Columns < 1 {
		return 1
	}
	return s.Columns
}

// ColumnWidth returns the width of one text column after gutters.
func (s Slot) ColumnWidth() float64 {
	n := s.ColumnCount()
	w := (s.Width() - s.Gutter*float64(n-1)) / float64(n)
	return math.Max(w, 0)
}

// SpanCap returns how many columns a title may span in this slot:
// the configured maximum (or the column count), clamped to
// [1, min(ColumnCount, MaxSpan)].
func (s Slot) SpanCap() int {
	c := s.MaxTitleSpan
	if c <= 0 {
		c = s.ColumnCount()
	}
	return max(1, min(c, s.ColumnCount(), MaxSpan))
}

// SpanWidth returns the width covered by a title spanning n columns.
func (s Slot) SpanWidth(n int) float64 {
	n = max(1, min(n, s.ColumnCount()))
	return s.ColumnWidth()*float64(n) + s.Gutter*float64(n-1)
}

// IsText reports whether the slot may host text.
func (s Slot) IsText() bool { return s.Role.Has(RoleText) }

// IsPhoto reports whether the slot may host a photo.
func (s Slot) IsPhoto() bool { return s.Role.Has(RolePhoto) }

// PhotoSpec describes the fixed photo box.
type PhotoSpec struct {
	Width     float64 // fixed two-column photo width, points
	MinHeight float64 // minimum photo height, points
	Tolerance float64 // allowed deviation, points
	Strict    bool
}

// FitsPhoto reports whether the slot can host a photo under spec.
// Strict mode requires the fixed width within tolerance and at least the
// minimum height. Relaxed mode accepts any photo slot at least one column
// (half the fixed width) wide.
func (s Slot) FitsPhoto(spec PhotoSpec) bool {
	if !s.IsPhoto() || s.Rect.Empty() {
		return false
	}
	if spec.Strict {
		return math.Abs(s.Width()-spec.Width) <= spec.Tolerance &&
			s.Height()+spec.Tolerance >= spec.MinHeight
	}
	return s.Width()+spec.Tolerance >= spec.Width/2
}
