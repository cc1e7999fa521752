// Package measure lays note text into candidate slot geometry and reports
// how much of it does not fit.
//
// # Measurer
//
// [Measurer] is the boundary the solver depends on. A measurement is
// atomic: it takes a note part (title, body or both), a frame geometry with
// column metadata and a size profile, and returns the overflow in characters
// plus the sizes and height actually used. The solver never looks inside.
//
// # Implementations
//
//   - [Capacity]: deterministic model, characters per line derived from the
//     configured character width factor. Used by tests and as a fallback.
//   - [Typesetter]: the same flow with real glyph advances from the Go fonts.
//
// # Decorators
//
//   - [Relaxer]: bounded local relaxation (height expansion, then body and
//     title shrink) before overflow is reported; marks hard overset.
//   - [Cached]: memoises by (note, slot, part, profile, span), optionally
//     persisting into a cache scoped by slot geometry.
//   - [Serial]: serialises calls for hosts that allow one layout at a time.
//
// A typical stack, innermost first:
//
//	var m measure.Measurer = measure.NewTypesetter(cfg.Body, cfg.Title)
//	m = measure.NewRelaxer(m, cfg.Overset)
//	m = measure.NewSerial(m)
//	m = measure.NewCached(m, measure.CacheOptions{Store: c, Scope: inv.GeometryHash()})
package measure

import (
	"context"

	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/style"
)

// Part selects which text of a note is measured.
type Part string

const (
	PartCombined Part = "combined"
	PartTitle    Part = "title"
	PartBody     Part = "body"
)

// Request is one measurement.
type Request struct {
	NoteID   string
	SlotID   string
	Part     Part
	Title    string
	Body     string
	Geometry page.Rect
	Columns  int
	Gutter   float64
	Span     int
	Profile  style.Profile
}

// HasTitle reports whether the request lays out a title.
func (r Request) HasTitle() bool {
	return (r.Part == PartCombined || r.Part == PartTitle) && r.Title != ""
}

// HasBody reports whether the request lays out a body.
func (r Request) HasBody() bool {
	return (r.Part == PartCombined || r.Part == PartBody) && r.Body != ""
}

// Result is the outcome of a measurement.
type Result struct {
	Overflow    int     `json:"overflow"`
	BodySize    float64 `json:"body_size"`
	TitleSize   float64 `json:"title_size"`
	Height      float64 `json:"height"`
	FrameHeight float64 `json:"frame_height"`
	Expanded    float64 `json:"expanded,omitempty"`
	Hard        bool    `json:"hard,omitempty"`
}

// Measurer measures note text in a frame.
type Measurer interface {
	Measure(ctx context.Context, req Request) (Result, error)
}

// Func adapts a function to the Measurer interface.
type Func func(ctx context.Context, req Request) (Result, error)

// Measure calls f.
func (f Func) Measure(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// ForSlot fills the geometry and column fields of req from s.
func ForSlot(req Request, s page.Slot) Request {
	req.SlotID = s.ID
	req.Geometry = s.Rect
	req.Columns = s.ColumnCount()
	req.Gutter = s.Gutter
	return req
}
