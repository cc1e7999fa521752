// Package report turns solved and realized plans into per-note rows and
// persists them.
//
// A [Report] is one run: an id, a creation time, and the rows of every
// page solved in that run. Rows are written as CSV or JSON ([WriteCSV],
// [WriteJSON]) and stored through a [Store] ([FileStore] or [MongoStore]).
package report

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/solver"
)

// Row is the outcome for one note, or a page-level notice when NoteID is
// empty. Lengths are in points.
type Row struct {
	Page           int      `json:"page" bson:"page"`
	PageKey        string   `json:"page_key" bson:"page_key"`
	NoteID         string   `json:"note_id,omitempty" bson:"note_id,omitempty"`
	Kind           string   `json:"kind,omitempty" bson:"kind,omitempty"`
	Slots          []string `json:"slots,omitempty" bson:"slots,omitempty"`
	Span           int      `json:"span,omitempty" bson:"span,omitempty"`
	ColumnWidth    float64  `json:"column_width_pt" bson:"column_width_pt"`
	Height         float64  `json:"height_pt" bson:"height_pt"`
	BodySize       float64  `json:"body_pt,omitempty" bson:"body_pt,omitempty"`
	TitleSize      float64  `json:"title_pt,omitempty" bson:"title_pt,omitempty"`
	Overflow       int      `json:"overflow" bson:"overflow"`
	PlacedOverflow int      `json:"placed_overflow,omitempty" bson:"placed_overflow,omitempty"`
	Photos         []string `json:"photos,omitempty" bson:"photos,omitempty"`
	Warnings       []string `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Errors         []string `json:"errors,omitempty" bson:"errors,omitempty"`
}

// Warn appends w unless already present.
func (r *Row) Warn(w string) {
	if !slices.Contains(r.Warnings, w) {
		r.Warnings = append(r.Warnings, w)
	}
}

// Fail appends an error message.
func (r *Row) Fail(msg string) {
	r.Errors = append(r.Errors, msg)
}

// HasWarning reports whether w was recorded.
func (r Row) HasWarning(w string) bool { return slices.Contains(r.Warnings, w) }

// Report is the output of one run.
type Report struct {
	RunID     string    `json:"run_id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Strategy  string    `json:"strategy,omitempty" bson:"strategy,omitempty"`
	Rows      []Row     `json:"rows" bson:"rows"`
}

// New returns an empty report with a fresh run id.
func New(strategy string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Strategy:  strategy,
	}
}

// Summary aggregates a report.
type Summary struct {
	RunID     string    `json:"run_id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Pages     int       `json:"pages" bson:"pages"`
	Notes     int       `json:"notes" bson:"notes"`
	Placed    int       `json:"placed" bson:"placed"`
	Missing   int       `json:"missing" bson:"missing"`
	Hard      int       `json:"hard" bson:"hard"`
	Overflow  int       `json:"overflow" bson:"overflow"`
	Errors    int       `json:"errors" bson:"errors"`
}

// Summarize counts notes, failures and overflow across all rows.
func (r *Report) Summarize() Summary {
	s := Summary{RunID: r.RunID, CreatedAt: r.CreatedAt}
	pages := map[string]bool{}
	for _, row := range r.Rows {
		pages[row.PageKey] = true
		s.Errors += len(row.Errors)
		if row.NoteID == "" {
			continue
		}
		s.Notes++
		s.Overflow += row.Overflow
		switch {
		case row.HasWarning(page.WarnSlotMissing):
			s.Missing++
		case row.HasWarning(page.WarnOversetHard):
			s.Hard++
			s.Placed++
		default:
			s.Placed++
		}
	}
	s.Pages = len(pages)
	return s
}

// Rows builds one row per note of res, in result order. Column widths are
// looked up in inv.
func Rows(inv *page.Inventory, res *solver.Result) []Row {
	rows := make([]Row, 0, len(res.Notes))
	for _, nr := range res.Notes {
		pl := nr.Placement
		row := Row{
			Page:     nr.Note.Page,
			PageKey:  res.Page,
			NoteID:   nr.Note.ID,
			Kind:     string(pl.Kind),
			Slots:    pl.Slots(),
			Span:     pl.Span,
			Height:   pl.Height(),
			Overflow: pl.Overflow,
		}
		if len(row.Slots) > 0 {
			row.BodySize, row.TitleSize = sizesFor(nr)
		}
		if inv != nil {
			row.ColumnWidth = columnWidth(inv, pl)
		}
		for _, w := range nr.Warnings() {
			row.Warn(w)
		}
		rows = append(rows, row)
	}
	return rows
}

// sizesFor returns the sizes that apply to the parts the note has.
func sizesFor(nr solver.NoteResult) (body, title float64) {
	if nr.Note.HasBody() {
		body = nr.Placement.Profile.Body
	}
	if nr.Note.HasTitle() {
		title = nr.Placement.Profile.Title
	}
	return body, title
}

func columnWidth(inv *page.Inventory, pl solver.Placement) float64 {
	id := pl.BodySlot
	if id == "" {
		id = pl.TitleSlot
	}
	if s, ok := inv.Slot(id); ok {
		return s.ColumnWidth()
	}
	return 0
}

// PageRow is a page-level notice such as no_docx_found.
func PageRow(pageNo int, pageKey, warning string) Row {
	return Row{Page: pageNo, PageKey: pageKey, Warnings: []string{warning}}
}
