// Package realize places a solved plan into a host document.
//
// The [Realizer] creates one frame per used slot at the chosen sizes,
// re-checks overflow after real placement, strokes overset frames, and
// assigns note images to photo slots. Host failures are recorded on the
// note's report row; they never stop the run.
package realize

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/observability"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/report"
	"github.com/matzehuels/slotfit/pkg/solver"
	"github.com/matzehuels/slotfit/pkg/style"
)

// OversetStroke is the stroke color of frames that still overflow after
// placement.
const OversetStroke = "#d62728"

// Flag reasons passed to [Host.FlagFrame].
const (
	ReasonOverset     = "overset"
	ReasonOversetHard = "overset_hard"
)

// Frame is a text container to create in the host.
type Frame struct {
	ID      string
	NoteID  string
	SlotID  string
	Page    int
	Part    measure.Part
	Rect    page.Rect
	Columns int
	Gutter  float64
	Span    int
	Title   string
	Body    string
	Profile style.Profile
}

// Host is the document that receives frames and images. Calls are
// serialised by the realizer.
type Host interface {
	// PlaceFrame creates f and returns how many characters do not fit.
	PlaceFrame(ctx context.Context, f Frame) (overflow int, err error)
	// FlagFrame marks a placed frame, e.g. with [OversetStroke].
	FlagFrame(ctx context.Context, frameID, reason string) error
	// PlaceImage puts the image at path into slot.
	PlaceImage(ctx context.Context, slot page.Slot, path string) error
}

// Options configure a Realizer.
type Options struct {
	// Photo selects which photo slots accept images.
	Photo page.PhotoSpec
	// Lock is shared with measurers that use the same host. Nil creates a
	// private one.
	Lock *semaphore.Weighted
	// Logger receives warnings. Defaults to discarding.
	Logger *log.Logger
}

// Realizer places plans into a Host.
type Realizer struct {
	host Host
	opts Options
}

// New returns a realizer for host.
func New(host Host, opts Options) *Realizer {
	if opts.Lock == nil {
		opts.Lock = semaphore.NewWeighted(1)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Realizer{host: host, opts: opts}
}

// FrameID names the frame of one part of a note.
func FrameID(noteID string, part measure.Part) string {
	return noteID + "#" + string(part)
}

// Realize places res into the host and returns one report row per note.
// The only error is ctx's; everything the host rejects ends up in the
// affected row.
func (r *Realizer) Realize(ctx context.Context, inv *page.Inventory, res *solver.Result) ([]report.Row, error) {
	start := time.Now()
	rows := report.Rows(inv, res)
	used := map[string]bool{}

	for i, nr := range res.Notes {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		row := &rows[i]
		for _, id := range nr.Placement.Slots() {
			used[id] = true
		}
		r.logWarnings(res.Page, nr)
		for _, f := range framesFor(inv, nr) {
			r.place(ctx, row, f, nr.Placement.Hard)
		}
	}

	r.placeImages(ctx, inv, res, rows, used)

	warnings := 0
	for _, row := range rows {
		warnings += len(row.Warnings)
	}
	observability.Pipeline().OnRealizeComplete(ctx, res.Page, warnings, time.Since(start), ctx.Err())
	return rows, ctx.Err()
}

func (r *Realizer) logWarnings(pageKey string, nr solver.NoteResult) {
	pl := nr.Placement
	switch {
	case pl.Missing():
		r.opts.Logger.Warn("note has no slot", "page", pageKey, "note", nr.Note.ID, "chars", nr.Note.Chars())
	case pl.Hard:
		r.opts.Logger.Warn("hard overset", "page", pageKey, "note", nr.Note.ID, "slots", pl.Slots(), "overflow", pl.Overflow)
	}
}

// place creates one frame and flags it when text remains outside.
func (r *Realizer) place(ctx context.Context, row *report.Row, f Frame, hard bool) {
	var overflow int
	err := r.withHost(ctx, func() error {
		var err error
		overflow, err = r.host.PlaceFrame(ctx, f)
		return err
	})
	if err != nil {
		r.opts.Logger.Error("place frame", "frame", f.ID, "slot", f.SlotID, "error", err)
		row.Fail(fmt.Sprintf("place %s in %s: %v", f.Part, f.SlotID, err))
		return
	}
	row.PlacedOverflow += overflow
	if overflow == 0 {
		return
	}

	reason := ReasonOverset
	if hard {
		reason = ReasonOversetHard
	} else {
		row.Warn(page.WarnOverset)
	}
	r.opts.Logger.Warn("frame overflows after placement", "frame", f.ID, "slot", f.SlotID, "overflow", overflow)
	if err := r.withHost(ctx, func() error { return r.host.FlagFrame(ctx, f.ID, reason) }); err != nil {
		row.Fail(fmt.Sprintf("flag %s: %v", f.ID, err))
	}
}

// placeImages assigns each note's images, in order, to the first free
// photo slot that fits the photo spec, preferring the note's own page.
func (r *Realizer) placeImages(ctx context.Context, inv *page.Inventory, res *solver.Result, rows []report.Row, used map[string]bool) {
	if inv == nil {
		return
	}
	candidates := inv.PhotoFits(r.opts.Photo)

	for i, nr := range res.Notes {
		if ctx.Err() != nil {
			return
		}
		row := &rows[i]
		for _, path := range nr.Note.Images {
			slot, ok := pickPhotoSlot(candidates, used, nr.Note.Page)
			if !ok {
				row.Warn(page.WarnPhotoSlotMissing)
				r.opts.Logger.Warn("no photo slot", "page", res.Page, "note", nr.Note.ID, "image", path)
				continue
			}
			used[slot.ID] = true
			err := r.withHost(ctx, func() error { return r.host.PlaceImage(ctx, slot, path) })
			if err != nil {
				r.opts.Logger.Error("place image", "slot", slot.ID, "image", path, "error", err)
				row.Fail(fmt.Sprintf("place image %s in %s: %v", path, slot.ID, err))
				continue
			}
			row.Photos = append(row.Photos, slot.ID)
		}
	}
}

func pickPhotoSlot(candidates []page.Slot, used map[string]bool, pageNo int) (page.Slot, bool) {
	free := slices.DeleteFunc(slices.Clone(candidates), func(s page.Slot) bool { return used[s.ID] })
	for _, s := range free {
		if s.Page == pageNo {
			return s, true
		}
	}
	if len(free) > 0 {
		return free[0], true
	}
	return page.Slot{}, false
}

func (r *Realizer) withHost(ctx context.Context, fn func() error) error {
	if err := r.opts.Lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.opts.Lock.Release(1)
	return fn()
}

// framesFor returns the frames a placement needs: none for missing or
// empty placements, two for separate ones, one otherwise.
func framesFor(inv *page.Inventory, nr solver.NoteResult) []Frame {
	pl := nr.Placement
	n := nr.Note
	frame := func(slotID string, part measure.Part, m measure.Result) (Frame, bool) {
		if inv == nil {
			return Frame{}, false
		}
		s, ok := inv.Slot(slotID)
		if !ok {
			return Frame{}, false
		}
		f := Frame{
			ID:      FrameID(n.ID, part),
			NoteID:  n.ID,
			SlotID:  s.ID,
			Page:    s.Page,
			Part:    part,
			Rect:    s.Rect,
			Columns: s.ColumnCount(),
			Gutter:  s.Gutter,
			Span:    max(pl.Span, 1),
			Profile: pl.Profile,
		}
		if m.Expanded > 0 {
			f.Rect = s.Rect.WithHeight(s.Height() + m.Expanded)
		}
		if part != measure.PartBody {
			f.Title = n.Title
		}
		if part != measure.PartTitle {
			f.Body = n.Body
		}
		return f, true
	}

	var specs []struct {
		slot string
		part measure.Part
		m    measure.Result
	}
	add := func(slot string, part measure.Part, m measure.Result) {
		specs = append(specs, struct {
			slot string
			part measure.Part
			m    measure.Result
		}{slot, part, m})
	}
	switch pl.Kind {
	case solver.KindCombined:
		add(pl.BodySlot, measure.PartCombined, pl.Body)
	case solver.KindSeparate:
		add(pl.BodySlot, measure.PartBody, pl.Body)
		add(pl.TitleSlot, measure.PartTitle, pl.Title)
	case solver.KindBody:
		add(pl.BodySlot, measure.PartBody, pl.Body)
	case solver.KindTitle:
		add(pl.TitleSlot, measure.PartTitle, pl.Title)
	}

	var out []Frame
	for _, sp := range specs {
		if f, ok := frame(sp.slot, sp.part, sp.m); ok {
			out = append(out, f)
		}
	}
	return out
}
