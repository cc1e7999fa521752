// Package proof is an in-process layout host.
//
// A [Document] accepts frames and images from the realizer the way a
// desktop publishing host would, measures each frame with a [measure.Measurer]
// to report the characters that do not fit, and renders the result as an
// SVG or PNG proof. Slots are drawn as dashed outlines, frames with their
// column guides, and overset frames are stroked with [realize.OversetStroke].
//
// Hosts that allow one layout operation at a time share a single semaphore
// between measurement and realization:
//
//	doc := proof.New(inv, measure.NewTypesetter(cfg.Body, cfg.Title))
//	m := measure.NewSerialShared(relaxed, doc.Lock())
//	r := realize.New(doc, realize.Options{Lock: doc.Lock()})
package proof

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/realize"
)

// Margin is the blank border around each page panel, in points.
const Margin = 18.0

// PlacedFrame is a frame as the document holds it.
type PlacedFrame struct {
	realize.Frame
	Overflow int
	Flag     string
}

// Overset reports whether the frame was flagged.
func (f PlacedFrame) Overset() bool { return f.Flag != "" }

// Image is an image placed into a photo slot.
type Image struct {
	Slot page.Slot
	Path string
}

// Document is a proof host for one inventory.
type Document struct {
	inv  *page.Inventory
	m    measure.Measurer
	lock *semaphore.Weighted

	mu     sync.Mutex
	frames []PlacedFrame
	images []Image
}

// New returns an empty document for inv. Frames are measured with m as
// placed, without relaxation.
func New(inv *page.Inventory, m measure.Measurer) *Document {
	return &Document{inv: inv, m: m, lock: semaphore.NewWeighted(1)}
}

// Lock returns the semaphore that serialises host access.
func (d *Document) Lock() *semaphore.Weighted { return d.lock }

// Inventory returns the slots the document was built for.
func (d *Document) Inventory() *page.Inventory { return d.inv }

// PlaceFrame implements [realize.Host].
func (d *Document) PlaceFrame(ctx context.Context, f realize.Frame) (int, error) {
	s, ok := d.inv.Slot(f.SlotID)
	if !ok {
		return 0, errors.New(errors.ErrCodeHost, "no slot %q in %s", f.SlotID, d.inv.Key())
	}
	if !s.IsText() {
		return 0, errors.New(errors.ErrCodeHost, "slot %q does not accept text", f.SlotID)
	}
	if f.Rect.Empty() {
		return 0, errors.New(errors.ErrCodeHost, "frame %s has no area", f.ID)
	}

	res, err := d.m.Measure(ctx, measure.Request{
		NoteID:   f.NoteID,
		SlotID:   f.SlotID,
		Part:     f.Part,
		Title:    f.Title,
		Body:     f.Body,
		Geometry: f.Rect,
		Columns:  f.Columns,
		Gutter:   f.Gutter,
		Span:     f.Span,
		Profile:  f.Profile,
	})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeHost, err, "lay out frame %s", f.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = slices.DeleteFunc(d.frames, func(p PlacedFrame) bool { return p.ID == f.ID })
	d.frames = append(d.frames, PlacedFrame{Frame: f, Overflow: res.Overflow})
	return res.Overflow, nil
}

// FlagFrame implements [realize.Host].
func (d *Document) FlagFrame(_ context.Context, frameID, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.frames {
		if d.frames[i].ID == frameID {
			d.frames[i].Flag = reason
			return nil
		}
	}
	return errors.New(errors.ErrCodeHost, "no frame %q", frameID)
}

// PlaceImage implements [realize.Host].
func (d *Document) PlaceImage(_ context.Context, slot page.Slot, path string) error {
	s, ok := d.inv.Slot(slot.ID)
	if !ok || !s.IsPhoto() {
		return errors.New(errors.ErrCodeHost, "slot %q does not accept images", slot.ID)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images = append(d.images, Image{Slot: s, Path: path})
	return nil
}

// Frames returns the placed frames in placement order.
func (d *Document) Frames() []PlacedFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.frames)
}

// Images returns the placed images.
func (d *Document) Images() []Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.images)
}

var _ realize.Host = (*Document)(nil)

// panel is the drawing area of one page.
type panel struct {
	page   int
	offset float64 // x offset of the page origin
	width  float64
	height float64
}

// panels lays the inventory's pages out left to right. A page is as large
// as the extent of its slots plus the margin.
func (d *Document) panels() ([]panel, float64, float64) {
	var out []panel
	x, h := 0.0, 0.0
	for _, p := range d.inv.Pages() {
		w, ph := 2*Margin, 2*Margin
		for _, s := range d.inv.Slots() {
			if s.Page != p {
				continue
			}
			w = max(w, s.Rect.Right+2*Margin)
			ph = max(ph, s.Rect.Bottom+2*Margin)
		}
		for _, f := range d.frames {
			if f.Page == p {
				ph = max(ph, f.Rect.Bottom+2*Margin)
			}
		}
		out = append(out, panel{page: p, offset: x, width: w, height: ph})
		x += w
		h = max(h, ph)
	}
	return out, x, h
}

func panelFor(ps []panel, pageNo int) (panel, bool) {
	for _, p := range ps {
		if p.page == pageNo {
			return p, true
		}
	}
	return panel{}, false
}
