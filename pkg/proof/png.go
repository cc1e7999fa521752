package proof

import (
	"bytes"
	"math"
	"path/filepath"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/fonts"
	"github.com/matzehuels/slotfit/pkg/realize"
)

// DefaultScale is the PNG scale factor (2x resolution).
const DefaultScale = 2.0

// PNG rasterises the document at scale pixels per point. A scale of zero
// or less uses [DefaultScale].
func (d *Document) PNG(scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = DefaultScale
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	panels, w, h := d.panels()

	dc := gg.NewContext(int(math.Ceil(w*scale)), int(math.Ceil(h*scale)))
	dc.Scale(scale, scale)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	label, err := fonts.Face(labelSize, false)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "load label font")
	}

	for _, p := range panels {
		dc.Push()
		dc.Translate(p.offset+Margin, Margin)

		dc.SetFontFace(label)
		dc.SetHexColor("#555555")
		dc.DrawString("page "+strconv.Itoa(p.page), 0, -6)

		for _, s := range d.inv.Slots() {
			if s.Page != p.page {
				continue
			}
			if s.IsPhoto() && !s.IsText() {
				dc.SetHexColor(photoFill)
				dc.DrawRectangle(s.Rect.Left, s.Rect.Top, s.Width(), s.Height())
				dc.Fill()
			}
			dc.SetHexColor(slotStroke)
			dc.SetLineWidth(0.5)
			dc.SetDash(4, 2)
			dc.DrawRectangle(s.Rect.Left, s.Rect.Top, s.Width(), s.Height())
			dc.Stroke()
			dc.SetDash()
		}

		for _, img := range d.images {
			if img.Slot.Page != p.page {
				continue
			}
			r := img.Slot.Rect
			dc.SetHexColor("#d9d9d9")
			dc.DrawRectangle(r.Left, r.Top, r.Width(), r.Height())
			dc.FillPreserve()
			dc.SetHexColor("#7f7f7f")
			dc.SetLineWidth(0.75)
			dc.Stroke()
			dc.SetFontFace(label)
			dc.SetHexColor("#555555")
			dc.DrawString(filepath.Base(img.Path), r.Left+3, r.Top+labelSize+2)
		}

		for _, f := range d.frames {
			if f.Page != p.page {
				continue
			}
			if err := drawFrame(dc, f); err != nil {
				dc.Pop()
				return nil, err
			}
		}
		dc.Pop()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode png")
	}
	return buf.Bytes(), nil
}

func drawFrame(dc *gg.Context, f PlacedFrame) error {
	r := f.Rect

	dc.SetHexColor(guideStroke)
	dc.SetLineWidth(0.5)
	for _, x := range columnGuides(f) {
		dc.DrawLine(x, r.Top, x, r.Bottom)
		dc.Stroke()
	}

	if f.Title != "" {
		face, err := fonts.Face(f.Profile.Title, true)
		if err != nil {
			return errors.Wrap(errors.ErrCodeRender, err, "load title font")
		}
		dc.Push()
		dc.DrawRectangle(r.Left, r.Top, titleWidth(f), r.Height())
		dc.Clip()
		dc.SetFontFace(face)
		dc.SetHexColor("#111111")
		dc.DrawString(firstLine(f.Title), r.Left+2, r.Top+f.Profile.Title)
		dc.ResetClip()
		dc.Pop()
	}

	stroke, width := frameStroke, 1.0
	if f.Overset() {
		stroke, width = realize.OversetStroke, 2.0
	}
	dc.SetHexColor(stroke)
	dc.SetLineWidth(width)
	dc.DrawRectangle(r.Left, r.Top, r.Width(), r.Height())
	dc.Stroke()

	lf, err := fonts.Face(labelSize, false)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "load label font")
	}
	dc.SetFontFace(lf)
	dc.SetHexColor("#555555")
	dc.DrawString(frameLabel(f), r.Left+2, r.Bottom-3)
	return nil
}
