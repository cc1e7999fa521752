package proof

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/matzehuels/slotfit/pkg/fonts"
	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/realize"
)

const (
	slotStroke  = "#b0b0b0"
	frameStroke = "#1f77b4"
	guideStroke = "#c6dbef"
	photoFill   = "#eeeeee"
	labelSize   = 7.0
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	embedFonts bool
	guides     bool
}

// WithoutFonts skips embedding the font data, which keeps the output small.
func WithoutFonts() SVGOption { return func(r *svgRenderer) { r.embedFonts = false } }

// WithoutGuides hides column guides inside frames.
func WithoutGuides() SVGOption { return func(r *svgRenderer) { r.guides = false } }

// SVG renders the document. Pages are laid out left to right.
func (d *Document) SVG(opts ...SVGOption) []byte {
	r := svgRenderer{embedFonts: true, guides: true}
	for _, opt := range opts {
		opt(&r)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	panels, w, h := d.panels()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	r.renderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="white"/>`+"\n", w, h)

	for _, p := range panels {
		fmt.Fprintf(&buf, `  <g id="page-%d" transform="translate(%.1f %.1f)">`+"\n", p.page, p.offset+Margin, Margin)
		fmt.Fprintf(&buf, `    <text class="page-label" x="0" y="-6">page %d</text>`+"\n", p.page)
		for _, s := range d.inv.Slots() {
			if s.Page == p.page {
				renderSlot(&buf, s)
			}
		}
		for _, img := range d.images {
			if img.Slot.Page == p.page {
				renderImage(&buf, img)
			}
		}
		for _, f := range d.frames {
			if f.Page == p.page {
				r.renderFrame(&buf, f)
			}
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n    <style>\n")
	if r.embedFonts {
		fmt.Fprintf(buf, "      @font-face { font-family: '%s'; src: url(data:font/ttf;base64,%s) format('truetype'); }\n",
			fonts.FontFamily, fonts.TTFBase64(false))
		fmt.Fprintf(buf, "      @font-face { font-family: '%s'; font-weight: bold; src: url(data:font/ttf;base64,%s) format('truetype'); }\n",
			fonts.FontFamily, fonts.TTFBase64(true))
	}
	fmt.Fprintf(buf, "      text { font-family: %s; }\n", fonts.FallbackFontFamily)
	fmt.Fprintf(buf, "      .label, .page-label { font-size: %.1fpx; fill: #555555; }\n", labelSize)
	buf.WriteString("      .title { font-weight: bold; fill: #111111; }\n")
	buf.WriteString("    </style>\n  </defs>\n")
}

func renderSlot(buf *bytes.Buffer, s page.Slot) {
	fill := "none"
	if s.IsPhoto() && !s.IsText() {
		fill = photoFill
	}
	fmt.Fprintf(buf, `    <rect class="slot" data-slot="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" stroke-width="0.5" stroke-dasharray="4 2"/>`+"\n",
		escapeXML(s.ID), s.Rect.Left, s.Rect.Top, s.Width(), s.Height(), fill, slotStroke)
}

func renderImage(buf *bytes.Buffer, img Image) {
	r := img.Slot.Rect
	fmt.Fprintf(buf, `    <rect class="image" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#d9d9d9" stroke="#7f7f7f" stroke-width="0.75"/>`+"\n",
		r.Left, r.Top, r.Width(), r.Height())
	fmt.Fprintf(buf, `    <text class="label" x="%.2f" y="%.2f">%s</text>`+"\n",
		r.Left+3, r.Top+labelSize+2, escapeXML(filepath.Base(img.Path)))
}

func (r svgRenderer) renderFrame(buf *bytes.Buffer, f PlacedFrame) {
	stroke, width := frameStroke, 1.0
	if f.Overset() {
		stroke, width = realize.OversetStroke, 2.0
	}
	fmt.Fprintf(buf, `    <g class="frame" id="%s">`+"\n", escapeXML(f.ID))
	fmt.Fprintf(buf, `      <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="%.1f"/>`+"\n",
		f.Rect.Left, f.Rect.Top, f.Rect.Width(), f.Rect.Height(), stroke, width)

	if r.guides {
		for _, x := range columnGuides(f) {
			fmt.Fprintf(buf, `      <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5"/>`+"\n",
				x, f.Rect.Top, x, f.Rect.Bottom, guideStroke)
		}
	}

	if f.Title != "" {
		size := f.Profile.Title
		fmt.Fprintf(buf, `      <text class="title" x="%.2f" y="%.2f" font-size="%.2f" textLength="%.2f" lengthAdjust="spacingAndGlyphs">%s</text>`+"\n",
			f.Rect.Left+2, f.Rect.Top+size, size, titleWidth(f)-4, escapeXML(firstLine(f.Title)))
	}
	fmt.Fprintf(buf, `      <text class="label" x="%.2f" y="%.2f">%s</text>`+"\n",
		f.Rect.Left+2, f.Rect.Bottom-3, escapeXML(frameLabel(f)))
	buf.WriteString("    </g>\n")
}

// columnGuides returns the x positions of the gutter edges inside f.
func columnGuides(f PlacedFrame) []float64 {
	n := max(f.Columns, 1)
	if n == 1 {
		return nil
	}
	colW := (f.Rect.Width() - f.Gutter*float64(n-1)) / float64(n)
	var xs []float64
	for i := 1; i < n; i++ {
		right := f.Rect.Left + float64(i)*colW + float64(i-1)*f.Gutter
		xs = append(xs, right, right+f.Gutter)
	}
	return xs
}

// titleWidth is the width the title covers: its span of columns, or the
// whole frame for a title-only frame.
func titleWidth(f PlacedFrame) float64 {
	s := page.Slot{Rect: f.Rect, Columns: f.Columns, Gutter: f.Gutter}
	if f.Part == measure.PartTitle {
		return s.Width()
	}
	return s.SpanWidth(f.Span)
}

func frameLabel(f PlacedFrame) string {
	label := fmt.Sprintf("%s %s", f.NoteID, f.Part)
	switch f.Part {
	case measure.PartBody:
		label += fmt.Sprintf(" %gpt", f.Profile.Body)
	case measure.PartTitle:
		label += fmt.Sprintf(" %gpt", f.Profile.Title)
	default:
		label += fmt.Sprintf(" %g/%gpt span %d", f.Profile.Body, f.Profile.Title, f.Span)
	}
	if f.Overflow > 0 {
		label += fmt.Sprintf(" +%d", f.Overflow)
	}
	return label
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
