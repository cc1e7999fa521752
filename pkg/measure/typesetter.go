package measure

import (
	"context"
	"sync"

	"github.com/fogleman/gg"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/fonts"
)

// Typesetter measures with real glyph advances: titles in Go Bold, bodies
// in Go Regular. Widths come from a gg context per face.
type Typesetter struct {
	engine flowEngine

	mu       sync.Mutex
	contexts map[faceKey]*gg.Context
}

type faceKey struct {
	size float64
	bold bool
}

// NewTypesetter creates a font-backed measurer. Line heights and spacing
// come from the body and title metrics; CharWidthFactor is ignored.
func NewTypesetter(body, title config.Typography) *Typesetter {
	t := &Typesetter{contexts: make(map[faceKey]*gg.Context)}
	t.engine = flowEngine{body: body, title: title, advance: t.advance}
	return t
}

// Measure lays out req using the embedded fonts.
func (t *Typesetter) Measure(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.measure(req)
}

// advance is called with t.mu held.
func (t *Typesetter) advance(s string, size float64, bold bool) (float64, error) {
	key := faceKey{size: size, bold: bold}
	dc, ok := t.contexts[key]
	if !ok {
		face, err := fonts.Face(size, bold)
		if err != nil {
			return 0, err
		}
		dc = gg.NewContext(1, 1)
		dc.SetFontFace(face)
		t.contexts[key] = dc
	}
	w, _ := dc.MeasureString(s)
	return w, nil
}
