package measure

import (
	"context"
	"unicode/utf8"

	"github.com/matzehuels/slotfit/pkg/config"
)

// Capacity is the deterministic measurement model: a character is
// size x CharWidthFactor points wide and a line is size x Leading points
// tall. It never fails and never touches a host.
type Capacity struct {
	engine flowEngine
}

// NewCapacity creates a capacity measurer from body and title metrics.
func NewCapacity(body, title config.Typography) *Capacity {
	return &Capacity{engine: flowEngine{
		body:  body,
		title: title,
		advance: func(s string, size float64, isTitle bool) (float64, error) {
			cwf := body.CharWidthFactor
			if isTitle {
				cwf = title.CharWidthFactor
			}
			return float64(utf8.RuneCountInString(s)) * size * cwf, nil
		},
	}}
}

// Measure lays out req with the capacity model.
func (c *Capacity) Measure(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return c.engine.measure(req)
}

// CharsPerLine returns how many characters fit on a line of width w at the
// given size, as used by the model.
func CharsPerLine(w, size float64, t config.Typography) int {
	if size <= 0 || t.CharWidthFactor <= 0 {
		return 0
	}
	return int(w / (size * t.CharWidthFactor))
}
