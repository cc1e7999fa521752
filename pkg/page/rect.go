package page

import "math"

// Unit conversion constants. Points are the internal unit.
const (
	PointsPerInch = 72.0
	MMPerPoint    = 25.4 / PointsPerInch
	PointsPerMM   = PointsPerInch / 25.4
	PointsPerCM   = PointsPerMM * 10
)

// FromMM converts millimeters to points.
func FromMM(mm float64) float64 { return mm * PointsPerMM }

// FromCM converts centimeters to points.
func FromCM(cm float64) float64 { return cm * PointsPerCM }

// ToMM converts points to millimeters.
func ToMM(pt float64) float64 { return pt * MMPerPoint }

// Rect is an axis-aligned rectangle in page coordinates (points, origin at
// the top-left corner, y growing downwards).
type Rect struct {
	Top    float64 `json:"top" bson:"top"`
	Left   float64 `json:"left" bson:"left"`
	Bottom float64 `json:"bottom" bson:"bottom"`
	Right  float64 `json:"right" bson:"right"`
}

// RectXYWH builds a Rect from an origin and a size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{Top: y, Left: x, Bottom: y + h, Right: x + w}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Area returns the rectangle's area in square points.
func (r Rect) Area() float64 { return r.Width() * r.Height() }

// Empty reports whether the rectangle has no positive area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// WithHeight returns a copy with the same top edge and the given height.
func (r Rect) WithHeight(h float64) Rect {
	r.Bottom = r.Top + h
	return r
}

// Round returns a copy with every edge rounded to 1/100 pt. Used before
// hashing so that float noise from unit conversion does not split caches.
func (r Rect) Round() Rect {
	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	return Rect{Top: round(r.Top), Left: round(r.Left), Bottom: round(r.Bottom), Right: round(r.Right)}
}
