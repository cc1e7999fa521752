// Package style generates the font size profiles the solver tries.
//
// A [Profile] pairs a body point size with a title point size. [Generate]
// enumerates profiles around the configured base sizes in whole font steps
// and clamps each size into its [Bounds]. The result is deterministic: the
// same bounds and step always produce the same list in the same order, with
// the base/base profile first.
package style

import (
	"fmt"
	"math"
)

// Bounds is a base point size and the tolerance band around it.
type Bounds struct {
	Base float64 `json:"base" toml:"base"`
	Min  float64 `json:"min" toml:"min"`
	Max  float64 `json:"max" toml:"max"`
}

// Clamp limits v to [Min, Max].
func (b Bounds) Clamp(v float64) float64 {
	return math.Min(math.Max(v, b.Min), b.Max)
}

// Valid reports whether Min <= Base <= Max and all are positive.
func (b Bounds) Valid() bool {
	return b.Min > 0 && b.Min <= b.Base && b.Base <= b.Max
}

// Profile is a (body, title) point size pair.
type Profile struct {
	Body  float64 `json:"body" bson:"body"`
	Title float64 `json:"title" bson:"title"`
}

// String formats the profile as "body/title".
func (p Profile) String() string {
	return fmt.Sprintf("%.2f/%.2f", p.Body, p.Title)
}

// Deltas are the multiples of the font step tried around each base size,
// in preference order.
var Deltas = []int{0, -1, 1, -2, 2}

// Generate enumerates profiles around body.Base and title.Base. Every
// combination of [Deltas] steps is clamped into its bounds, rounded to
// 1/100 pt and deduplicated keeping first occurrence. A non-positive step
// yields only the base profile.
func Generate(body, title Bounds, step float64) []Profile {
	base := Profile{Body: round2(body.Clamp(body.Base)), Title: round2(title.Clamp(title.Base))}
	if step <= 0 || math.IsNaN(step) {
		return []Profile{base}
	}

	seen := map[Profile]bool{base: true}
	out := []Profile{base}
	for _, bd := range Deltas {
		for _, td := range Deltas {
			p := Profile{
				Body:  round2(body.Clamp(body.Base + float64(bd)*step)),
				Title: round2(title.Clamp(title.Base + float64(td)*step)),
			}
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
