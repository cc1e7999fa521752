package solver

import (
	"slices"

	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/style"
)

// Kind is the family a placement belongs to.
type Kind string

const (
	// KindCombined puts title and body into one slot.
	KindCombined Kind = "combined"
	// KindSeparate puts the body and the title into two distinct slots.
	KindSeparate Kind = "separate"
	// KindBody places a note that has only a body.
	KindBody Kind = "body"
	// KindTitle places a note that has only a title.
	KindTitle Kind = "title"
	// KindMissing means no slot could be given to the note.
	KindMissing Kind = "missing"
	// KindEmpty is a note without text; it consumes no slot.
	KindEmpty Kind = "empty"
)

// Placement is one candidate assignment for a note.
type Placement struct {
	NoteID    string        `json:"note_id" bson:"note_id"`
	Kind      Kind          `json:"kind" bson:"kind"`
	BodySlot  string        `json:"body_slot,omitempty" bson:"body_slot,omitempty"`
	TitleSlot string        `json:"title_slot,omitempty" bson:"title_slot,omitempty"`
	Profile   style.Profile `json:"profile" bson:"profile"`
	Span      int           `json:"span,omitempty" bson:"span,omitempty"`
	Overflow  int           `json:"overflow" bson:"overflow"`
	Hard      bool          `json:"hard,omitempty" bson:"hard,omitempty"`
	Flags     []string      `json:"flags,omitempty" bson:"flags,omitempty"`

	// Width is the frame width used for tie-breaking and reporting.
	Width float64 `json:"width" bson:"width"`
	// Score is the effective sort score.
	Score float64 `json:"score" bson:"score"`

	// Body and Title are the measurements behind the placement. For combined
	// placements only Body is set.
	Body  measure.Result `json:"body_result" bson:"body_result"`
	Title measure.Result `json:"title_result" bson:"title_result"`
}

// Slots returns the slot ids the placement consumes.
func (p Placement) Slots() []string {
	switch {
	case p.BodySlot != "" && p.TitleSlot != "" && p.BodySlot != p.TitleSlot:
		return []string{p.BodySlot, p.TitleSlot}
	case p.BodySlot != "":
		return []string{p.BodySlot}
	case p.TitleSlot != "":
		return []string{p.TitleSlot}
	}
	return nil
}

// Missing reports whether the note received no slot.
func (p Placement) Missing() bool { return p.Kind == KindMissing }

// Failed reports whether the placement counts as a hard failure.
func (p Placement) Failed() bool { return p.Hard || p.Missing() }

// Has reports whether flag is set.
func (p Placement) Has(flag string) bool { return slices.Contains(p.Flags, flag) }

// Height returns the content height reported by the measurements.
func (p Placement) Height() float64 {
	return max(p.Body.Height, p.Title.Height)
}

// missingPlacement is the synthetic placement for a note without a slot.
// Its overflow is the note's whole content.
func missingPlacement(n page.Note) Placement {
	return Placement{
		NoteID:   n.ID,
		Kind:     KindMissing,
		Overflow: n.Chars(),
		Hard:     true,
		Flags:    []string{page.WarnSlotMissing, page.WarnNoSlotAvailable},
	}
}

func emptyPlacement(n page.Note) Placement {
	return Placement{NoteID: n.ID, Kind: KindEmpty}
}

// overflowFlags returns the warning flags implied by a measurement outcome.
func overflowFlags(overflow int, hard bool) []string {
	switch {
	case hard:
		return []string{page.WarnOversetHard}
	case overflow > 0:
		return []string{page.WarnOverset}
	}
	return nil
}
