package solver

import (
	"context"
	"time"

	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
)

// NoteResult is the outcome for one note.
type NoteResult struct {
	// Note carries the input note with the placement's warnings appended.
	Note      page.Note `json:"note" bson:"note"`
	Placement Placement `json:"placement" bson:"placement"`
}

// Warnings returns the note's warnings.
func (r NoteResult) Warnings() []string { return r.Note.Warnings }

// Result is a complete plan for one inventory. Notes are in input order
// and there is exactly one entry per input note.
type Result struct {
	Page      string        `json:"page" bson:"page"`
	Strategy  string        `json:"strategy" bson:"strategy"`
	Notes     []NoteResult  `json:"notes" bson:"notes"`
	Overflow  int           `json:"overflow" bson:"overflow"`
	Hard      int           `json:"hard" bson:"hard"`
	Success   bool          `json:"success" bson:"success"`
	Expanded  int           `json:"expanded" bson:"expanded"`
	Budget    int           `json:"budget" bson:"budget"`
	Exhausted bool          `json:"exhausted,omitempty" bson:"exhausted,omitempty"`
	Duration  time.Duration `json:"duration" bson:"duration"`
}

// Note returns the result for the note with id.
func (r *Result) Note(id string) (NoteResult, bool) {
	for _, nr := range r.Notes {
		if nr.Note.ID == id {
			return nr, true
		}
	}
	return NoteResult{}, false
}

// SlotOwners maps each consumed slot id to the note that consumes it.
func (r *Result) SlotOwners() map[string]string {
	out := make(map[string]string)
	for _, nr := range r.Notes {
		for _, id := range nr.Placement.Slots() {
			out[id] = nr.Note.ID
		}
	}
	return out
}

// Solve places notes into the slots of inv. The returned result always
// covers every note; notes that could not be placed carry slot_missing and
// no_slot_available, notes that do not fit carry overset_hard.
//
// Solve fails only for an unknown strategy or when ctx ends before options
// are generated. A context that ends during search yields the best plan
// found so far.
func Solve(ctx context.Context, m measure.Measurer, inv *page.Inventory, notes []page.Note, opts Options) (*Result, error) {
	start := time.Now()
	opts = opts.withDefaults()

	strategy, err := NewStrategy(opts.Solver.Strategy, opts.Solver.BeamWidth)
	if err != nil {
		return nil, err
	}

	order := difficultyOrder(notes)
	ordered := make([]page.Note, len(order))
	for i, j := range order {
		ordered[i] = notes[j]
	}
	p := &Problem{
		Notes:       ordered,
		Options:     make([][]Placement, len(ordered)),
		HardPenalty: opts.Solver.HardPenalty,
		Budget:      Budget(opts.Solver, len(ordered)),
		Progress:    opts.Progress,
	}

	key := ""
	if inv != nil {
		key = inv.Key()
	}
	noSlots := inv == nil || len(inv.TextSlots()) == 0
	for i, n := range ordered {
		if noSlots && (n.HasTitle() || n.HasBody()) {
			p.Options[i] = []Placement{missingPlacement(n)}
			continue
		}
		p.Options[i] = GenerateOptions(ctx, m, inv, n, opts)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Logger.Debug("options generated", "page", key, "note", n.ID, "options", len(p.Options[i]), "best", p.Options[i][0].Score)
	}

	plan := strategy.Search(ctx, p)

	res := &Result{
		Page:      key,
		Strategy:  strategy.Name(),
		Notes:     make([]NoteResult, len(notes)),
		Overflow:  plan.Overflow,
		Hard:      plan.Hard,
		Success:   plan.Hard == 0,
		Expanded:  plan.Expanded,
		Budget:    p.Budget,
		Exhausted: plan.Exhausted,
	}
	for i, j := range order {
		pl := plan.Placements[i]
		res.Notes[j] = NoteResult{Note: notes[j].WithWarnings(pl.Flags...), Placement: pl}
	}
	res.Duration = time.Since(start)

	opts.Logger.Debug("search finished",
		"page", key, "strategy", res.Strategy, "expanded", res.Expanded,
		"budget", res.Budget, "overflow", res.Overflow, "hard", res.Hard)
	return res, nil
}
