package solver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/slotfit/pkg/config"
	slerrors "github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
)

// words returns n four-letter words. At the default body size a 399pt
// column holds 20 of them per line and 10 lines fit in 114pt.
func words(n int) string {
	return strings.TrimSpace(strings.Repeat("aaaa ", n))
}

func capacityMeasurer() measure.Measurer {
	cfg := config.Default()
	return measure.NewRelaxer(measure.NewCapacity(cfg.Body, cfg.Title), cfg.Overset)
}

func textSlot(id string, x, w, h float64, cols int) page.Slot {
	return page.Slot{
		ID:      id,
		Page:    1,
		Rect:    page.RectXYWH(x, 0, w, h),
		Role:    page.RoleText,
		Columns: cols,
		Gutter:  12,
	}
}

func inventory(t *testing.T, slots ...page.Slot) *page.Inventory {
	t.Helper()
	inv, err := page.NewInventory([]int{1}, slots)
	if err != nil {
		t.Fatalf("NewInventory() error: %v", err)
	}
	return inv
}

func defaultOptions() Options {
	return OptionsFrom(config.Default())
}

func solve(t *testing.T, inv *page.Inventory, notes []page.Note, opts Options) *Result {
	t.Helper()
	res, err := Solve(context.Background(), capacityMeasurer(), inv, notes, opts)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if len(res.Notes) != len(notes) {
		t.Fatalf("len(Notes) = %d, want %d", len(res.Notes), len(notes))
	}
	return res
}

func assertExclusive(t *testing.T, res *Result) {
	t.Helper()
	owner := map[string]string{}
	for _, nr := range res.Notes {
		for _, id := range nr.Placement.Slots() {
			if prev, ok := owner[id]; ok {
				t.Errorf("slot %s used by %s and %s", id, prev, nr.Note.ID)
			}
			owner[id] = nr.Note.ID
		}
	}
}

func hasWarning(nr NoteResult, w string) bool {
	for _, x := range nr.Warnings() {
		if x == w {
			return true
		}
	}
	return false
}

func TestSolveSingleExactFit(t *testing.T) {
	inv := inventory(t, textSlot("s1", 0, 399, 114, 1))
	notes := []page.Note{{ID: "n1", Page: 1, Body: words(200)}}

	res := solve(t, inv, notes, defaultOptions())

	if !res.Success || res.Overflow != 0 {
		t.Fatalf("Success = %v, Overflow = %d; want true, 0", res.Success, res.Overflow)
	}
	pl := res.Notes[0].Placement
	if pl.BodySlot != "s1" {
		t.Errorf("BodySlot = %q, want s1", pl.BodySlot)
	}
	if pl.Profile.Body != 9.5 {
		t.Errorf("body size = %v, want base 9.5", pl.Profile.Body)
	}
	if len(res.Notes[0].Warnings()) != 0 {
		t.Errorf("Warnings = %v, want none", res.Notes[0].Warnings())
	}
}

func TestSolveMoreNotesThanSlots(t *testing.T) {
	for _, strategy := range []string{config.StrategyBestFirst, config.StrategyBeam, config.StrategyGreedy} {
		t.Run(strategy, func(t *testing.T) {
			inv := inventory(t,
				textSlot("s1", 0, 399, 114, 1),
				textSlot("s2", 420, 399, 114, 1),
			)
			notes := []page.Note{
				{ID: "a", Page: 1, Body: words(50)},
				{ID: "b", Page: 1, Body: words(50)},
				{ID: "c", Page: 1, Body: words(50)},
			}
			opts := defaultOptions()
			opts.Solver.Strategy = strategy

			res := solve(t, inv, notes, opts)
			assertExclusive(t, res)

			missing := 0
			for _, nr := range res.Notes {
				if hasWarning(nr, page.WarnNoSlotAvailable) {
					missing++
					if !nr.Placement.Missing() {
						t.Errorf("%s warned but placement is %s", nr.Note.ID, nr.Placement.Kind)
					}
				} else if len(nr.Placement.Slots()) != 1 {
					t.Errorf("%s placed in %v", nr.Note.ID, nr.Placement.Slots())
				}
			}
			if missing != 1 {
				t.Errorf("missing notes = %d, want 1", missing)
			}
			if res.Success {
				t.Error("Success = true with a missing note")
			}
			if res.Strategy != strategy {
				t.Errorf("Strategy = %s, want %s", res.Strategy, strategy)
			}
		})
	}
}

// title140 is a title of exactly 140 characters.
var title140 = strings.TrimSpace(strings.Repeat("abcd ", 28)) + "e"

func TestSolveLongTitleSpansColumns(t *testing.T) {
	if n := len([]rune(title140)); n != 140 {
		t.Fatalf("title length = %d", n)
	}
	// Five 100pt columns.
	wide := textSlot("s1", 0, 548, 400, 5)

	t.Run("title only", func(t *testing.T) {
		res := solve(t, inventory(t, wide), []page.Note{{ID: "n1", Page: 1, Title: title140}}, defaultOptions())
		pl := res.Notes[0].Placement
		if pl.Kind != KindTitle {
			t.Fatalf("Kind = %s, want title", pl.Kind)
		}
		if pl.Span <= 1 {
			t.Errorf("Span = %d, want > 1", pl.Span)
		}
		if pl.Span != IdealSpan(140, 35, 5) {
			t.Errorf("Span = %d, want the ideal %d", pl.Span, IdealSpan(140, 35, 5))
		}
	})

	t.Run("combined", func(t *testing.T) {
		res := solve(t, inventory(t, wide), []page.Note{{ID: "n1", Page: 1, Title: title140, Body: words(40)}}, defaultOptions())
		pl := res.Notes[0].Placement
		if pl.Kind != KindCombined || pl.Span <= 1 {
			t.Errorf("Kind = %s, Span = %d; want combined with span > 1", pl.Kind, pl.Span)
		}
	})
}

func TestSolveHardOverset(t *testing.T) {
	inv := inventory(t,
		textSlot("s1", 0, 399, 114, 1),
		textSlot("s2", 420, 399, 114, 1),
	)
	notes := []page.Note{{ID: "long", Page: 1, Body: words(2000)}}

	res := solve(t, inv, notes, defaultOptions())
	nr := res.Notes[0]
	if !hasWarning(nr, page.WarnOversetHard) {
		t.Errorf("Warnings = %v, want overset_hard", nr.Warnings())
	}
	if nr.Placement.Overflow <= 0 || res.Overflow <= 0 {
		t.Errorf("Overflow = %d, want > 0", nr.Placement.Overflow)
	}
	if nr.Placement.Missing() || len(nr.Placement.Slots()) != 1 {
		t.Errorf("placement = %+v, want a best-effort slot", nr.Placement)
	}
	if res.Success {
		t.Error("Success = true with hard overset")
	}
}

func TestSolveSmallResidualIsHard(t *testing.T) {
	over := measure.Func(func(_ context.Context, req measure.Request) (measure.Result, error) {
		return measure.Result{Overflow: 10, BodySize: req.Profile.Body, TitleSize: req.Profile.Title}, nil
	})
	m := measure.NewRelaxer(over, config.Default().Overset)
	inv := inventory(t, textSlot("s1", 0, 399, 114, 1))
	notes := []page.Note{{ID: "n1", Page: 1, Body: words(20)}}

	res, err := Solve(context.Background(), m, inv, notes, defaultOptions())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	nr := res.Notes[0]
	if res.Overflow != 10 || !nr.Placement.Hard {
		t.Errorf("Overflow = %d, Hard = %v; want 10, true", res.Overflow, nr.Placement.Hard)
	}
	if !hasWarning(nr, page.WarnOversetHard) {
		t.Errorf("Warnings = %v, want overset_hard", nr.Warnings())
	}
	if res.Success {
		t.Error("Success = true with residual overset")
	}
}

func TestSolveNoSlots(t *testing.T) {
	notes := []page.Note{
		{ID: "a", Page: 1, Title: "Headline", Body: words(10)},
		{ID: "b", Page: 1, Body: words(10)},
	}
	photoOnly := page.Slot{ID: "p1", Page: 1, Rect: page.RectXYWH(0, 0, 300, 200), Role: page.RolePhoto}

	tests := []struct {
		name string
		inv  *page.Inventory
	}{
		{"nil inventory", nil},
		{"empty inventory", inventory(t)},
		{"photo slots only", inventory(t, photoOnly)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := solve(t, tt.inv, notes, defaultOptions())
			if res.Success {
				t.Error("Success = true without slots")
			}
			for _, nr := range res.Notes {
				if !nr.Placement.Missing() {
					t.Errorf("%s: Kind = %s, want missing", nr.Note.ID, nr.Placement.Kind)
				}
				if !hasWarning(nr, page.WarnSlotMissing) || !hasWarning(nr, page.WarnNoSlotAvailable) {
					t.Errorf("%s: Warnings = %v", nr.Note.ID, nr.Warnings())
				}
			}
		})
	}
}

func TestSolveKeepsInputOrder(t *testing.T) {
	inv := inventory(t,
		textSlot("s1", 0, 399, 300, 1),
		textSlot("s2", 420, 399, 300, 1),
		textSlot("s3", 840, 399, 300, 1),
	)
	notes := []page.Note{
		{ID: "short", Page: 1, Body: words(5)},
		{ID: "long", Page: 1, Body: words(300)},
		{ID: "mid", Page: 1, Title: "Mid", Body: words(60)},
	}
	res := solve(t, inv, notes, defaultOptions())
	for i, nr := range res.Notes {
		if nr.Note.ID != notes[i].ID || nr.Placement.NoteID != notes[i].ID {
			t.Errorf("Notes[%d] = %s/%s, want %s", i, nr.Note.ID, nr.Placement.NoteID, notes[i].ID)
		}
	}
	if _, ok := res.Note("mid"); !ok {
		t.Error("Note(mid) not found")
	}
	if owners := res.SlotOwners(); len(owners) < 3 {
		t.Errorf("SlotOwners() = %v, want every note placed", owners)
	}
}

func TestSolveExclusivityAcrossStrategies(t *testing.T) {
	inv := inventory(t,
		textSlot("s1", 0, 300, 200, 2),
		textSlot("s2", 320, 300, 120, 2),
		textSlot("s3", 640, 200, 300, 1),
		textSlot("s4", 860, 500, 80, 3),
	)
	var notes []page.Note
	for i, n := range []int{10, 80, 25, 150, 5, 60} {
		note := page.Note{ID: string(rune('a' + i)), Page: 1, Body: words(n)}
		if i%2 == 0 {
			note.Title = strings.Repeat("Headline ", i+1)
		}
		notes = append(notes, note)
	}

	for _, strategy := range []string{config.StrategyBestFirst, config.StrategyBeam, config.StrategyGreedy} {
		t.Run(strategy, func(t *testing.T) {
			opts := defaultOptions()
			opts.Solver.Strategy = strategy
			res := solve(t, inv, notes, opts)
			assertExclusive(t, res)
			for _, nr := range res.Notes {
				pl := nr.Placement
				if pl.Kind == KindSeparate && pl.BodySlot == pl.TitleSlot {
					t.Errorf("%s: separate placement reuses %s", nr.Note.ID, pl.BodySlot)
				}
			}
		})
	}
}

func TestSolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := inventory(t, textSlot("s1", 0, 399, 114, 1))
	_, err := Solve(ctx, capacityMeasurer(), inv, []page.Note{{ID: "n", Page: 1, Body: "text"}}, defaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Solve() error = %v, want context.Canceled", err)
	}
}

func TestSolveUnknownStrategy(t *testing.T) {
	opts := defaultOptions()
	opts.Solver.Strategy = "annealing"
	_, err := Solve(context.Background(), capacityMeasurer(), nil, nil, opts)
	if !slerrors.Is(err, slerrors.ErrCodeInvalidStrategy) {
		t.Errorf("Solve() error = %v, want INVALID_STRATEGY", err)
	}
}

func TestSolveProgress(t *testing.T) {
	inv := inventory(t,
		textSlot("s1", 0, 399, 114, 1),
		textSlot("s2", 420, 399, 114, 1),
	)
	notes := []page.Note{
		{ID: "a", Page: 1, Body: words(50)},
		{ID: "b", Page: 1, Body: words(50)},
		{ID: "c", Page: 1, Body: words(50)},
	}
	calls := 0
	lastExpanded := -1
	opts := defaultOptions()
	opts.Progress = func(expanded, frontier int, best float64) {
		calls++
		if expanded < lastExpanded {
			t.Errorf("expanded went back from %d to %d", lastExpanded, expanded)
		}
		lastExpanded = expanded
	}
	res := solve(t, inv, notes, opts)
	if calls == 0 {
		t.Error("Progress never called")
	}
	if lastExpanded != res.Expanded {
		t.Errorf("last progress expanded = %d, result = %d", lastExpanded, res.Expanded)
	}
	if res.Expanded > res.Budget {
		t.Errorf("Expanded = %d beyond Budget = %d", res.Expanded, res.Budget)
	}
}
