package solver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
)

func TestGenerateOptionsMissing(t *testing.T) {
	note := page.Note{ID: "n1", Title: "Título", Body: "cuerpo de texto"}
	photo := page.Slot{ID: "p1", Page: 1, Rect: page.RectXYWH(0, 0, 300, 200), Role: page.RolePhoto}

	for _, inv := range []*page.Inventory{nil, inventory(t), inventory(t, photo)} {
		got := GenerateOptions(context.Background(), capacityMeasurer(), inv, note, defaultOptions())
		if len(got) != 1 {
			t.Fatalf("len = %d, want exactly one synthetic option", len(got))
		}
		pl := got[0]
		if !pl.Missing() || !pl.Has(page.WarnNoSlotAvailable) || !pl.Has(page.WarnSlotMissing) {
			t.Errorf("placement = %+v, want missing with no_slot_available", pl)
		}
		if pl.Overflow != note.TitleChars()+note.BodyChars() {
			t.Errorf("Overflow = %d, want %d", pl.Overflow, note.Chars())
		}
		if len(pl.Slots()) != 0 {
			t.Errorf("missing placement consumes %v", pl.Slots())
		}
	}
}

func TestGenerateOptionsEmptyNote(t *testing.T) {
	inv := inventory(t, textSlot("s1", 0, 399, 114, 1))
	got := GenerateOptions(context.Background(), capacityMeasurer(), inv, page.Note{ID: "blank"}, defaultOptions())
	if len(got) != 1 || got[0].Kind != KindEmpty || got[0].Failed() || len(got[0].Slots()) != 0 {
		t.Errorf("GenerateOptions() = %+v, want one empty placement", got)
	}
}

func TestGenerateOptionsFamilies(t *testing.T) {
	inv := inventory(t,
		textSlot("s1", 0, 399, 200, 2),
		textSlot("s2", 420, 399, 200, 3),
		textSlot("s3", 840, 200, 100, 1),
	)
	opts := defaultOptions()
	k := opts.Solver.TopK

	tests := []struct {
		name  string
		note  page.Note
		kinds map[Kind]bool
	}{
		{"both", page.Note{ID: "n", Title: "A headline", Body: words(80)}, map[Kind]bool{KindCombined: true, KindSeparate: true}},
		{"body only", page.Note{ID: "n", Body: words(80)}, map[Kind]bool{KindBody: true}},
		{"title only", page.Note{ID: "n", Title: "A headline"}, map[Kind]bool{KindTitle: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateOptions(context.Background(), capacityMeasurer(), inv, tt.note, opts)
			counts := map[Kind]int{}
			for i, pl := range got {
				counts[pl.Kind]++
				if !tt.kinds[pl.Kind] {
					t.Errorf("unexpected kind %s", pl.Kind)
				}
				if i > 0 && got[i-1].Failed() == pl.Failed() && got[i-1].Score > pl.Score {
					t.Errorf("options not sorted at %d: %v > %v", i, got[i-1].Score, pl.Score)
				}
				if i > 0 && got[i-1].Failed() && !pl.Failed() {
					t.Errorf("failed option sorted before soft option %d", i)
				}
				if pl.Kind == KindSeparate && pl.BodySlot == pl.TitleSlot {
					t.Errorf("separate option uses %s twice", pl.BodySlot)
				}
				if pl.Kind == KindCombined && pl.Span != mustSlot(t, inv, pl.BodySlot).SpanCap() {
					t.Errorf("combined span = %d, want slot span cap", pl.Span)
				}
				if pl.Span > page.MaxSpan {
					t.Errorf("span %d beyond %d", pl.Span, page.MaxSpan)
				}
			}
			for kind := range tt.kinds {
				if counts[kind] == 0 {
					t.Errorf("no %s options", kind)
				}
				if counts[kind] > k {
					t.Errorf("%d %s options, want at most %d", counts[kind], kind, k)
				}
			}
		})
	}
}

func TestGenerateOptionsSpanWithinColumns(t *testing.T) {
	narrow := textSlot("s1", 0, 399, 200, 2)
	narrow.MaxTitleSpan = 5
	inv := inventory(t, narrow)
	note := page.Note{ID: "n", Title: title140, Body: words(40)}

	got := GenerateOptions(context.Background(), capacityMeasurer(), inv, note, defaultOptions())
	if len(got) == 0 {
		t.Fatal("no options")
	}
	for _, pl := range got {
		if pl.Span > 2 {
			t.Errorf("%s option spans %d columns of a 2-column slot", pl.Kind, pl.Span)
		}
	}
}

func TestGenerateOptionsNoSeparate(t *testing.T) {
	inv := inventory(t,
		textSlot("s1", 0, 399, 200, 2),
		textSlot("s2", 420, 399, 200, 2),
	)
	opts := defaultOptions()
	opts.Solver.Separate = false
	for _, pl := range GenerateOptions(context.Background(), capacityMeasurer(), inv, page.Note{ID: "n", Title: "T", Body: "b"}, opts) {
		if pl.Kind != KindCombined {
			t.Errorf("Kind = %s with separate layouts disabled", pl.Kind)
		}
	}
}

func mustSlot(t *testing.T, inv *page.Inventory, id string) page.Slot {
	t.Helper()
	s, ok := inv.Slot(id)
	if !ok {
		t.Fatalf("slot %s not found", id)
	}
	return s
}

func TestGenerateOptionsMeasureFailure(t *testing.T) {
	failing := measure.Func(func(context.Context, measure.Request) (measure.Result, error) {
		return measure.Result{}, errors.New("scratch frame could not be created")
	})
	inv := inventory(t, textSlot("s1", 0, 399, 114, 1))
	note := page.Note{ID: "n1", Body: "some body text"}

	got := GenerateOptions(context.Background(), failing, inv, note, defaultOptions())
	if len(got) == 0 {
		t.Fatal("no options")
	}
	for _, pl := range got {
		if !pl.Hard || !pl.Has(page.WarnMeasureFailed) || !pl.Has(page.WarnOversetHard) {
			t.Errorf("placement = %+v, want hard measure failure", pl)
		}
		if pl.Overflow != note.BodyChars() {
			t.Errorf("Overflow = %d, want full length %d", pl.Overflow, note.BodyChars())
		}
	}

	res, err := Solve(context.Background(), failing, inv, []page.Note{note}, defaultOptions())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if res.Success || len(res.Notes) != 1 {
		t.Errorf("Result = %+v, want a complete failed plan", res)
	}
}

func TestHardPenaltyOrdersSoftFirst(t *testing.T) {
	// s1 leaves a soft overflow, s2 a hard one with fewer characters. The
	// soft option leads even when its overflow exceeds the hard penalty.
	for _, soft := range []int{25, 900} {
		fake := measure.Func(func(_ context.Context, req measure.Request) (measure.Result, error) {
			if req.SlotID == "s1" {
				return measure.Result{Overflow: soft, BodySize: req.Profile.Body}, nil
			}
			return measure.Result{Overflow: 5, BodySize: req.Profile.Body, Hard: true}, nil
		})
		inv := inventory(t, textSlot("s1", 0, 100, 100, 1), textSlot("s2", 200, 100, 100, 1))
		got := GenerateOptions(context.Background(), fake, inv, page.Note{ID: "n", Body: "x"}, defaultOptions())
		if got[0].BodySlot != "s1" || got[0].Hard {
			t.Errorf("soft overflow %d: first option = %+v, want soft s1", soft, got[0])
		}
		if !got[0].Has(page.WarnOverset) {
			t.Errorf("soft overflow %d: Flags = %v, want overset", soft, got[0].Flags)
		}
	}
}

func TestWiderSlotWinsTies(t *testing.T) {
	inv := inventory(t,
		textSlot("narrow", 0, 300, 300, 1),
		textSlot("wide", 320, 399, 300, 1),
	)
	got := GenerateOptions(context.Background(), capacityMeasurer(), inv, page.Note{ID: "n", Body: words(10)}, defaultOptions())
	if got[0].BodySlot != "wide" {
		t.Errorf("first option in %s, want wide", got[0].BodySlot)
	}
}

func TestMinimumOverflowMonotonic(t *testing.T) {
	inv := inventory(t,
		textSlot("s1", 0, 399, 114, 1),
		textSlot("s2", 420, 200, 60, 1),
	)
	prev := -1
	for n := 10; n <= 600; n += 20 {
		opts := GenerateOptions(context.Background(), capacityMeasurer(), inv, page.Note{ID: "n", Body: words(n)}, defaultOptions())
		best := opts[0].Overflow
		for _, pl := range opts {
			best = min(best, pl.Overflow)
		}
		if best < prev {
			t.Fatalf("minimum overflow fell from %d to %d at %d words", prev, best, n)
		}
		prev = best
	}
	if prev == 0 {
		t.Error("600 words should not fit")
	}
}

func TestIdealSpan(t *testing.T) {
	tests := []struct {
		n, per, limit, want int
	}{
		{0, 35, 5, 1},
		{20, 35, 5, 1},
		{35, 35, 5, 1},
		{36, 35, 5, 2},
		{140, 35, 5, 4},
		{400, 35, 5, 5},
		{140, 35, 2, 2},
		{140, 0, 5, 1},
	}
	for _, tt := range tests {
		if got := IdealSpan(tt.n, tt.per, tt.limit); got != tt.want {
			t.Errorf("IdealSpan(%d, %d, %d) = %d, want %d", tt.n, tt.per, tt.limit, got, tt.want)
		}
	}
}

func TestOrderNotes(t *testing.T) {
	notes := []page.Note{
		{ID: "c", Title: "ab", Body: "xx"},
		{ID: "a", Body: "x"},
		{ID: "b", Title: "abc", Body: "xx"},
		{ID: "d", Body: "xxxxx"},
		{ID: "e", Title: "ab", Body: "xx"},
	}
	got := OrderNotes(notes)
	want := []string{"d", "b", "c", "e", "a"}
	for i, n := range got {
		if n.ID != want[i] {
			t.Fatalf("OrderNotes() = %v, want %v", ids(got), want)
		}
	}
	if notes[0].ID != "c" {
		t.Error("OrderNotes modified its input")
	}
}

func ids(notes []page.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestBudget(t *testing.T) {
	cfg := config.Default().Solver
	tests := []struct{ n, want int }{
		{1, 200}, {3, 200}, {4, 1500}, {6, 1500}, {10, 6000}, {11, 20000}, {80, 20000},
	}
	for _, tt := range tests {
		if got := Budget(cfg, tt.n); got != tt.want {
			t.Errorf("Budget(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
	for n := 1; n < 40; n++ {
		if Budget(cfg, n+1) < Budget(cfg, n) {
			t.Errorf("budget shrinks from %d to %d notes", n, n+1)
		}
	}
}

func ExampleSolve() {
	cfg := config.Default()
	m := measure.NewRelaxer(measure.NewCapacity(cfg.Body, cfg.Title), cfg.Overset)

	inv, _ := page.NewInventory([]int{1}, []page.Slot{{
		ID:      "slot-1",
		Page:    1,
		Rect:    page.RectXYWH(0, 0, 399, 200),
		Role:    page.RoleText,
		Columns: 1,
	}})
	notes := []page.Note{{ID: "n1", Page: 1, Body: "A short note."}}

	res, _ := Solve(context.Background(), m, inv, notes, OptionsFrom(cfg))
	pl := res.Notes[0].Placement
	fmt.Println("slot:", pl.BodySlot)
	fmt.Println("body size:", pl.Profile.Body)
	fmt.Println("overflow:", res.Overflow)
	fmt.Println("success:", res.Success)
	// Output:
	// slot: slot-1
	// body size: 9.5
	// overflow: 0
	// success: true
}
