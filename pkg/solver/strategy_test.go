package solver

import (
	"context"
	"testing"

	"github.com/matzehuels/slotfit/pkg/page"
)

func bodyOption(note, slot string, overflow int) Placement {
	return Placement{NoteID: note, Kind: KindBody, BodySlot: slot, Overflow: overflow, Score: float64(overflow)}
}

// trapProblem has note a preferring s1, which b needs. Taking the locally
// best option for a forces b to go missing.
func trapProblem(budget int) *Problem {
	return &Problem{
		Notes: []page.Note{
			{ID: "a", Body: "aaaa"},
			{ID: "b", Body: "bbbb"},
		},
		Options: [][]Placement{
			{bodyOption("a", "s1", 0), bodyOption("a", "s2", 1)},
			{bodyOption("b", "s1", 0)},
		},
		HardPenalty: 500,
		Budget:      budget,
	}
}

func TestStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		wantHard int
		wantOver int
	}{
		{"best-first", BestFirst{}, 0, 1},
		{"beam", Beam{Width: 2}, 0, 1},
		{"greedy", Greedy{}, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := tt.strategy.Search(context.Background(), trapProblem(100))
			if len(plan.Placements) != 2 {
				t.Fatalf("len(Placements) = %d, want 2", len(plan.Placements))
			}
			if plan.Hard != tt.wantHard || plan.Overflow != tt.wantOver {
				t.Errorf("Hard = %d, Overflow = %d; want %d, %d", plan.Hard, plan.Overflow, tt.wantHard, tt.wantOver)
			}
			if tt.wantHard > 0 && !plan.Placements[1].Missing() {
				t.Errorf("b = %+v, want forced missing", plan.Placements[1])
			}
		})
	}
}

func TestBestFirstEarlyExit(t *testing.T) {
	p := &Problem{
		Notes: []page.Note{{ID: "a", Body: "x"}, {ID: "b", Body: "y"}},
		Options: [][]Placement{
			{bodyOption("a", "s1", 0), bodyOption("a", "s2", 0), bodyOption("a", "s3", 0)},
			{bodyOption("b", "s1", 0), bodyOption("b", "s2", 0), bodyOption("b", "s3", 0)},
		},
		HardPenalty: 500,
		Budget:      1000,
	}
	plan := BestFirst{}.Search(context.Background(), p)
	if plan.Overflow != 0 || plan.Hard != 0 {
		t.Fatalf("plan = %+v", plan)
	}
	// Root plus one state per note along the first path.
	if plan.Expanded != 2 {
		t.Errorf("Expanded = %d, want 2", plan.Expanded)
	}
	if plan.Terminals != 1 || plan.Exhausted {
		t.Errorf("Terminals = %d, Exhausted = %v", plan.Terminals, plan.Exhausted)
	}
}

func TestHardFailureNeverBeatsSoftOverflow(t *testing.T) {
	// s1 has the lower weighted cost (10+500 < 600) but a hard failure.
	hard := bodyOption("a", "s1", 10)
	hard.Hard, hard.Score = true, 510
	soft := bodyOption("a", "s2", 600)

	for _, s := range []Strategy{BestFirst{}, Beam{Width: 4}, Greedy{}} {
		t.Run(s.Name(), func(t *testing.T) {
			p := &Problem{
				Notes:       []page.Note{{ID: "a", Body: "aaaa"}},
				Options:     [][]Placement{{hard, soft}},
				HardPenalty: 500,
				Budget:      100,
			}
			plan := s.Search(context.Background(), p)
			if plan.Hard != 0 || plan.Overflow != 600 || plan.Placements[0].BodySlot != "s2" {
				t.Errorf("plan = hard %d, overflow %d in %s; want the soft s2 option",
					plan.Hard, plan.Overflow, plan.Placements[0].BodySlot)
			}
		})
	}
}

func TestBestFirstPrefersFewerHardAcrossNotes(t *testing.T) {
	// Either a takes s1 and b fails hard in s2, or a overflows s2 by 800
	// characters and b fits s1.
	bHard := bodyOption("b", "s2", 5)
	bHard.Hard = true
	p := &Problem{
		Notes: []page.Note{{ID: "a", Body: "aaaa"}, {ID: "b", Body: "bbbb"}},
		Options: [][]Placement{
			{bodyOption("a", "s1", 0), bodyOption("a", "s2", 800)},
			{bodyOption("b", "s1", 0), bHard},
		},
		HardPenalty: 500,
		Budget:      100,
	}
	plan := BestFirst{}.Search(context.Background(), p)
	if plan.Hard != 0 || plan.Overflow != 800 {
		t.Errorf("plan = hard %d, overflow %d; want 0, 800", plan.Hard, plan.Overflow)
	}
}

func TestBudgetExhaustedStillCompletes(t *testing.T) {
	for _, s := range []Strategy{BestFirst{}, Beam{Width: 4}, Greedy{}} {
		t.Run(s.Name(), func(t *testing.T) {
			plan := s.Search(context.Background(), trapProblem(0))
			if !plan.Exhausted {
				t.Error("Exhausted = false with a zero budget")
			}
			if len(plan.Placements) != 2 {
				t.Fatalf("len(Placements) = %d, want 2", len(plan.Placements))
			}
			for i, pl := range plan.Placements {
				if pl.Kind == "" {
					t.Errorf("placement %d unset", i)
				}
			}
		})
	}
}

func TestSearchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := BestFirst{}.Search(ctx, trapProblem(100))
	if len(plan.Placements) != 2 || !plan.Exhausted {
		t.Errorf("plan = %+v, want a completed fallback plan", plan)
	}
}

func TestSearchNoNotes(t *testing.T) {
	for _, s := range []Strategy{BestFirst{}, Beam{Width: 3}, Greedy{}} {
		plan := s.Search(context.Background(), &Problem{HardPenalty: 500, Budget: 10})
		if len(plan.Placements) != 0 || plan.Hard != 0 {
			t.Errorf("%s: plan = %+v", s.Name(), plan)
		}
	}
}

func TestForcedMissingOnEveryBranch(t *testing.T) {
	// Three notes share one slot: exactly two must go missing.
	p := &Problem{
		Notes: []page.Note{{ID: "a", Body: "x"}, {ID: "b", Body: "yy"}, {ID: "c", Body: "zzz"}},
		Options: [][]Placement{
			{bodyOption("a", "s1", 0)},
			{bodyOption("b", "s1", 0)},
			{bodyOption("c", "s1", 0)},
		},
		HardPenalty: 500,
		Budget:      100,
	}
	plan := BestFirst{}.Search(context.Background(), p)
	missing := 0
	for _, pl := range plan.Placements {
		if pl.Missing() {
			missing++
			if !pl.Has(page.WarnNoSlotAvailable) {
				t.Errorf("forced missing lacks no_slot_available: %v", pl.Flags)
			}
		}
	}
	if missing != 2 || plan.Hard != 2 {
		t.Errorf("missing = %d, Hard = %d; want 2, 2", missing, plan.Hard)
	}
	// Missing is only taken when nothing is legal, so the first note keeps
	// the slot.
	if plan.Placements[0].BodySlot != "s1" {
		t.Errorf("a = %+v, want s1", plan.Placements[0])
	}
}

func TestPlacementSlots(t *testing.T) {
	tests := []struct {
		pl   Placement
		want int
	}{
		{Placement{Kind: KindCombined, BodySlot: "s1", TitleSlot: "s1"}, 1},
		{Placement{Kind: KindSeparate, BodySlot: "s1", TitleSlot: "s2"}, 2},
		{Placement{Kind: KindTitle, TitleSlot: "s2"}, 1},
		{Placement{Kind: KindMissing}, 0},
	}
	for _, tt := range tests {
		if got := tt.pl.Slots(); len(got) != tt.want {
			t.Errorf("%s Slots() = %v, want %d slots", tt.pl.Kind, got, tt.want)
		}
	}
}

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"", "best-first", "beam", "greedy"} {
		s, err := NewStrategy(name, 4)
		if err != nil {
			t.Errorf("NewStrategy(%q) error: %v", name, err)
			continue
		}
		if name != "" && s.Name() != name {
			t.Errorf("Name() = %s, want %s", s.Name(), name)
		}
	}
	if _, err := NewStrategy("random", 4); err == nil {
		t.Error("NewStrategy(random) succeeded")
	}
}
