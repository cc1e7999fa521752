package solver

import (
	"math"

	"github.com/matzehuels/slotfit/pkg/page"
)

// ProgressFunc reports search progress: states expanded so far, states
// still open, and the cost of the best complete plan (-1 before the first).
type ProgressFunc func(expanded, frontier int, best float64)

// progressEvery is how many expansions pass between progress reports.
const progressEvery = 256

// Problem is the input to a [Strategy]. Options[i] are the ranked
// candidates of Notes[i]; every entry must be non-empty.
type Problem struct {
	Notes       []page.Note
	Options     [][]Placement
	HardPenalty float64
	Budget      int
	Progress    ProgressFunc

	bounds []cost
	seq    int
}

// Plan is the outcome of a search, aligned with Problem.Notes.
type Plan struct {
	Placements []Placement
	Overflow   int
	Hard       int
	Expanded   int
	Terminals  int
	Exhausted  bool
}

// Cost returns the plan's search cost.
func (pl Plan) Cost(penalty float64) float64 {
	return float64(pl.Overflow) + float64(pl.Hard)*penalty
}

// weighted is the plan cost reported to progress callbacks.
func (p *Problem) weighted(overflow, hard int) float64 {
	return float64(overflow) + float64(hard)*p.HardPenalty
}

// prepare computes the remaining-cost lower bounds. bounds[i] sums, over
// notes i.., the fewest hard failures and, separately, the least overflow
// any candidate of the note has, so no completion of a state at depth i
// can cost less than bounds[i] in either component.
func (p *Problem) prepare() {
	n := len(p.Notes)
	p.bounds = make([]cost, n+1)
	for i := n - 1; i >= 0; i-- {
		low := cost{hard: math.MaxInt, overflow: math.MaxInt}
		for _, opt := range p.Options[i] {
			c := placementCost(opt)
			low.hard = min(low.hard, c.hard)
			low.overflow = min(low.overflow, c.overflow)
		}
		if len(p.Options[i]) == 0 {
			low = cost{}
		}
		p.bounds[i] = p.bounds[i+1].add(low)
	}
	p.seq = 0
}

func placementCost(opt Placement) cost {
	c := cost{overflow: opt.Overflow}
	if opt.Failed() {
		c.hard = 1
	}
	return c
}

func (p *Problem) root() *state {
	return &state{priority: p.bounds[0]}
}

// child applies option choice of note s.index to s.
func (p *Problem) child(s *state, choice int) *state {
	var opt Placement
	if choice == forced {
		opt = missingPlacement(p.Notes[s.index])
	} else {
		opt = p.Options[s.index][choice]
	}
	step := placementCost(opt)
	c := &state{
		parent:   s,
		index:    s.index + 1,
		choice:   choice,
		overflow: s.overflow + step.overflow,
		hard:     s.hard + step.hard,
	}
	c.priority = c.cost().add(p.bounds[c.index])
	p.seq++
	c.seq = p.seq
	return c
}

// expand returns the successors of s: one per legal option, or a single
// forced missing transition when none is legal.
func (p *Problem) expand(s *state) []*state {
	var out []*state
	for i, opt := range p.Options[s.index] {
		if s.legal(p, opt) {
			out = append(out, p.child(s, i))
		}
	}
	if len(out) == 0 {
		out = append(out, p.child(s, forced))
	}
	return out
}

// complete extends s to a full plan by taking the cheapest successor at
// each step.
func (p *Problem) complete(s *state) *state {
	for s.index < len(p.Notes) {
		next := p.expand(s)
		best := next[0]
		for _, c := range next[1:] {
			if c.priority.compare(best.priority) < 0 {
				best = c
			}
		}
		s = best
	}
	return s
}

// plan materialises a terminal state.
func (p *Problem) plan(s *state) Plan {
	out := Plan{
		Placements: make([]Placement, len(p.Notes)),
		Overflow:   s.overflow,
		Hard:       s.hard,
	}
	for cur := s; cur != nil && cur.index > 0; cur = cur.parent {
		i := cur.index - 1
		if cur.choice == forced {
			out.Placements[i] = missingPlacement(p.Notes[i])
		} else {
			out.Placements[i] = p.Options[i][cur.choice]
		}
	}
	return out
}
