package solver

import (
	"container/heap"
	"context"
	"slices"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/observability"
)

// Strategy searches a [Problem] for a complete plan. Implementations must
// return a plan covering every note, whatever the budget.
type Strategy interface {
	Name() string
	Search(ctx context.Context, p *Problem) Plan
}

// NewStrategy returns the strategy registered under name.
func NewStrategy(name string, beamWidth int) (Strategy, error) {
	switch name {
	case "", config.StrategyBestFirst:
		return BestFirst{}, nil
	case config.StrategyBeam:
		return Beam{Width: beamWidth}, nil
	case config.StrategyGreedy:
		return Greedy{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q (want best-first, beam or greedy)", name)
}

// frontierCompletions bounds how many open states are completed when the
// budget runs out before any complete plan is found.
const frontierCompletions = 32

// BestFirst expands open states in order of their lower bound, fewest hard
// failures first, then least overflow. It stops at the first complete plan
// with no overflow and no hard failures, when no open state's bound is
// below the best complete plan, or when the budget is spent.
type BestFirst struct{}

func (BestFirst) Name() string { return config.StrategyBestFirst }

func (b BestFirst) Search(ctx context.Context, p *Problem) Plan {
	p.prepare()
	n := len(p.Notes)
	h := &stateHeap{p.root()}

	var best *state
	expanded, terminals := 0, 0
	exhausted := false
	report := func() {
		bestCost := -1.0
		if best != nil {
			bestCost = p.weighted(best.overflow, best.hard)
		}
		if p.Progress != nil {
			p.Progress(expanded, h.Len(), bestCost)
		}
		observability.Measure().OnExpand(ctx, b.Name(), expanded, h.Len())
	}

	for h.Len() > 0 {
		if expanded >= p.Budget || ctx.Err() != nil {
			exhausted = true
			break
		}
		if best != nil && (*h)[0].priority.compare(best.cost()) >= 0 {
			break
		}
		s := heap.Pop(h).(*state)
		if s.index == n {
			terminals++
			if s.better(best) {
				best = s
			}
			if s.hard == 0 && s.overflow == 0 {
				break
			}
			continue
		}

		expanded++
		for _, c := range p.expand(s) {
			heap.Push(h, c)
		}
		if expanded%progressEvery == 0 {
			report()
		}
	}
	report()

	if best == nil {
		best = completeFrontier(p, h)
	}
	pl := p.plan(best)
	pl.Expanded, pl.Terminals, pl.Exhausted = expanded, terminals, exhausted
	return pl
}

// completeFrontier greedily completes the most promising open states and
// returns the best result.
func completeFrontier(p *Problem, h *stateHeap) *state {
	if h.Len() == 0 {
		return p.complete(p.root())
	}
	var best *state
	for i := 0; i < frontierCompletions && h.Len() > 0; i++ {
		s := p.complete(heap.Pop(h).(*state))
		if s.better(best) {
			best = s
		}
	}
	return best
}

// Beam keeps the Width lowest-priority states after placing each note.
type Beam struct {
	Width int
}

func (Beam) Name() string { return config.StrategyBeam }

func (b Beam) Search(ctx context.Context, p *Problem) Plan {
	return beamSearch(ctx, p, max(b.Width, 1), b.Name())
}

// Greedy is a beam of width one: each note takes its best legal option.
type Greedy struct{}

func (Greedy) Name() string { return config.StrategyGreedy }

func (g Greedy) Search(ctx context.Context, p *Problem) Plan {
	return beamSearch(ctx, p, 1, g.Name())
}

func beamSearch(ctx context.Context, p *Problem, width int, name string) Plan {
	p.prepare()
	n := len(p.Notes)
	beam := []*state{p.root()}
	expanded := 0
	exhausted := false

	for depth := 0; depth < n; depth++ {
		if expanded >= p.Budget || ctx.Err() != nil {
			exhausted = true
			break
		}
		var next []*state
		for _, s := range beam {
			expanded++
			next = append(next, p.expand(s)...)
		}
		slices.SortStableFunc(next, func(a, b *state) int {
			if c := a.priority.compare(b.priority); c != 0 {
				return c
			}
			return a.seq - b.seq
		})
		if len(next) > width {
			next = next[:width]
		}
		beam = next

		bestCost := -1.0
		if beam[0].index == n {
			bestCost = p.weighted(beam[0].overflow, beam[0].hard)
		}
		if p.Progress != nil {
			p.Progress(expanded, len(beam), bestCost)
		}
		observability.Measure().OnExpand(ctx, name, expanded, len(beam))
	}

	var best *state
	terminals := 0
	for _, s := range beam {
		if s.index == n {
			terminals++
		}
		t := p.complete(s)
		if t.better(best) {
			best = t
		}
	}
	pl := p.plan(best)
	pl.Expanded, pl.Terminals, pl.Exhausted = expanded, terminals, exhausted
	return pl
}
