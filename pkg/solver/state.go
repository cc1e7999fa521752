package solver

import (
	"cmp"
	"container/heap"
)

// state is an immutable partial assignment. Each state records the choice
// made for note index-1 and points at its parent; the root has index 0.
type state struct {
	parent   *state
	index    int
	choice   int // option index for note index-1, or forced
	overflow int
	hard     int
	priority cost
	seq      int
}

// cost orders plans lexicographically: hard failures first, then overflow.
// No amount of overflow outweighs one hard failure.
type cost struct {
	hard, overflow int
}

func (c cost) add(o cost) cost { return cost{c.hard + o.hard, c.overflow + o.overflow} }

func (c cost) compare(o cost) int {
	if c.hard != o.hard {
		return cmp.Compare(c.hard, o.hard)
	}
	return cmp.Compare(c.overflow, o.overflow)
}

func (s *state) cost() cost { return cost{s.hard, s.overflow} }

// forced marks a missing placement taken because no option was legal.
const forced = -1

// uses reports whether slot id is consumed anywhere along the path.
func (s *state) uses(p *Problem, id string) bool {
	for cur := s; cur != nil && cur.index > 0; cur = cur.parent {
		if cur.choice == forced {
			continue
		}
		for _, used := range p.Options[cur.index-1][cur.choice].Slots() {
			if used == id {
				return true
			}
		}
	}
	return false
}

// legal reports whether opt consumes no slot already used by s.
func (s *state) legal(p *Problem, opt Placement) bool {
	for _, id := range opt.Slots() {
		if s.uses(p, id) {
			return false
		}
	}
	return true
}

// better reports whether s is preferred over o as a final plan: fewer hard
// failures, then less overflow.
func (s *state) better(o *state) bool {
	if o == nil {
		return true
	}
	return s.cost().compare(o.cost()) < 0
}

// stateHeap orders states by priority, deeper states first on ties, then
// creation order.
type stateHeap []*state

var _ heap.Interface = (*stateHeap)(nil)

func (h stateHeap) Len() int { return len(h) }

func (h stateHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if c := a.priority.compare(b.priority); c != 0 {
		return c < 0
	}
	if a.index != b.index {
		return a.index > b.index
	}
	return a.seq < b.seq
}

func (h stateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *stateHeap) Push(x any) { *h = append(*h, x.(*state)) }

func (h *stateHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}
