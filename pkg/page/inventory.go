package page

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/slotfit/pkg/errors"
)

// Inventory is the working set of slots for one solve: a page or a spread.
// It is immutable after construction.
type Inventory struct {
	key   string
	pages []int
	slots []Slot
	index map[string]int
}

// NewInventory builds an inventory for the given pages. Slots not on one of
// the pages are rejected, as are duplicate slot identifiers. Slots are kept
// in reading order (page, top, left, id).
func NewInventory(pages []int, slots []Slot) (*Inventory, error) {
	ps := slices.Clone(pages)
	slices.Sort(ps)
	ps = slices.Compact(ps)
	if len(ps) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSlots, "inventory needs at least one page")
	}

	sorted := slices.Clone(slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Rect.Top != b.Rect.Top {
			return a.Rect.Top < b.Rect.Top
		}
		if a.Rect.Left != b.Rect.Left {
			return a.Rect.Left < b.Rect.Left
		}
		return a.ID < b.ID
	})

	index := make(map[string]int, len(sorted))
	for i, s := range sorted {
		if err := errors.ValidateSlotID(s.ID); err != nil {
			return nil, err
		}
		if !slices.Contains(ps, s.Page) {
			return nil, errors.New(errors.ErrCodeInvalidSlots, "slot %q is on page %d, outside %v", s.ID, s.Page, ps)
		}
		if _, dup := index[s.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidSlots, "duplicate slot id %q", s.ID)
		}
		index[s.ID] = i
	}

	return &Inventory{key: PageKey(ps), pages: ps, slots: sorted, index: index}, nil
}

// PageKey formats a page list as "2" or "2-3".
func PageKey(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, "-")
}

// Key returns the page key ("2" for a page, "2-3" for a spread).
func (inv *Inventory) Key() string { return inv.key }

// Pages returns the pages covered, ascending.
func (inv *Inventory) Pages() []int { return slices.Clone(inv.pages) }

// Covers reports whether page p belongs to this inventory.
func (inv *Inventory) Covers(p int) bool { return slices.Contains(inv.pages, p) }

// Len returns the number of slots.
func (inv *Inventory) Len() int { return len(inv.slots) }

// Slots returns all slots in reading order.
func (inv *Inventory) Slots() []Slot { return slices.Clone(inv.slots) }

// Slot looks up a slot by id.
func (inv *Inventory) Slot(id string) (Slot, bool) {
	i, ok := inv.index[id]
	if !ok {
		return Slot{}, false
	}
	return inv.slots[i], true
}

// TextSlots returns the text-capable slots in reading order.
func (inv *Inventory) TextSlots() []Slot {
	return inv.filter(Slot.IsText)
}

// PhotoSlots returns the photo-capable slots in reading order.
func (inv *Inventory) PhotoSlots() []Slot {
	return inv.filter(Slot.IsPhoto)
}

// PhotoFits returns the photo slots that satisfy spec.
func (inv *Inventory) PhotoFits(spec PhotoSpec) []Slot {
	return inv.filter(func(s Slot) bool { return s.FitsPhoto(spec) })
}

func (inv *Inventory) filter(keep func(Slot) bool) []Slot {
	var out []Slot
	for _, s := range inv.slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// GeometryHash identifies the slot geometry of this inventory. Two
// inventories with the same hash lay text out identically.
func (inv *Inventory) GeometryHash() string {
	type geom struct {
		ID      string
		Page    int
		Rect    Rect
		Role    Role
		Columns int
		Gutter  float64
		Span    int
	}
	gs := make([]geom, len(inv.slots))
	for i, s := range inv.slots {
		gs[i] = geom{s.ID, s.Page, s.Rect.Round(), s.Role, s.ColumnCount(), s.Gutter, s.SpanCap()}
	}
	data, _ := json.Marshal(gs)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Partition groups slots into inventories: one per spread listed in spreads,
// and one per remaining page found in slots or in extraPages (pages that have
// notes but possibly no slots). Inventories are ordered by first page.
func Partition(slots []Slot, extraPages []int, spreads [][]int) ([]*Inventory, error) {
	byPage := make(map[int][]Slot)
	pageSet := make(map[int]bool)
	for _, s := range slots {
		byPage[s.Page] = append(byPage[s.Page], s)
		pageSet[s.Page] = true
	}
	for _, p := range extraPages {
		pageSet[p] = true
	}

	inSpread := make(map[int]bool)
	var groups [][]int
	for _, sp := range spreads {
		if len(sp) == 0 {
			continue
		}
		for _, p := range sp {
			if inSpread[p] {
				return nil, errors.New(errors.ErrCodeInvalidInput, "page %d is in more than one spread", p)
			}
			inSpread[p] = true
		}
		groups = append(groups, slices.Clone(sp))
	}
	for p := range pageSet {
		if !inSpread[p] {
			groups = append(groups, []int{p})
		}
	}
	for _, g := range groups {
		slices.Sort(g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	out := make([]*Inventory, 0, len(groups))
	for _, g := range groups {
		var ss []Slot
		for _, p := range g {
			ss = append(ss, byPage[p]...)
		}
		inv, err := NewInventory(g, ss)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}
