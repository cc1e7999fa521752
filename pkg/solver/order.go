package solver

import (
	"cmp"
	"slices"

	"github.com/matzehuels/slotfit/pkg/page"
)

// OrderNotes returns the notes sorted by difficulty: most body characters
// first, then most title characters, then id. The input is not modified.
func OrderNotes(notes []page.Note) []page.Note {
	out := make([]page.Note, len(notes))
	for i, j := range difficultyOrder(notes) {
		out[i] = notes[j]
	}
	return out
}

// difficultyOrder returns the indices of notes in difficulty order.
func difficultyOrder(notes []page.Note) []int {
	idx := make([]int, len(notes))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		a, b := notes[i], notes[j]
		if c := cmp.Compare(b.BodyChars(), a.BodyChars()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TitleChars(), a.TitleChars()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return idx
}
