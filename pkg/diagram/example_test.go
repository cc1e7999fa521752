package diagram_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/slotfit/pkg/diagram"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/solver"
)

func ExampleToDOT() {
	inv, _ := page.NewInventory([]int{1}, []page.Slot{
		{ID: "lead", Page: 1, Rect: page.RectXYWH(0, 0, 300, 200), Role: page.RoleText},
	})
	res := &solver.Result{Notes: []solver.NoteResult{{
		Note:      page.Note{ID: "n1", Page: 1},
		Placement: solver.Placement{NoteID: "n1", Kind: solver.KindCombined, BodySlot: "lead", Span: 1},
	}}}

	dot := diagram.ToDOT(inv, res, diagram.Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "note:n1" -> "slot:lead" [label="combined span 1"];
}
