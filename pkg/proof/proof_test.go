package proof

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/realize"
	"github.com/matzehuels/slotfit/pkg/solver"
	"github.com/matzehuels/slotfit/pkg/style"
)

func testInventory(t *testing.T) *page.Inventory {
	t.Helper()
	inv, err := page.NewInventory([]int{1}, []page.Slot{
		{ID: "text", Page: 1, Rect: page.RectXYWH(10, 10, 300, 200), Role: page.RoleText, Columns: 2, Gutter: 12},
		{ID: "photo", Page: 1, Rect: page.RectXYWH(320, 10, 288, 150), Role: page.RolePhoto},
	})
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

func capacity() measure.Measurer {
	cfg := config.Default()
	return measure.NewCapacity(cfg.Body, cfg.Title)
}

func frame(body string) realize.Frame {
	return realize.Frame{
		ID: "n1#combined", NoteID: "n1", SlotID: "text", Page: 1, Part: measure.PartCombined,
		Rect: page.RectXYWH(10, 10, 300, 200), Columns: 2, Gutter: 12, Span: 2,
		Title: "Council <approves> budget", Body: body,
		Profile: style.Profile{Body: 9.5, Title: 25},
	}
}

func TestPlaceFrame(t *testing.T) {
	ctx := context.Background()
	doc := New(testInventory(t), capacity())

	over, err := doc.PlaceFrame(ctx, frame("short body"))
	if err != nil {
		t.Fatalf("PlaceFrame() error: %v", err)
	}
	if over != 0 {
		t.Errorf("overflow = %d, want 0", over)
	}

	long := strings.Repeat("word ", 2000)
	over, err = doc.PlaceFrame(ctx, frame(long))
	if err != nil {
		t.Fatal(err)
	}
	if over == 0 {
		t.Error("overflow = 0 for a body that cannot fit")
	}
	if got := doc.Frames(); len(got) != 1 || got[0].Overflow != over {
		t.Errorf("Frames() = %+v, want the replaced frame", got)
	}
}

func TestPlaceFrameErrors(t *testing.T) {
	ctx := context.Background()
	doc := New(testInventory(t), capacity())

	tests := []struct {
		name   string
		mutate func(*realize.Frame)
	}{
		{"unknown slot", func(f *realize.Frame) { f.SlotID = "nope" }},
		{"photo slot", func(f *realize.Frame) { f.SlotID = "photo" }},
		{"empty rect", func(f *realize.Frame) { f.Rect = page.RectXYWH(0, 0, 0, 10) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frame("body")
			tt.mutate(&f)
			if _, err := doc.PlaceFrame(ctx, f); !errors.Is(err, errors.ErrCodeHost) {
				t.Errorf("PlaceFrame() error = %v, want HOST_FAILED", err)
			}
		})
	}

	if err := doc.FlagFrame(ctx, "ghost", realize.ReasonOverset); err == nil {
		t.Error("FlagFrame(ghost) succeeded")
	}
	if err := doc.PlaceImage(ctx, page.Slot{ID: "text"}, "a.jpg"); err == nil {
		t.Error("PlaceImage(text slot) succeeded")
	}
}

func TestSVGStrokesOverset(t *testing.T) {
	ctx := context.Background()
	doc := New(testInventory(t), capacity())
	if _, err := doc.PlaceFrame(ctx, frame("body")); err != nil {
		t.Fatal(err)
	}

	clean := string(doc.SVG(WithoutFonts()))
	if strings.Contains(clean, realize.OversetStroke) {
		t.Error("unflagged frame drawn with the overset stroke")
	}
	if !strings.Contains(clean, "Council &lt;approves&gt; budget") {
		t.Error("title not escaped into the proof")
	}
	if strings.Contains(clean, "@font-face") {
		t.Error("WithoutFonts() still embeds fonts")
	}

	if err := doc.FlagFrame(ctx, "n1#combined", realize.ReasonOverset); err != nil {
		t.Fatal(err)
	}
	if err := doc.PlaceImage(ctx, page.Slot{ID: "photo"}, "/tmp/photos/harbour.jpg"); err != nil {
		t.Fatal(err)
	}
	svg := string(doc.SVG())
	if !strings.Contains(svg, `stroke="`+realize.OversetStroke+`"`) {
		t.Error("flagged frame not stroked red")
	}
	if !strings.Contains(svg, "@font-face") || !strings.Contains(svg, "harbour.jpg") {
		t.Error("SVG missing fonts or image label")
	}
}

func TestPNG(t *testing.T) {
	ctx := context.Background()
	doc := New(testInventory(t), capacity())
	if _, err := doc.PlaceFrame(ctx, frame("body")); err != nil {
		t.Fatal(err)
	}
	data, err := doc.PNG(1)
	if err != nil {
		t.Fatalf("PNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("PNG() output does not decode: %v", err)
	}
	// Slots reach x=608, y=210; plus a margin on both sides.
	if b := img.Bounds(); b.Dx() != 644 || b.Dy() != 246 {
		t.Errorf("bounds = %v, want 644x246", b)
	}
}

func TestColumnGuides(t *testing.T) {
	f := PlacedFrame{Frame: realize.Frame{Rect: page.RectXYWH(0, 0, 312, 100), Columns: 3, Gutter: 12}}
	got := columnGuides(f)
	want := []float64{96, 108, 204, 216}
	if len(got) != len(want) {
		t.Fatalf("columnGuides() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("columnGuides()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDocumentAsRealizeHost(t *testing.T) {
	inv := testInventory(t)
	doc := New(inv, capacity())
	res := &solver.Result{
		Page: "1",
		Notes: []solver.NoteResult{{
			Note: page.Note{ID: "n1", Page: 1, Title: "Title", Body: strings.Repeat("word ", 3000), Images: []string{"a.jpg"}},
			Placement: solver.Placement{
				NoteID: "n1", Kind: solver.KindCombined, BodySlot: "text", TitleSlot: "text",
				Profile: style.Profile{Body: 9.5, Title: 25}, Span: 2, Overflow: 9000, Hard: true,
			},
		}},
	}

	rows, err := realize.New(doc, realize.Options{Lock: doc.Lock(), Photo: page.PhotoSpec{Width: 288}}).
		Realize(context.Background(), inv, res)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].PlacedOverflow == 0 || len(rows[0].Photos) != 1 {
		t.Errorf("row = %+v", rows[0])
	}
	frames := doc.Frames()
	if len(frames) != 1 || frames[0].Flag != realize.ReasonOversetHard {
		t.Errorf("frames = %+v", frames)
	}
	if len(doc.Images()) != 1 {
		t.Errorf("images = %+v", doc.Images())
	}
}
