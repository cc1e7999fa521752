package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/slotfit/pkg/cache"
	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/observability"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/report"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Measurer != DefaultMeasurer {
		t.Errorf("Measurer = %q, want %q", opts.Measurer, DefaultMeasurer)
	}
	if opts.Config.Solver.Strategy != config.StrategyBestFirst {
		t.Errorf("Strategy = %q", opts.Config.Solver.Strategy)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"measurer", Options{Measurer: "ruler"}, errors.ErrCodeInvalidInput},
		{"format", Options{Formats: []string{"pdf"}}, errors.ErrCodeInvalidFormat},
		{"strategy", Options{Config: withStrategy("dfs")}, errors.ErrCodeInvalidStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func withStrategy(name string) config.Config {
	cfg := config.Default()
	cfg.Solver.Strategy = name
	return cfg
}

func testSlots() []page.Slot {
	return []page.Slot{
		{ID: "a", Page: 1, Rect: page.RectXYWH(20, 20, 400, 300), Role: page.RoleText, Columns: 3, Gutter: 12},
		{ID: "b", Page: 1, Rect: page.RectXYWH(20, 340, 400, 200), Role: page.RoleText, Columns: 3, Gutter: 12},
		{ID: "c", Page: 2, Rect: page.RectXYWH(20, 20, 260, 300), Role: page.RoleText, Columns: 2, Gutter: 12},
		{ID: "d", Page: 3, Rect: page.RectXYWH(20, 20, 260, 300), Role: page.RoleText, Columns: 2, Gutter: 12},
	}
}

func testNotes() []page.Note {
	body := strings.Repeat("The council met on Tuesday to discuss the harbour plan. ", 6)
	return []page.Note{
		{ID: "n1", Page: 1, Title: "Council approves harbour plan", Body: body},
		{ID: "n2", Page: 1, Title: "Market reopens", Body: body[:120]},
		{ID: "n3", Page: 2, Title: "Weather", Body: "Sunny with light winds."},
		{ID: "n9", Page: 9, Title: "Lost page", Body: "Nowhere to go."},
	}
}

func testOptions() Options {
	return Options{Config: config.Default(), Measurer: MeasurerCapacity}
}

func rowFor(rows []report.Row, noteID string) (report.Row, bool) {
	for _, r := range rows {
		if r.NoteID == noteID {
			return r, true
		}
	}
	return report.Row{}, false
}

func TestRunRows(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Run(context.Background(), testSlots(), testNotes(), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	if got, want := len(res.Pages), 4; got != want {
		t.Fatalf("inventories = %d, want %d", got, want)
	}
	if got, want := len(res.Report.Rows), 5; got != want {
		t.Fatalf("rows = %d, want %d (4 notes + 1 page notice)", got, want)
	}

	for _, id := range []string{"n1", "n2", "n3"} {
		row, ok := rowFor(res.Report.Rows, id)
		if !ok {
			t.Fatalf("no row for %s", id)
		}
		if len(row.Slots) == 0 || row.HasWarning(page.WarnSlotMissing) {
			t.Errorf("%s not placed: %+v", id, row)
		}
	}

	lost, _ := rowFor(res.Report.Rows, "n9")
	if !lost.HasWarning(page.WarnNoSlotAvailable) || !lost.HasWarning(page.WarnSlotMissing) {
		t.Errorf("n9 warnings = %v", lost.Warnings)
	}

	p3, ok := res.Page("3")
	if !ok || p3.Plan != nil {
		t.Fatalf("page 3 = %+v", p3)
	}
	if len(p3.Rows) != 1 || !p3.Rows[0].HasWarning(page.WarnNoDocxFound) || p3.Rows[0].Page != 3 {
		t.Errorf("page 3 rows = %+v", p3.Rows)
	}

	if res.Success() {
		t.Error("run with an unplaced note should not succeed")
	}
	if res.Stats.Notes != 4 {
		t.Errorf("Stats.Notes = %d", res.Stats.Notes)
	}
}

func TestRunDistinctSlots(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Run(context.Background(), testSlots(), testNotes(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]string{}
	for _, row := range res.Report.Rows {
		for _, id := range row.Slots {
			if prev, ok := seen[id]; ok {
				t.Errorf("slot %s used by %s and %s", id, prev, row.NoteID)
			}
			seen[id] = row.NoteID
		}
	}
}

func TestRunPlanCache(t *testing.T) {
	c := cache.NewMemoryCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Run(ctx, testSlots(), testNotes(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.PlanHits != 0 || first.CacheInfo.PlanMisses != 3 {
		t.Fatalf("first run cache = %+v", first.CacheInfo)
	}

	second, err := r.Run(ctx, testSlots(), testNotes(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheInfo.PlanHits != 3 {
		t.Fatalf("second run cache = %+v", second.CacheInfo)
	}
	if first.Stats.Overflow != second.Stats.Overflow {
		t.Errorf("overflow %d vs %d", first.Stats.Overflow, second.Stats.Overflow)
	}
	for i := range first.Report.Rows {
		a, b := first.Report.Rows[i], second.Report.Rows[i]
		if a.NoteID != b.NoteID || strings.Join(a.Slots, ",") != strings.Join(b.Slots, ",") {
			t.Errorf("row %d: %+v vs %+v", i, a, b)
		}
	}

	opts := testOptions()
	opts.Refresh = true
	third, err := r.Run(ctx, testSlots(), testNotes(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.PlanHits != 0 {
		t.Errorf("refresh hit the cache: %+v", third.CacheInfo)
	}
}

func TestPlanKey(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	inv, err := page.NewInventory([]int{1}, testSlots()[:2])
	if err != nil {
		t.Fatal(err)
	}
	notes := testNotes()[:2]

	base := testOptions()
	key := r.PlanKey(inv, notes, base)
	if key != r.PlanKey(inv, notes, testOptions()) {
		t.Error("plan key is not stable")
	}

	beam := testOptions()
	beam.Config.Solver.Strategy = config.StrategyBeam
	if r.PlanKey(inv, notes, beam) == key {
		t.Error("strategy does not change the key")
	}

	typeset := testOptions()
	typeset.Measurer = MeasurerTypeset
	if r.PlanKey(inv, notes, typeset) == key {
		t.Error("measurer does not change the key")
	}

	edited := testNotes()[:2]
	edited[1].Body += " Updated."
	if r.PlanKey(inv, edited, base) == key {
		t.Error("note text does not change the key")
	}

	photo := testOptions()
	photo.Config.Photo.Strict = !photo.Config.Photo.Strict
	if r.PlanKey(inv, notes, photo) != key {
		t.Error("photo settings should not change the plan key")
	}
}

func TestRunSpread(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := testOptions()
	opts.Spreads = [][]int{{1, 2}}
	res, err := r.Run(context.Background(), testSlots(), testNotes(), opts)
	if err != nil {
		t.Fatal(err)
	}
	spread, ok := res.Page("1-2")
	if !ok {
		t.Fatalf("no spread inventory in %d pages", len(res.Pages))
	}
	if spread.Plan == nil || len(spread.Plan.Notes) != 3 {
		t.Fatalf("spread plan = %+v", spread.Plan)
	}
}

func TestRunArtifacts(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := testOptions()
	opts.Formats = []string{FormatSVG}
	res, err := r.Run(context.Background(), testSlots(), testNotes()[:3], opts)
	if err != nil {
		t.Fatal(err)
	}
	p1, _ := res.Page("1")
	svg := p1.Artifacts[FormatSVG]
	if !bytes.HasPrefix(svg, []byte("<svg")) {
		t.Fatalf("svg artifact = %.40q", svg)
	}
	if !bytes.Contains(svg, []byte("n1")) {
		t.Error("svg does not label the placed note")
	}
	if _, ok := p1.Artifacts[FormatPNG]; ok {
		t.Error("png rendered without being requested")
	}
}

func TestRunHooks(t *testing.T) {
	counters := observability.NewCounters()
	observability.SetPipelineHooks(counters)
	observability.SetCacheHooks(counters)
	defer observability.Reset()

	r := NewRunner(cache.NewMemoryCache(), nil, nil)
	ctx := context.Background()
	for range 2 {
		if _, err := r.Run(ctx, testSlots(), testNotes(), testOptions()); err != nil {
			t.Fatal(err)
		}
	}

	s := counters.Snapshot()
	if s.Pages != 3 {
		t.Errorf("solved pages = %d, want 3 (second run cached)", s.Pages)
	}
	if s.CacheHits["plan"] != 3 || s.CacheMisses["plan"] != 3 {
		t.Errorf("plan hits/misses = %d/%d", s.CacheHits["plan"], s.CacheMisses["plan"])
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(nil, nil, nil)
	res, err := r.Run(ctx, testSlots(), testNotes(), testOptions())
	if err != context.Canceled {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if res == nil || len(res.Pages) != 0 {
		t.Errorf("result = %+v", res)
	}
}
