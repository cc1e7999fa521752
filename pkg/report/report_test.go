package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/solver"
	"github.com/matzehuels/slotfit/pkg/style"
)

func sampleResult(t *testing.T) (*page.Inventory, *solver.Result) {
	t.Helper()
	inv, err := page.NewInventory([]int{2}, []page.Slot{
		{ID: "s1", Page: 2, Rect: page.RectXYWH(0, 0, 300, 200), Role: page.RoleText, Columns: 2, Gutter: 12},
	})
	if err != nil {
		t.Fatal(err)
	}
	placed := page.Note{ID: "n1", Page: 2, Title: "Title", Body: "Body"}
	missing := page.Note{ID: "n2", Page: 2, Body: "Orphan"}
	res := &solver.Result{
		Page: "2",
		Notes: []solver.NoteResult{
			{
				Note: placed,
				Placement: solver.Placement{
					NoteID: "n1", Kind: solver.KindCombined, BodySlot: "s1", TitleSlot: "s1",
					Profile: style.Profile{Body: 9.5, Title: 25}, Span: 2, Overflow: 3,
				},
			},
			{
				Note: missing.WithWarnings(page.WarnSlotMissing, page.WarnNoSlotAvailable),
				Placement: solver.Placement{
					NoteID: "n2", Kind: solver.KindMissing, Overflow: 6, Hard: true,
					Flags: []string{page.WarnSlotMissing, page.WarnNoSlotAvailable},
				},
			},
		},
	}
	return inv, res
}

func TestRows(t *testing.T) {
	inv, res := sampleResult(t)
	rows := Rows(inv, res)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	r := rows[0]
	if r.NoteID != "n1" || r.Page != 2 || r.PageKey != "2" || r.Kind != "combined" {
		t.Errorf("row = %+v", r)
	}
	if len(r.Slots) != 1 || r.Slots[0] != "s1" {
		t.Errorf("Slots = %v, want [s1]", r.Slots)
	}
	if r.ColumnWidth != 144 {
		t.Errorf("ColumnWidth = %v, want 144", r.ColumnWidth)
	}
	if r.BodySize != 9.5 || r.TitleSize != 25 || r.Span != 2 || r.Overflow != 3 {
		t.Errorf("row = %+v", r)
	}

	m := rows[1]
	if !m.HasWarning(page.WarnNoSlotAvailable) || m.BodySize != 0 || len(m.Slots) != 0 {
		t.Errorf("missing row = %+v", m)
	}
}

func TestRowWarnDedup(t *testing.T) {
	var r Row
	r.Warn(page.WarnOverset)
	r.Warn(page.WarnOverset)
	r.Fail("host: frame rejected")
	if len(r.Warnings) != 1 || len(r.Errors) != 1 {
		t.Errorf("row = %+v", r)
	}
}

func TestSummarize(t *testing.T) {
	inv, res := sampleResult(t)
	rep := New(config.StrategyBestFirst)
	rep.Rows = append(Rows(inv, res), PageRow(3, "3", page.WarnNoDocxFound))
	rep.Rows[0].Fail("boom")

	s := rep.Summarize()
	if s.Pages != 2 || s.Notes != 2 || s.Placed != 1 || s.Missing != 1 || s.Overflow != 9 || s.Errors != 1 {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.RunID == "" || s.RunID != rep.RunID {
		t.Errorf("RunID = %q", s.RunID)
	}
}

func TestWriteCSV(t *testing.T) {
	inv, res := sampleResult(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Rows(inv, res)); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("written CSV does not parse: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want header + 2", len(recs))
	}
	if strings.Join(recs[0], ",") != strings.Join(CSVHeader, ",") {
		t.Errorf("header = %v", recs[0])
	}
	col := func(name string) int {
		for i, h := range CSVHeader {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}
	if got := recs[1][col("column_width_pt")]; got != "144.00" {
		t.Errorf("column_width_pt = %q", got)
	}
	if got := recs[2][col("warnings")]; got != "slot_missing;no_slot_available" {
		t.Errorf("warnings = %q", got)
	}
	if got := recs[2][col("body_pt")]; got != "" {
		t.Errorf("body_pt for a missing note = %q, want empty", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	inv, res := sampleResult(t)
	rep := New("beam")
	rep.Rows = Rows(inv, res)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, rep); err != nil {
		t.Fatal(err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if got.RunID != rep.RunID || len(got.Rows) != 2 || got.Rows[1].Warnings[1] != page.WarnNoSlotAvailable {
		t.Errorf("ReadJSON() = %+v", got)
	}

	if _, err := ReadJSON(strings.NewReader("{not json")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadJSON(bad) error = %v, want INVALID_FORMAT", err)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	older := New("greedy")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := New("beam")
	newer.Rows = []Row{{Page: 1, PageKey: "1", NoteID: "a", Overflow: 2}}

	for _, rep := range []*Report{older, newer} {
		if err := store.Save(ctx, rep); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	got, err := store.Load(ctx, newer.RunID)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Strategy != "beam" || len(got.Rows) != 1 {
		t.Errorf("Load() = %+v", got)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].RunID != newer.RunID {
		t.Errorf("List() = %+v, want newest first", list)
	}

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}
	if _, err := store.Load(ctx, "../escape"); err == nil {
		t.Error("Load(../escape) succeeded")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Store{Backend: config.BackendNone})
	if err != nil || s != nil {
		t.Errorf("Open(none) = %v, %v", s, err)
	}

	s, err = Open(ctx, config.Store{Backend: config.BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(file) error: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open(file) = %T", s)
	}

	if _, err := Open(ctx, config.Store{Backend: "sqlite"}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Open(sqlite) error = %v", err)
	}
	if _, err := Open(ctx, config.Store{Backend: config.BackendMongo, MongoURI: "http://example.com"}); err == nil {
		t.Error("Open(mongo) with an http URI succeeded")
	}
}
