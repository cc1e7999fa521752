package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/page"
)

// SlotOptions control how slot geometry is read.
type SlotOptions struct {
	// Gutter is applied to slots without an explicit gutter, in points.
	Gutter float64
	// ColumnWidth is the nominal column width used to infer the column
	// count of slots that carry none, in points.
	ColumnWidth float64
	// Columns, when positive, is used for slots that carry no column count
	// instead of inferring it.
	Columns int
	// MinSize is the minimum width and height, in points, of an unlabelled
	// item for it to count as a slot when a paged report labels none.
	MinSize float64
}

// SlotOptionsFrom derives slot options from the column configuration.
func SlotOptionsFrom(c config.Column) SlotOptions {
	return SlotOptions{
		Gutter:      c.GutterPt,
		ColumnWidth: page.FromMM(c.ColumnWidthMM),
		Columns:     c.DefaultColumns,
		MinSize:     page.FromMM(c.MinSlotSizeMM),
	}
}

// DefaultSlotOptions matches [config.Default].
func DefaultSlotOptions() SlotOptions {
	return SlotOptionsFrom(config.Default().Column)
}

// ReadSlots decodes a slot inventory from r.
//
// Two formats are accepted. The paged slot report lists the items of each
// page:
//
//	{"pages": [{"page_index": 2, "items": [
//	  {"label": "slot_a", "bounds_page": {"top_pt": 40, "left_pt": 36, "width_pt": 400, "height_pt": 300}}
//	]}]}
//
// Items labelled "slot…" or "root", or whose object style mentions "slot",
// become slots. When no item on any page is labelled that way, every item
// at least MinSize wide and tall is used instead. Bounds may be given in
// points (*_pt) or millimeters (*_mm).
//
// The flat format is a list of slots:
//
//	[{"id": "a", "page": 2, "x_pt": 36, "y_pt": 40, "w_pt": 400, "h_pt": 300,
//	  "role": "text", "columns": 3, "gutter_pt": 12}]
//
// The document is validated against the embedded slots schema first.
func ReadSlots(r io.Reader, opts SlotOptions) ([]page.Slot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSlots, err, "read slots")
	}
	if err := Validate(SchemaSlots, data, errors.ErrCodeInvalidSlots); err != nil {
		return nil, err
	}

	var slots []page.Slot
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var flat []flatSlot
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSlots, err, "decode slot list")
		}
		slots, err = fromFlat(flat, opts)
	} else {
		var rep slotReport
		if err := json.Unmarshal(data, &rep); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSlots, err, "decode slot report")
		}
		slots, err = fromReport(rep, opts)
	}
	if err != nil {
		return nil, err
	}
	return slots, checkUnique(slots)
}

// ImportSlots reads the slot file at path. See [ReadSlots].
func ImportSlots(path string, opts SlotOptions) ([]page.Slot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "slot file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSlots(f, opts)
}

type slotReport struct {
	Document map[string]any `json:"document"`
	Pages    []reportPage   `json:"pages"`
}

type reportPage struct {
	Index int          `json:"page_index"`
	Items []reportItem `json:"items"`
}

type reportItem struct {
	Label        *string  `json:"label"`
	ObjectStyle  *string  `json:"object_style"`
	Role         string   `json:"role"`
	Columns      int      `json:"columns"`
	Gutter       *float64 `json:"gutter_pt"`
	MaxTitleSpan int      `json:"max_title_span"`
	BoundsPage   *bounds  `json:"bounds_page"`
	BoundsSpread *bounds  `json:"bounds_spread"`
}

type bounds struct {
	TopPt    *float64 `json:"top_pt"`
	LeftPt   *float64 `json:"left_pt"`
	WidthPt  *float64 `json:"width_pt"`
	HeightPt *float64 `json:"height_pt"`
	TopMM    *float64 `json:"top_mm"`
	LeftMM   *float64 `json:"left_mm"`
	WidthMM  *float64 `json:"width_mm"`
	HeightMM *float64 `json:"height_mm"`
}

func (b *bounds) rect() (page.Rect, bool) {
	if b == nil {
		return page.Rect{}, false
	}
	top := pick(b.TopPt, b.TopMM)
	left := pick(b.LeftPt, b.LeftMM)
	w := pick(b.WidthPt, b.WidthMM)
	h := pick(b.HeightPt, b.HeightMM)
	r := page.RectXYWH(left, top, w, h)
	return r, !r.Empty()
}

// pick prefers the point value and converts millimeters otherwise.
func pick(pt, mm *float64) float64 {
	switch {
	case pt != nil:
		return *pt
	case mm != nil:
		return page.FromMM(*mm)
	}
	return 0
}

func (it reportItem) label() string {
	if it.Label == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*it.Label))
}

func (it reportItem) style() string {
	if it.ObjectStyle == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*it.ObjectStyle))
}

func (it reportItem) looksLikeSlot() bool {
	l := it.label()
	return strings.HasPrefix(l, "slot") || l == "root" || strings.Contains(it.style(), "slot")
}

var photoWords = regexp.MustCompile(`photo|foto|image|img`)

// role returns the explicit role, or photo for items labelled or styled as
// photos, or text.
func (it reportItem) role() (page.Role, error) {
	if it.Role != "" {
		return page.ParseRole(it.Role)
	}
	if photoWords.MatchString(it.label()) || photoWords.MatchString(it.style()) {
		return page.RolePhoto, nil
	}
	return page.RoleText, nil
}

func fromReport(rep slotReport, opts SlotOptions) ([]page.Slot, error) {
	var labelled, fallback []page.Slot
	for _, p := range rep.Pages {
		for i, it := range p.Items {
			rect, ok := it.BoundsPage.rect()
			if !ok {
				rect, ok = it.BoundsSpread.rect()
			}
			if !ok {
				continue
			}
			role, err := it.role()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSlots, err, "page %d item %d", p.Index, i+1)
			}
			s := page.Slot{
				ID:           fmt.Sprintf("page%d_slot%d", p.Index, i+1),
				Page:         p.Index,
				Rect:         rect,
				Role:         role,
				Columns:      it.Columns,
				MaxTitleSpan: it.MaxTitleSpan,
			}
			s = withColumns(s, it.Gutter, opts)
			if it.looksLikeSlot() {
				labelled = append(labelled, s)
			} else if s.Width() >= opts.MinSize && s.Height() >= opts.MinSize {
				fallback = append(fallback, s)
			}
		}
	}
	if len(labelled) > 0 {
		return labelled, nil
	}
	return fallback, nil
}

type flatSlot struct {
	ID           string          `json:"id"`
	Page         json.RawMessage `json:"page"`
	PageIndex    *int            `json:"page_index"`
	XPt          *float64        `json:"x_pt"`
	YPt          *float64        `json:"y_pt"`
	WPt          *float64        `json:"w_pt"`
	HPt          *float64        `json:"h_pt"`
	WidthPt      *float64        `json:"width_pt"`
	HeightPt     *float64        `json:"height_pt"`
	XMM          *float64        `json:"x_mm"`
	YMM          *float64        `json:"y_mm"`
	WMM          *float64        `json:"w_mm"`
	HMM          *float64        `json:"h_mm"`
	Role         string          `json:"role"`
	Columns      int             `json:"columns"`
	Gutter       *float64        `json:"gutter_pt"`
	MaxTitleSpan int             `json:"max_title_span"`
}

// page resolves the page number: page_index, a numeric page, or the first
// number inside a page name such as "Page 4". Unnumbered slots take their
// position in the list.
func (f flatSlot) page(pos int) int {
	if f.PageIndex != nil {
		return *f.PageIndex
	}
	raw := strings.Trim(string(f.Page), `" `)
	if n, ok := FirstInt(raw); ok {
		return n
	}
	return pos + 1
}

func fromFlat(in []flatSlot, opts SlotOptions) ([]page.Slot, error) {
	out := make([]page.Slot, 0, len(in))
	for i, f := range in {
		id := f.ID
		if id == "" {
			id = "slot_" + strconv.Itoa(i+1)
		}
		w := pick(f.WPt, f.WMM)
		if f.WPt == nil && f.WMM == nil {
			w = pick(f.WidthPt, nil)
		}
		h := pick(f.HPt, f.HMM)
		if f.HPt == nil && f.HMM == nil {
			h = pick(f.HeightPt, nil)
		}
		role, err := page.ParseRole(f.Role)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSlots, err, "slot %q", id)
		}
		s := page.Slot{
			ID:           id,
			Page:         f.page(i),
			Rect:         page.RectXYWH(pick(f.XPt, f.XMM), pick(f.YPt, f.YMM), w, h),
			Role:         role,
			Columns:      f.Columns,
			MaxTitleSpan: f.MaxTitleSpan,
		}
		if s.Rect.Empty() {
			return nil, errors.New(errors.ErrCodeInvalidSlots, "slot %q has no area", id)
		}
		out = append(out, withColumns(s, f.Gutter, opts))
	}
	return out, nil
}

// withColumns fills in the gutter and column count of a text slot from
// opts when the input carries none. The inferred count is how many nominal
// columns plus gutters fit the slot width.
func withColumns(s page.Slot, gutter *float64, opts SlotOptions) page.Slot {
	if gutter != nil {
		s.Gutter = *gutter
	} else {
		s.Gutter = opts.Gutter
	}
	if s.Columns > 0 || !s.IsText() {
		return s
	}
	if opts.Columns > 0 {
		s.Columns = opts.Columns
		return s
	}
	if opts.ColumnWidth > 0 {
		n := math.Floor((s.Width() + s.Gutter) / (opts.ColumnWidth + s.Gutter))
		s.Columns = max(1, int(n))
		return s
	}
	s.Columns = 1
	return s
}

func checkUnique(slots []page.Slot) error {
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		if err := errors.ValidateSlotID(s.ID); err != nil {
			return err
		}
		if seen[s.ID] {
			return errors.New(errors.ErrCodeInvalidSlots, "duplicate slot id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

var firstInt = regexp.MustCompile(`\d+`)

// FirstInt returns the first run of digits in s.
func FirstInt(s string) (int, bool) {
	m := firstInt.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

// Pages returns the distinct pages of slots, ascending.
func Pages(slots []page.Slot) []int {
	seen := map[int]bool{}
	var out []int
	for _, s := range slots {
		if !seen[s.Page] {
			seen[s.Page] = true
			out = append(out, s.Page)
		}
	}
	slices.Sort(out)
	return out
}
