package io

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/matzehuels/slotfit/pkg/page"
)

// PageSummary describes the slots of one page.
type PageSummary struct {
	Page       int     `json:"page"`
	Slots      int     `json:"slots"`
	Text       int     `json:"text"`
	Photo      int     `json:"photo"`
	PhotoFits  int     `json:"photo_fits"`
	AreaCM2    float64 `json:"area_cm2"`
	AverageCM2 float64 `json:"average_cm2"`
	Columns    int     `json:"columns"`
}

// cm2PerPt2 converts square points to square centimeters.
const cm2PerPt2 = (page.MMPerPoint / 10) * (page.MMPerPoint / 10)

// Summarize counts slots per page. Slots smaller than minAreaCM2 are
// skipped. PhotoFits counts the slots satisfying spec.
func Summarize(slots []page.Slot, spec page.PhotoSpec, minAreaCM2 float64) []PageSummary {
	byPage := map[int]*PageSummary{}
	for _, p := range Pages(slots) {
		byPage[p] = &PageSummary{Page: p}
	}
	for _, s := range slots {
		area := s.Rect.Area() * cm2PerPt2
		if area < minAreaCM2 {
			continue
		}
		ps := byPage[s.Page]
		ps.Slots++
		ps.AreaCM2 += area
		if s.IsText() {
			ps.Text++
			ps.Columns += s.ColumnCount()
		}
		if s.IsPhoto() {
			ps.Photo++
		}
		if s.FitsPhoto(spec) {
			ps.PhotoFits++
		}
	}

	out := make([]PageSummary, 0, len(byPage))
	for _, p := range Pages(slots) {
		ps := *byPage[p]
		if ps.Slots > 0 {
			ps.AverageCM2 = ps.AreaCM2 / float64(ps.Slots)
		}
		out = append(out, ps)
	}
	return out
}

// SummaryCSVHeader is the column order written by [WriteSummaryCSV].
var SummaryCSVHeader = []string{"page", "slots", "text", "photo", "photo_fits", "columns", "total_area_cm2", "average_area_cm2"}

// WriteSummaryCSV writes page summaries with a header line.
func WriteSummaryCSV(w io.Writer, sums []PageSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryCSVHeader); err != nil {
		return err
	}
	for _, s := range sums {
		rec := []string{
			strconv.Itoa(s.Page),
			strconv.Itoa(s.Slots),
			strconv.Itoa(s.Text),
			strconv.Itoa(s.Photo),
			strconv.Itoa(s.PhotoFits),
			strconv.Itoa(s.Columns),
			strconv.FormatFloat(s.AreaCM2, 'f', 2, 64),
			strconv.FormatFloat(s.AverageCM2, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
