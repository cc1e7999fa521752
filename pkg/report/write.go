package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/slotfit/pkg/errors"
)

// CSVHeader is the column order written by [WriteCSV].
var CSVHeader = []string{
	"page", "page_key", "note_id", "kind", "slots", "span",
	"column_width_pt", "height_pt", "body_pt", "title_pt",
	"overflow", "placed_overflow", "photos", "warnings", "errors",
}

// WriteCSV writes rows with a header line. List fields are joined with ";".
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Page),
			r.PageKey,
			r.NoteID,
			r.Kind,
			strings.Join(r.Slots, ";"),
			intField(r.Span),
			floatField(r.ColumnWidth),
			floatField(r.Height),
			floatField(r.BodySize),
			floatField(r.TitleSize),
			strconv.Itoa(r.Overflow),
			strconv.Itoa(r.PlacedOverflow),
			strings.Join(r.Photos, ";"),
			strings.Join(r.Warnings, ";"),
			strings.Join(r.Errors, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func intField(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func floatField(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// ReadJSON reads a report written by [WriteJSON].
func ReadJSON(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid report JSON")
	}
	return &rep, nil
}
