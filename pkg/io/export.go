package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/slotfit/pkg/page"
)

// WriteSlots encodes slots in the flat format, in points. The output can be
// read back with [ReadSlots].
func WriteSlots(w io.Writer, slots []page.Slot) error {
	out := make([]flatOut, len(slots))
	for i, s := range slots {
		out[i] = flatOut{
			ID:           s.ID,
			Page:         s.Page,
			X:            s.Rect.Left,
			Y:            s.Rect.Top,
			W:            s.Width(),
			H:            s.Height(),
			Role:         s.Role.String(),
			Columns:      s.Columns,
			Gutter:       s.Gutter,
			MaxTitleSpan: s.MaxTitleSpan,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

type flatOut struct {
	ID           string  `json:"id"`
	Page         int     `json:"page"`
	X            float64 `json:"x_pt"`
	Y            float64 `json:"y_pt"`
	W            float64 `json:"w_pt"`
	H            float64 `json:"h_pt"`
	Role         string  `json:"role"`
	Columns      int     `json:"columns,omitempty"`
	Gutter       float64 `json:"gutter_pt"`
	MaxTitleSpan int     `json:"max_title_span,omitempty"`
}

// ExportSlots writes slots to a JSON file at path.
func ExportSlots(slots []page.Slot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSlots(f, slots)
}

// WriteNotes encodes notes in the paged JSON format read by
// [ReadNotesJSON].
func WriteNotes(w io.Writer, notes []page.Note) error {
	out := notesFile{Pages: map[string]notesPage{}}
	for _, n := range notes {
		key := strconv.Itoa(n.Page)
		p := out.Pages[key]
		p.Notes = append(p.Notes, noteJSON{ID: n.ID, Title: n.Title, Body: n.Body, Images: n.Images})
		out.Pages[key] = p
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
