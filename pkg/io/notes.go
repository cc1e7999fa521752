package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/page"
)

// NoteCSVHeader lists the columns [ReadNotesCSV] understands. Only page and
// one of title or body are required.
var NoteCSVHeader = []string{"page", "note_id", "title", "body", "images"}

type notesFile struct {
	Pages map[string]notesPage `json:"pages"`
}

type notesPage struct {
	Images []string   `json:"images,omitempty"`
	Notes  []noteJSON `json:"notes"`
}

type noteJSON struct {
	ID     string   `json:"id,omitempty"`
	Title  string   `json:"title,omitempty"`
	Body   string   `json:"body,omitempty"`
	Images []string `json:"images,omitempty"`
}

// ReadNotesJSON decodes notes grouped by page:
//
//	{"pages": {"4": {"notes": [{"id": "n1", "title": "…", "body": "…", "images": ["a.jpg"]}]}}}
//
// Page keys are parsed by their first number, so "Page 04" is page 4.
// Images listed on a page rather than on a note go, one each, to the page's
// notes without images, in order. Notes without an id are numbered
// "p<page>-n<i>". The result is ordered by page, then by position.
func ReadNotesJSON(r io.Reader) ([]page.Note, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNotes, err, "read notes")
	}
	if err := Validate(SchemaNotes, data, errors.ErrCodeInvalidNotes); err != nil {
		return nil, err
	}
	var nf notesFile
	if err := json.Unmarshal(data, &nf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNotes, err, "decode notes")
	}

	keys := make([]string, 0, len(nf.Pages))
	for k := range nf.Pages {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []page.Note
	for _, key := range keys {
		pageNo, ok := FirstInt(key)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidNotes, "page key %q has no page number", key)
		}
		p := nf.Pages[key]
		notes := make([]page.Note, len(p.Notes))
		for i, n := range p.Notes {
			notes[i] = page.Note{ID: n.ID, Page: pageNo, Title: n.Title, Body: n.Body, Images: n.Images}
		}
		out = append(out, distributeImages(notes, p.Images)...)
	}
	slices.SortStableFunc(out, func(a, b page.Note) int { return a.Page - b.Page })
	return finishNotes(out)
}

// ReadNotesCSV decodes notes from CSV with a header row naming at least the
// page column and one of title or body. Images are separated by ";".
func ReadNotesCSV(r io.Reader) ([]page.Note, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidNotes, err, "read notes header")
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col["page"]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidNotes, "notes CSV has no page column")
	}
	_, hasTitle := col["title"]
	_, hasBody := col["body"]
	if !hasTitle && !hasBody {
		return nil, errors.New(errors.ErrCodeInvalidNotes, "notes CSV needs a title or body column")
	}

	var out []page.Note
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidNotes, err, "notes CSV line %d", line)
		}
		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		pageNo, ok := FirstInt(field("page"))
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidNotes, "notes CSV line %d: no page number in %q", line, field("page"))
		}
		var images []string
		for _, img := range strings.Split(field("images"), ";") {
			if img = strings.TrimSpace(img); img != "" {
				images = append(images, img)
			}
		}
		out = append(out, page.Note{
			ID:     strings.TrimSpace(field("note_id")),
			Page:   pageNo,
			Title:  field("title"),
			Body:   field("body"),
			Images: images,
		})
	}
	slices.SortStableFunc(out, func(a, b page.Note) int { return a.Page - b.Page })
	return finishNotes(out)
}

// ImportNotes reads notes from path, choosing the format by extension
// (.json or .csv).
func ImportNotes(path string) ([]page.Note, error) {
	var read func(io.Reader) ([]page.Note, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		read = ReadNotesJSON
	case ".csv":
		read = ReadNotesCSV
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported notes format %q (use .json or .csv)", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "notes file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}

func distributeImages(notes []page.Note, images []string) []page.Note {
	for i := range notes {
		if len(images) == 0 {
			break
		}
		if len(notes[i].Images) == 0 {
			notes[i].Images = []string{images[0]}
			images = images[1:]
		}
	}
	return notes
}

// finishNotes normalises text, assigns missing ids and rejects invalid or
// duplicate ids and image paths.
func finishNotes(notes []page.Note) ([]page.Note, error) {
	seen := make(map[string]bool, len(notes))
	pos := map[int]int{}
	for i, n := range notes {
		pos[n.Page]++
		n = n.Normalize()
		if n.ID == "" {
			n.ID = fmt.Sprintf("p%d-n%d", n.Page, pos[n.Page])
		}
		if err := errors.ValidateNoteID(n.ID); err != nil {
			return nil, err
		}
		if seen[n.ID] {
			return nil, errors.New(errors.ErrCodeInvalidNotes, "duplicate note id %q", n.ID)
		}
		seen[n.ID] = true
		for _, img := range n.Images {
			if err := errors.ValidatePath(img); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidNotes, err, "note %s image %q", n.ID, img)
			}
		}
		notes[i] = n
	}
	return notes, nil
}

// NotePages returns the distinct pages of notes, ascending.
func NotePages(notes []page.Note) []int {
	var out []int
	for _, n := range notes {
		if !slices.Contains(out, n.Page) {
			out = append(out, n.Page)
		}
	}
	slices.Sort(out)
	return out
}

// GroupNotes groups notes by the inventory that covers their page, keyed
// by inventory key. Notes on pages no inventory covers are returned
// separately.
func GroupNotes(invs []*page.Inventory, notes []page.Note) (map[string][]page.Note, []page.Note) {
	grouped := make(map[string][]page.Note, len(invs))
	var orphans []page.Note
	for _, n := range notes {
		placed := false
		for _, inv := range invs {
			if inv.Covers(n.Page) {
				grouped[inv.Key()] = append(grouped[inv.Key()], n)
				placed = true
				break
			}
		}
		if !placed {
			orphans = append(orphans, n)
		}
	}
	return grouped, orphans
}

// ParseSpreads parses spread flags such as "2,3" into page groups.
func ParseSpreads(specs []string) ([][]int, error) {
	var out [][]int
	for _, spec := range specs {
		var group []int
		for _, part := range strings.FieldsFunc(spec, func(r rune) bool { return r == ',' || r == '-' || r == ' ' }) {
			n, ok := FirstInt(part)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput, "invalid spread %q", spec)
			}
			group = append(group, n)
		}
		if len(group) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "spread %q needs at least two pages", spec)
		}
		out = append(out, group)
	}
	return out, nil
}
