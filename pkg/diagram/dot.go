package diagram

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/solver"
)

// Options configures plan diagrams.
type Options struct {
	// Detailed adds sizes, spans and overflow to labels. When false, nodes
	// show only their ids.
	Detailed bool
}

const (
	failedColor = "#d62728"
	unusedColor = "lightgrey"
)

// ToDOT converts a plan to Graphviz DOT. Notes point at the slots they
// consume; edges are labelled with the part placed there. Slots are grouped
// per page. Failed notes and their edges are red, unused slots dashed.
func ToDOT(inv *page.Inventory, res *solver.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	owners := res.SlotOwners()
	for _, p := range inv.Pages() {
		fmt.Fprintf(&buf, "  subgraph \"cluster_page_%d\" {\n", p)
		fmt.Fprintf(&buf, "    label=%q;\n    style=rounded;\n", fmt.Sprintf("page %d", p))
		for _, s := range inv.Slots() {
			if s.Page != p {
				continue
			}
			_, used := owners[s.ID]
			fmt.Fprintf(&buf, "    %q [%s];\n", slotNode(s.ID), strings.Join(slotAttrs(s, used, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, nr := range res.Notes {
		fmt.Fprintf(&buf, "  %q [%s];\n", noteNode(nr.Note.ID), strings.Join(noteAttrs(nr, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, nr := range res.Notes {
		for _, e := range edges(nr.Placement) {
			attrs := []string{fmt.Sprintf("label=%q", e.label)}
			if nr.Placement.Hard {
				attrs = append(attrs, "color=\""+failedColor+"\"", "fontcolor=\""+failedColor+"\"")
			}
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", noteNode(nr.Note.ID), slotNode(e.slot), strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func noteNode(id string) string { return "note:" + id }
func slotNode(id string) string { return "slot:" + id }

func slotAttrs(s page.Slot, used, detailed bool) []string {
	label := s.ID
	if detailed {
		label += fmt.Sprintf("\n%s %d col\n%.0f×%.0f pt", s.Role, s.ColumnCount(), s.Width(), s.Height())
	}
	attrs := []string{fmt.Sprintf("label=%q", label), "shape=box"}
	if used {
		attrs = append(attrs, "style=filled", "fillcolor=white")
	} else {
		attrs = append(attrs, "style=dashed", "color="+unusedColor, "fontcolor=grey40")
	}
	return attrs
}

func noteAttrs(nr solver.NoteResult, detailed bool) []string {
	label := nr.Note.ID
	if detailed {
		pl := nr.Placement
		label += "\n" + string(pl.Kind)
		if len(pl.Slots()) > 0 {
			label += fmt.Sprintf("\n%g/%g pt", pl.Profile.Body, pl.Profile.Title)
		}
		if pl.Overflow > 0 {
			label += "\n+" + strconv.Itoa(pl.Overflow)
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label), "shape=ellipse", "style=filled"}
	if nr.Placement.Failed() {
		attrs = append(attrs, "fillcolor=\"#f7c6c7\"", "color=\""+failedColor+"\"")
	} else {
		attrs = append(attrs, "fillcolor=\"#dbe9f6\"")
	}
	return attrs
}

type edge struct {
	slot  string
	label string
}

func edges(pl solver.Placement) []edge {
	switch pl.Kind {
	case solver.KindCombined:
		return []edge{{pl.BodySlot, fmt.Sprintf("combined span %d", pl.Span)}}
	case solver.KindSeparate:
		return []edge{{pl.BodySlot, "body"}, {pl.TitleSlot, fmt.Sprintf("title span %d", pl.Span)}}
	case solver.KindBody:
		return []edge{{pl.BodySlot, "body"}}
	case solver.KindTitle:
		return []edge{{pl.TitleSlot, fmt.Sprintf("title span %d", pl.Span)}}
	}
	return nil
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's svg tag with one whose viewBox starts
// at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
