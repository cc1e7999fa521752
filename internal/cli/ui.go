package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/report"
)

// ANSI 256 palette.
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorValue  = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleDim     = lipgloss.NewStyle().Foreground(colorFaint)
	StyleValue   = lipgloss.NewStyle().Foreground(colorValue)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorAccent)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorOK)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)
	StyleError   = lipgloss.NewStyle().Foreground(colorFail)

	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleHeader  = styleMuted.Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)
	styleKey     = styleMuted.Width(12)
	styleSpinner = StyleNumber
)

// mark is a status glyph with its color.
type mark struct {
	glyph string
	style lipgloss.Style
}

var (
	markOK   = mark{"✓", StyleSuccess}
	markFail = mark{"✗", StyleError}
	markWarn = mark{"!", StyleWarning}
	markInfo = mark{"›", styleMuted}
)

func (m mark) String() string { return m.style.Render(m.glyph) }

func printMark(m mark, text string) { fmt.Println(m.String() + " " + text) }

func printSuccess(format string, args ...any) { printMark(markOK, fmt.Sprintf(format, args...)) }

func printError(format string, args ...any) { printMark(markFail, fmt.Sprintf(format, args...)) }

func printInfo(format string, args ...any) { printMark(markInfo, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	printMark(markWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// pageStatusLine summarises a solved inventory: note count, overset, hard
// overset and whether the plan came from the cache.
func pageStatusLine(notes, overflow, hard int, cached bool) string {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d notes", notes))}
	if overflow > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d chars overset", overflow)))
	}
	if hard > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d hard", hard)))
	}
	if cached {
		parts = append(parts, StyleSuccess.Render("cached"))
	} else {
		parts = append(parts, styleMuted.Render("fresh"))
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

// cellStyle picks the style of a body cell. Returning false keeps the muted
// default.
type cellStyle func(row, col int) (lipgloss.Style, bool)

// renderTable draws a rounded table with bold muted headers.
func renderTable(headers []string, cells [][]string, pick cellStyle) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if pick != nil && row >= 0 && row < len(cells) {
				if s, ok := pick(row, col); ok {
					return s
				}
			}
			return styleMuted
		}).
		Render()
}

// firstColumn styles column 0 with s.
func firstColumn(s lipgloss.Style) cellStyle {
	return func(_, col int) (lipgloss.Style, bool) { return s, col == 0 }
}

// rowMark classifies a report row. Missing slots and hard overset count as
// failures like loader errors do.
func rowMark(r report.Row) mark {
	switch {
	case len(r.Errors) > 0, r.HasWarning(page.WarnSlotMissing), r.HasWarning(page.WarnOversetHard):
		return markFail
	case len(r.Warnings) > 0:
		return markWarn
	}
	return markOK
}

var rowHeaders = []string{"", "Page", "Note", "Kind", "Slots", "Span", "Size", "Over", "Warnings"}

func rowCells(r report.Row) []string {
	note, span, sizes := r.NoteID, "", ""
	if note == "" {
		note = "-"
	}
	if r.Span > 0 {
		span = strconv.Itoa(r.Span)
	}
	if r.BodySize > 0 || r.TitleSize > 0 {
		sizes = fmt.Sprintf("%g/%g", r.BodySize, r.TitleSize)
	}
	return []string{
		rowMark(r).glyph,
		strconv.Itoa(r.Page),
		note,
		r.Kind,
		strings.Join(r.Slots, ","),
		span,
		sizes,
		strconv.Itoa(r.Overflow),
		strings.Join(r.Warnings, ","),
	}
}

// rowsTable renders report rows with the status column colored per row.
func rowsTable(rows []report.Row) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = rowCells(r)
	}
	return renderTable(rowHeaders, cells, func(row, col int) (lipgloss.Style, bool) {
		return rowMark(rows[row]).style, col == 0
	})
}
