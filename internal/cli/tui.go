package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/slotfit/pkg/report"
)

var (
	listSelectedStyle = StyleTitle
	listNormalStyle   = StyleValue
	listDimStyle      = StyleDim
)

// =============================================================================
// RunListModel - Interactive stored run selection
// =============================================================================

// RunListModel is the bubbletea model for picking a stored report.
type RunListModel struct {
	Runs     []report.Summary
	Cursor   int
	Selected *report.Summary
	Height   int
	Offset   int
}

// NewRunListModel creates a new run list model.
func NewRunListModel(runs []report.Summary) RunListModel {
	return RunListModel{Runs: runs, Height: 15}
}

func (m RunListModel) Init() tea.Cmd {
	return nil
}

func (m RunListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Runs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Runs) == 0 {
				return m, nil
			}
			run := m.Runs[m.Cursor]
			m.Selected = &run
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m RunListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Run"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Runs))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Runs[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			shortID(r.RunID),
			formatRelativeTime(r.CreatedAt),
			strconv.Itoa(r.Pages),
			fmt.Sprintf("%d/%d", r.Placed, r.Notes),
			strconv.Itoa(r.Overflow),
		})
	}

	headers := []string{"", "Run", "Created", "Pages", "Placed", "Over"}
	b.WriteString(renderTable(headers, rows, func(row, col int) (lipgloss.Style, bool) {
		idx := m.Offset + row
		if idx >= len(m.Runs) {
			return styleMuted, false
		}
		r := m.Runs[idx]
		s := StyleWarning
		switch {
		case col == 2:
			s = StyleDim
		case r.Missing == 0 && r.Hard == 0:
			s = StyleSuccess
		}
		return s.Bold(idx == m.Cursor), true
	}))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Runs))))
	return b.String()
}

// =============================================================================
// ReportModel - Interactive report browser
// =============================================================================

// ReportModel is the bubbletea model for browsing the rows of a report.
// "f" toggles between all rows and rows with warnings or errors.
type ReportModel struct {
	Report     *report.Report
	Cursor     int
	Offset     int
	Height     int
	OnlyIssues bool

	visible []int
}

// NewReportModel creates a report browser over rep.
func NewReportModel(rep *report.Report) ReportModel {
	m := ReportModel{Report: rep, Height: 12}
	m.refilter()
	return m
}

func (m *ReportModel) refilter() {
	m.visible = nil
	for i, r := range m.Report.Rows {
		if m.OnlyIssues && len(r.Warnings) == 0 && len(r.Errors) == 0 {
			continue
		}
		m.visible = append(m.visible, i)
	}
	m.Cursor, m.Offset = 0, 0
}

// Visible returns the rows currently listed.
func (m ReportModel) Visible() []report.Row {
	out := make([]report.Row, len(m.visible))
	for i, idx := range m.visible {
		out[i] = m.Report.Rows[idx]
	}
	return out
}

// Current returns the row under the cursor.
func (m ReportModel) Current() (report.Row, bool) {
	if m.Cursor >= len(m.visible) {
		return report.Row{}, false
	}
	return m.Report.Rows[m.visible[m.Cursor]], true
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "f":
			m.OnlyIssues = !m.OnlyIssues
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-16, 5)
	}
	return m, nil
}

func (m ReportModel) View() string {
	var b strings.Builder

	sum := m.Report.Summarize()
	b.WriteString(StyleTitle.Render("Run " + shortID(m.Report.RunID)))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d pages · %d/%d placed · %d chars overset",
		sum.Pages, sum.Placed, sum.Notes, sum.Overflow)))
	b.WriteString("\n")
	filter := "all rows"
	if m.OnlyIssues {
		filter = "issues only"
	}
	b.WriteString(listDimStyle.Render("↑/↓ navigate  f " + filter + "  q quit"))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(StyleSuccess.Render("  nothing to show"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.visible))
	page := make([]report.Row, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		page = append(page, m.Report.Rows[m.visible[i]])
	}
	cells := make([][]string, len(page))
	for i, r := range page {
		cells[i] = rowCells(r)
	}

	b.WriteString(renderTable(rowHeaders, cells, func(row, col int) (lipgloss.Style, bool) {
		switch {
		case col == 0:
			return rowMark(page[row]).style, true
		case m.Offset+row == m.Cursor:
			return StyleValue.Bold(true), true
		}
		return styleMuted, false
	}))
	b.WriteString("\n")

	if r, ok := m.Current(); ok {
		b.WriteString(rowDetail(r))
	}
	return b.String()
}

// rowDetail formats the full content of a row below the table.
func rowDetail(r report.Row) string {
	var b strings.Builder
	line := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString("  " + listDimStyle.Render(fmt.Sprintf("%-10s", key)) + " " + listNormalStyle.Render(value) + "\n")
	}
	title := r.NoteID
	if title == "" {
		title = "page " + r.PageKey
	}
	b.WriteString("\n" + listSelectedStyle.Render(title) + "\n")
	line("page", r.PageKey)
	line("kind", r.Kind)
	line("slots", strings.Join(r.Slots, ", "))
	if r.ColumnWidth > 0 {
		line("column", fmt.Sprintf("%.1f pt", r.ColumnWidth))
	}
	if r.Height > 0 {
		line("height", fmt.Sprintf("%.1f pt", r.Height))
	}
	if r.PlacedOverflow > 0 || r.Overflow > 0 {
		line("overset", fmt.Sprintf("%d chars (planned %d)", r.PlacedOverflow, r.Overflow))
	}
	line("photos", strings.Join(r.Photos, ", "))
	line("warnings", strings.Join(r.Warnings, ", "))
	for _, e := range r.Errors {
		b.WriteString("  " + StyleError.Render(e) + "\n")
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
