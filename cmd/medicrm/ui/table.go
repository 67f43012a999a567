package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders tabular data with a highlighted selection row. It is
// static: the caller owns paging and selection state.
type Table struct {
	Headers  []string
	Rows     [][]string
	Selected int // row index, -1 for none
}

// NewTable creates a table with the given headers and no selection.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, Selected: -1}
}

// AddRow appends one row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// View renders the table.
func (t *Table) View(styles Styles) string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var sb strings.Builder
	for i, h := range t.Headers {
		sb.WriteString(styles.Bold.Width(widths[i] + 2).Render(h))
	}
	sb.WriteString("\n")
	for rowIdx, row := range t.Rows {
		line := &strings.Builder{}
		for i, cell := range row {
			if i < len(widths) {
				line.WriteString(padCell(cell, widths[i]+2))
			}
		}
		rendered := line.String()
		if rowIdx == t.Selected {
			rendered = styles.Selected.Render(rendered)
		}
		sb.WriteString(rendered)
		sb.WriteString("\n")
	}
	return sb.String()
}

func padCell(s string, width int) string {
	pad := width - lipgloss.Width(s)
	if pad < 0 {
		pad = 0
	}
	return s + strings.Repeat(" ", pad)
}
