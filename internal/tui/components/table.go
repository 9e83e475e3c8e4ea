// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Weight means the column keeps
// its fixed Width; a positive Weight lets it grow proportionally, with
// Width acting as the minimum. Priority controls drop order on narrow
// terminals (lower priority columns disappear first).
type Column struct {
	Title    string
	Width    int
	Weight   float64
	Align    lipgloss.Position
	Priority int
}

// Table is a scrollable, selectable table component.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool

	// Styles
	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	rowAltStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	borderStyle   lipgloss.Style

	// Pagination
	currentPage int
	totalPages  int
	totalRows   int
}

// NewTable creates a new table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:       columns,
		rows:          [][]string{},
		visibleRows:   10,
		headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#66FF66")),
		rowStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		rowAltStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		selectedStyle: lipgloss.NewStyle().Background(lipgloss.Color("#00FF00")).Foreground(lipgloss.Color("#000000")),
		borderStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")),
	}
}

// SetRows sets the table data.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	if t.offset > t.selected {
		t.offset = t.selected
	}
}

// SetPagination sets pagination info for the footer line.
func (t *Table) SetPagination(page, totalPages, totalRows int) {
	t.currentPage = page
	t.totalPages = totalPages
	t.totalRows = totalRows
}

// SetVisibleRows sets the number of visible rows.
func (t *Table) SetVisibleRows(n int) {
	t.visibleRows = n
}

// SetStyles sets the table styles.
func (t *Table) SetStyles(header, row, rowAlt, selected, border lipgloss.Style) {
	t.headerStyle = header
	t.rowStyle = row
	t.rowAltStyle = rowAlt
	t.selectedStyle = selected
	t.borderStyle = border
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the currently selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the currently selected row data.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// PageUp moves up one page.
func (t *Table) PageUp() {
	t.selected -= t.visibleRows
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected
}

// PageDown moves down one page.
func (t *Table) PageDown() {
	t.selected += t.visibleRows
	if t.selected >= len(t.rows) {
		t.selected = len(t.rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected - t.visibleRows + 1
	if t.offset < 0 {
		t.offset = 0
	}
}

// GoToTop goes to the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom goes to the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) > 0 {
		t.selected = len(t.rows) - 1
		t.offset = t.selected - t.visibleRows + 1
		if t.offset < 0 {
			t.offset = 0
		}
	}
}

const (
	columnSeparator = " | "
	rowPadding      = 2 // leading and trailing space
)

// computeWidths resolves per-column widths for the given available
// width. Columns that do not fit are dropped lowest-priority first and
// reported as width 0. A non-positive availableWidth keeps every
// column at its fixed width.
func (t *Table) computeWidths(availableWidth int) []int {
	widths := make([]int, len(t.columns))

	if availableWidth <= 0 {
		for i, col := range t.columns {
			widths[i] = col.Width
		}
		return widths
	}

	visible := make([]bool, len(t.columns))
	visibleCount := len(t.columns)
	for i := range visible {
		visible[i] = true
	}

	required := func() int {
		sum := rowPadding
		n := 0
		for i, col := range t.columns {
			if !visible[i] {
				continue
			}
			sum += col.Width
			n++
		}
		if n > 1 {
			sum += (n - 1) * len(columnSeparator)
		}
		return sum
	}

	// Drop low-priority columns until the minimum layout fits.
	for required() > availableWidth && visibleCount > 1 {
		lowestPri := 0
		lowestIdx := -1
		for i, col := range t.columns {
			if !visible[i] {
				continue
			}
			if lowestIdx == -1 || col.Priority < lowestPri {
				lowestPri = col.Priority
				lowestIdx = i
			}
		}
		if lowestIdx < 0 {
			break
		}
		visible[lowestIdx] = false
		visibleCount--
	}

	// Distribute leftover width among weighted columns.
	fixedSum := 0
	totalWeight := 0.0
	for i, col := range t.columns {
		if !visible[i] {
			continue
		}
		if col.Weight > 0 {
			totalWeight += col.Weight
		} else {
			fixedSum += col.Width
		}
	}
	flexSpace := availableWidth - fixedSum - rowPadding
	if visibleCount > 1 {
		flexSpace -= (visibleCount - 1) * len(columnSeparator)
	}

	for i, col := range t.columns {
		if !visible[i] {
			widths[i] = 0
			continue
		}
		if col.Weight > 0 && totalWeight > 0 {
			w := int(float64(flexSpace) * col.Weight / totalWeight)
			if w < col.Width {
				w = col.Width
			}
			widths[i] = w
		} else {
			widths[i] = col.Width
		}
	}

	return widths
}

// Render renders the table with fixed column widths.
func (t *Table) Render() string {
	return t.RenderResponsive(0)
}

// RenderResponsive renders the table fitted to the given terminal width.
func (t *Table) RenderResponsive(width int) string {
	widths := t.computeWidths(width)

	totalWidth := rowPadding
	shown := 0
	for _, w := range widths {
		if w > 0 {
			totalWidth += w
			shown++
		}
	}
	if shown > 1 {
		totalWidth += (shown - 1) * len(columnSeparator)
	}

	var b strings.Builder

	b.WriteString(t.renderRow(t.getHeaders(), widths, t.headerStyle))
	b.WriteString("\n")
	b.WriteString(t.borderStyle.Render(strings.Repeat("-", totalWidth)))
	b.WriteString("\n")

	endIdx := t.offset + t.visibleRows
	if endIdx > len(t.rows) {
		endIdx = len(t.rows)
	}

	for i := t.offset; i < endIdx; i++ {
		var style lipgloss.Style
		switch {
		case i == t.selected && t.focused:
			style = t.selectedStyle
		case (i-t.offset)%2 == 1:
			style = t.rowAltStyle
		default:
			style = t.rowStyle
		}

		b.WriteString(t.renderRow(t.rows[i], widths, style))
		b.WriteString("\n")
	}

	if t.totalPages > 0 {
		b.WriteString(t.borderStyle.Render(strings.Repeat("-", totalWidth)))
		b.WriteString("\n")
		b.WriteString(t.borderStyle.Render(fmt.Sprintf("Page %d/%d | %d total", t.currentPage, t.totalPages, t.totalRows)))
	}

	return b.String()
}

func (t *Table) getHeaders() []string {
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Title
	}
	return headers
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string

	for i, col := range t.columns {
		w := widths[i]
		if w <= 0 {
			continue
		}

		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		if runes := []rune(cell); len(runes) > w {
			if w > 1 {
				cell = string(runes[:w-1]) + "…"
			} else {
				cell = string(runes[:w])
			}
		}

		switch col.Align {
		case lipgloss.Right:
			cell = fmt.Sprintf("%*s", w, cell)
		case lipgloss.Center:
			padding := w - len([]rune(cell))
			leftPad := padding / 2
			cell = strings.Repeat(" ", leftPad) + cell + strings.Repeat(" ", padding-leftPad)
		default:
			cell = fmt.Sprintf("%-*s", w, cell)
		}

		parts = append(parts, style.Render(cell))
	}

	return " " + strings.Join(parts, columnSeparator) + " "
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}
