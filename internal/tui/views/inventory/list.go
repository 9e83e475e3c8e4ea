// Package inventory provides TUI views for the medicine inventory.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/services/inventory"
	"github.com/farmavet/farmavet/internal/tui/components"
	"github.com/farmavet/farmavet/internal/util"
)

// ListView displays the medicine inventory list.
type ListView struct {
	service   *inventory.Service
	table     *components.Table
	medicines []*models.Medicine
	page      models.Pagination
	filter    models.MedicineFilter
	loading   bool
	err       error
	search    string
	now       time.Time

	// Recent movements for the selected medicine, loaded on demand
	// for the detail view.
	movements []*models.StockMovement
}

// statusCycle is the order the status filter steps through.
var statusCycle = []models.StockStatus{
	models.StockStatusExpired,
	models.StockStatusOutOfStock,
	models.StockStatusLowStock,
	models.StockStatusAvailable,
}

// sortCycle is the order the list ordering steps through. The first
// entry is the default code order.
var sortCycle = []models.SortOption{
	{Column: "code", Direction: models.SortAsc},
	{Column: "name", Direction: models.SortAsc},
	{Column: "expiry_date", Direction: models.SortAsc},
	{Column: "quantity", Direction: models.SortAsc},
	{Column: "quantity", Direction: models.SortDesc},
}

// NewListView creates a new inventory list view.
func NewListView(service *inventory.Service) *ListView {
	columns := []components.Column{
		{Title: "Code", Width: 10, Weight: 0, Priority: 10},
		{Title: "Name", Width: 20, Weight: 2.0, Priority: 9},
		{Title: "Animal", Width: 8, Priority: 5},
		{Title: "Qty", Width: 6, Align: lipgloss.Right, Priority: 8},
		{Title: "Min", Width: 5, Align: lipgloss.Right, Priority: 4},
		{Title: "Expiry", Width: 10, Priority: 7},
		{Title: "Status", Width: 12, Priority: 6},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &ListView{
		service: service,
		table:   table,
		page:    models.Pagination{Page: 1, PageSize: 20},
	}
}

// Load fetches medicines from the database.
func (v *ListView) Load(ctx context.Context) error {
	v.loading = true
	v.err = nil

	result, err := v.service.List(ctx, v.filter, v.page)
	if err != nil {
		v.loading = false
		v.err = err
		return err
	}

	v.medicines = result.Medicines
	v.loading = false

	rows := make([][]string, len(v.medicines))
	for i, m := range v.medicines {
		rows[i] = []string{
			m.Code,
			m.Name,
			m.AnimalType.DisplayName(),
			fmt.Sprintf("%d", m.Quantity),
			fmt.Sprintf("%d", m.MinStock),
			v.expiryCell(m),
			string(m.Status(v.now, v.thresholds())),
		}
	}

	v.table.SetRows(rows)
	v.table.SetPagination(result.Page, result.TotalPages, result.Total)

	return nil
}

// LoadMovements fetches the recent movement history for the selected
// medicine so the detail view can show it.
func (v *ListView) LoadMovements(ctx context.Context) error {
	m := v.SelectedMedicine()
	if m == nil {
		v.movements = nil
		return nil
	}

	result, err := v.service.Movements(ctx,
		models.MovementFilter{MedicineID: m.ID},
		models.Pagination{Page: 1, PageSize: 5})
	if err != nil {
		return err
	}

	v.movements = result.Movements
	return nil
}

func (v *ListView) thresholds() models.Thresholds {
	if v.service == nil {
		return models.DefaultThresholds()
	}
	return v.service.Thresholds()
}

// sortLabel names the active ordering for the header line.
func (v *ListView) sortLabel() string {
	label := v.filter.Sort.Column
	if label == "expiry_date" {
		label = "expiry"
	}
	if v.filter.Sort.Direction == models.SortDesc {
		label += " desc"
	}
	return label
}

// expiryCell formats the expiry column: overdue and imminent dates
// render as relative day counts, distant ones as the plain date.
func (v *ListView) expiryCell(m *models.Medicine) string {
	days := m.DaysUntilExpiry(v.now)
	switch {
	case days < 0:
		return "EXPIRED"
	case days == 0:
		return "TODAY"
	case days < 30:
		return fmt.Sprintf("%dd", days)
	default:
		return util.FormatDate(m.ExpiryDate)
	}
}

// SetNow sets the reference time for status and expiry display.
func (v *ListView) SetNow(t time.Time) {
	v.now = t
}

// SetSearch sets the search filter.
func (v *ListView) SetSearch(term string) {
	v.search = term
	v.filter.Search = term
	v.page.Page = 1
}

// Search returns the active search term.
func (v *ListView) Search() string {
	return v.search
}

// CycleStatusFilter steps the status filter through all statuses and
// back to unfiltered.
func (v *ListView) CycleStatusFilter() {
	v.page.Page = 1

	if v.filter.Status == nil {
		v.filter.Status = &statusCycle[0]
		return
	}
	for i, s := range statusCycle {
		if *v.filter.Status == s {
			if i+1 < len(statusCycle) {
				v.filter.Status = &statusCycle[i+1]
			} else {
				v.filter.Status = nil
			}
			return
		}
	}
	v.filter.Status = nil
}

// StatusFilter returns the active status filter, nil when unfiltered.
func (v *ListView) StatusFilter() *models.StockStatus {
	return v.filter.Status
}

// CycleSort steps the list ordering through the sort cycle and wraps
// back to code order.
func (v *ListView) CycleSort() {
	v.page.Page = 1

	for i, s := range sortCycle {
		if v.filter.Sort == s {
			v.filter.Sort = sortCycle[(i+1)%len(sortCycle)]
			return
		}
	}
	v.filter.Sort = sortCycle[1]
}

// Sort returns the active list ordering.
func (v *ListView) Sort() models.SortOption {
	return v.filter.Sort
}

// SetVisibleRows sets the number of visible table rows.
func (v *ListView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// NextPage moves to the next page.
func (v *ListView) NextPage() {
	v.page.Page++
}

// PrevPage moves to the previous page.
func (v *ListView) PrevPage() {
	if v.page.Page > 1 {
		v.page.Page--
	}
}

// MoveUp moves the selection up.
func (v *ListView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *ListView) MoveDown() {
	v.table.MoveDown()
}

// SelectedMedicine returns the currently selected medicine.
func (v *ListView) SelectedMedicine() *models.Medicine {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.medicines) {
		return v.medicines[idx]
	}
	return nil
}

// Render renders the inventory list, responsive to the terminal width.
func (v *ListView) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("═══ MEDICINE INVENTORY ═══"))
	b.WriteString("\n\n")

	if v.search != "" {
		b.WriteString(labelStyle.Render("Search: "))
		b.WriteString(valueStyle.Render(v.search))
		b.WriteString("\n")
	}

	if v.filter.Status != nil {
		b.WriteString(labelStyle.Render("Status: "))
		b.WriteString(valueStyle.Render(string(*v.filter.Status)))
		b.WriteString("\n")
	}

	sorted := v.filter.Sort.Column != "" && v.filter.Sort != sortCycle[0]
	if sorted {
		b.WriteString(labelStyle.Render("Sort: "))
		b.WriteString(valueStyle.Render(v.sortLabel()))
		b.WriteString("\n")
	}

	if v.search != "" || v.filter.Status != nil || sorted {
		b.WriteString("\n")
	}

	if v.err != nil {
		b.WriteString(errStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.loading {
		b.WriteString(labelStyle.Render("Loading..."))
		b.WriteString("\n")
	} else if v.table.Empty() {
		b.WriteString(labelStyle.Render("No medicines found."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(helpStyle.Render("↑↓:Nav  Enter:View  a:Add  s:Search  f:Filter  o:Sort"))
	} else {
		b.WriteString(helpStyle.Render("Up/Down:Select  Enter:Details  a:Add  s:Search  f:Filter  o:Sort  PgUp/Dn:Page"))
	}

	return b.String()
}

// RenderDetail renders the detail view for the selected medicine.
func (v *ListView) RenderDetail(m *models.Medicine, width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	critStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))

	labelWidth := 16
	if width > 0 && width < 60 {
		labelWidth = 12
	}
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Width(labelWidth)

	if m == nil {
		return labelStyle.Render("No medicine selected")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("═══ MEDICINE DETAILS ═══"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("IDENTIFICATION"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Code:") + " " + valueStyle.Render(m.Code) + "\n")
	b.WriteString(labelStyle.Render("Name:") + " " + valueStyle.Render(m.Name) + "\n")
	if m.Dose != "" {
		b.WriteString(labelStyle.Render("Dose:") + " " + valueStyle.Render(m.Dose) + "\n")
	}
	b.WriteString(labelStyle.Render("Animal Type:") + " " + valueStyle.Render(m.AnimalType.DisplayName()) + "\n")
	if m.Supplier != "" {
		b.WriteString(labelStyle.Render("Supplier:") + " " + valueStyle.Render(m.Supplier) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("STOCK"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Quantity:") + " " + valueStyle.Render(fmt.Sprintf("%d", m.Quantity)) + "\n")
	b.WriteString(labelStyle.Render("Minimum:") + " " + valueStyle.Render(fmt.Sprintf("%d", m.MinStock)) + "\n")

	status := m.Status(v.now, v.thresholds())
	statusStyle := valueStyle
	switch status {
	case models.StockStatusExpired, models.StockStatusOutOfStock:
		statusStyle = critStyle
	case models.StockStatusLowStock:
		statusStyle = warnStyle
	}
	b.WriteString(labelStyle.Render("Status:") + " " + statusStyle.Render(string(status)) + "\n")
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("EXPIRY"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Expiry Date:") + " " + valueStyle.Render(util.FormatDate(m.ExpiryDate)))

	days := m.DaysUntilExpiry(v.now)
	var daysStr string
	switch {
	case days < 0:
		daysStr = critStyle.Render(fmt.Sprintf("expired %d days ago", -days))
	case days == 0:
		daysStr = critStyle.Render("expires today")
	case days < 7:
		daysStr = critStyle.Render(fmt.Sprintf("%d days", days))
	case days < 30:
		daysStr = warnStyle.Render(fmt.Sprintf("%d days", days))
	default:
		daysStr = valueStyle.Render(fmt.Sprintf("%d days", days))
	}
	b.WriteString(" (" + daysStr + ")\n")
	b.WriteString("\n")

	if len(v.movements) > 0 {
		b.WriteString(sectionStyle.Render("RECENT MOVEMENTS"))
		b.WriteString("\n")
		for _, mv := range v.movements {
			line := fmt.Sprintf("%s  %-6s %5d  → %d  %s",
				util.FormatDate(mv.CreatedAt), mv.Type, mv.Quantity, mv.BalanceAfter, mv.Reason)
			b.WriteString("  " + valueStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Esc:Back  e:Edit  x:Delete  +:Receive  -:Dispense"))

	return b.String()
}
