// Package reports provides the TUI report browser.
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/services/reports"
	"github.com/farmavet/farmavet/internal/util"
)

// ReportKind selects which report the view renders.
type ReportKind int

const (
	ReportInventory ReportKind = iota
	ReportExpiry
	ReportLowStock
	ReportConsumption
)

var reportNames = []string{
	"Inventory Summary",
	"Expiry Report",
	"Low Stock Report",
	"Consumption (30 days)",
}

// Name returns the selector label for the kind.
func (k ReportKind) Name() string {
	if int(k) >= 0 && int(k) < len(reportNames) {
		return reportNames[k]
	}
	return "Unknown"
}

// ReportsView renders the report browser.
type ReportsView struct {
	service *reports.Service
	kind    ReportKind
	now     time.Time
	loading bool
	err     error

	inventory   *reports.InventoryReport
	expiry      *reports.ExpiryReport
	lowStock    *reports.LowStockReport
	consumption *reports.ConsumptionReport
}

// NewReportsView creates a new reports view.
func NewReportsView(service *reports.Service) *ReportsView {
	return &ReportsView{service: service}
}

// SetNow sets the reference time used for the consumption window.
func (v *ReportsView) SetNow(t time.Time) {
	v.now = t
}

// Kind returns the selected report kind.
func (v *ReportsView) Kind() ReportKind {
	return v.kind
}

// NextKind selects the next report.
func (v *ReportsView) NextKind() {
	v.kind = ReportKind((int(v.kind) + 1) % len(reportNames))
}

// PrevKind selects the previous report.
func (v *ReportsView) PrevKind() {
	v.kind = ReportKind((int(v.kind) + len(reportNames) - 1) % len(reportNames))
}

// Load runs the selected report.
func (v *ReportsView) Load(ctx context.Context) error {
	v.loading = true
	v.err = nil

	var err error
	switch v.kind {
	case ReportInventory:
		v.inventory, err = v.service.Inventory(ctx)
	case ReportExpiry:
		v.expiry, err = v.service.Expiry(ctx, 0)
	case ReportLowStock:
		v.lowStock, err = v.service.LowStock(ctx)
	case ReportConsumption:
		end := v.now
		start := end.AddDate(0, 0, -30)
		v.consumption, err = v.service.Consumption(ctx, start, end)
	}

	v.loading = false
	if err != nil {
		v.err = err
		return err
	}
	return nil
}

// Render renders the report browser.
func (v *ReportsView) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	selStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00FF00"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("═══ REPORTS ═══"))
	b.WriteString("\n\n")

	// Report selector
	var tabs []string
	for i, name := range reportNames {
		if ReportKind(i) == v.kind {
			tabs = append(tabs, selStyle.Render(" "+name+" "))
		} else {
			tabs = append(tabs, labelStyle.Render(" "+name+" "))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(errStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	} else if v.loading {
		b.WriteString(labelStyle.Render("Generating..."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.renderSelected(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(helpStyle.Render("←→:Report  r:Refresh"))
	} else {
		b.WriteString(helpStyle.Render("Left/Right:Switch Report  r:Refresh  Esc:Back"))
	}

	return b.String()
}

func (v *ReportsView) renderSelected(width int) string {
	switch v.kind {
	case ReportInventory:
		return v.renderInventory()
	case ReportExpiry:
		return v.renderExpiry()
	case ReportLowStock:
		return v.renderLowStock()
	case ReportConsumption:
		return v.renderConsumption()
	}
	return ""
}

func (v *ReportsView) renderInventory() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Width(18)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)

	r := v.inventory
	if r == nil {
		return labelStyle.Render("No report generated yet. Press r to refresh.")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Generated:") + " " + valueStyle.Render(util.FormatDateTime(r.GeneratedAt)) + "\n")
	b.WriteString(labelStyle.Render("Medicines:") + " " + valueStyle.Render(fmt.Sprintf("%d", r.TotalMedicines)) + "\n")
	b.WriteString(labelStyle.Render("Total Units:") + " " + valueStyle.Render(fmt.Sprintf("%d", r.TotalUnits)) + "\n\n")

	b.WriteString(sectionStyle.Render("BY STATUS"))
	b.WriteString("\n")
	for _, status := range []models.StockStatus{
		models.StockStatusAvailable,
		models.StockStatusLowStock,
		models.StockStatusOutOfStock,
		models.StockStatusExpired,
	} {
		b.WriteString(labelStyle.Render(string(status)+":") + " " + valueStyle.Render(fmt.Sprintf("%d", r.ByStatus[status])) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("BY ANIMAL TYPE"))
	b.WriteString("\n")
	for _, at := range []models.AnimalType{models.AnimalDogs, models.AnimalCats, models.AnimalGeneral} {
		b.WriteString(labelStyle.Render(at.DisplayName()+":") + " " + valueStyle.Render(fmt.Sprintf("%d", r.ByAnimalType[at])) + "\n")
	}

	return b.String()
}

func (v *ReportsView) renderExpiry() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	critStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)

	r := v.expiry
	if r == nil {
		return labelStyle.Render("No report generated yet. Press r to refresh.")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("Window: %d days ahead", r.WithinDays)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("EXPIRED (%d)", len(r.Expired))))
	b.WriteString("\n")
	if len(r.Expired) == 0 {
		b.WriteString(valueStyle.Render("  none") + "\n")
	}
	for _, row := range r.Expired {
		line := fmt.Sprintf("  %-10s %-28s %s, %d days overdue",
			row.Medicine.Code, row.Medicine.Name,
			util.FormatDate(row.Medicine.ExpiryDate), row.Days)
		b.WriteString(critStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("EXPIRING SOON (%d)", len(r.Expiring))))
	b.WriteString("\n")
	if len(r.Expiring) == 0 {
		b.WriteString(valueStyle.Render("  none") + "\n")
	}
	for _, row := range r.Expiring {
		line := fmt.Sprintf("  %-10s %-28s %s, %d days left",
			row.Medicine.Code, row.Medicine.Name,
			util.FormatDate(row.Medicine.ExpiryDate), row.Days)
		b.WriteString(warnStyle.Render(line) + "\n")
	}

	return b.String()
}

func (v *ReportsView) renderLowStock() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	critStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))

	r := v.lowStock
	if r == nil {
		return labelStyle.Render("No report generated yet. Press r to refresh.")
	}

	var b strings.Builder
	if len(r.Rows) == 0 {
		b.WriteString(valueStyle.Render("All medicines at or above minimum stock."))
		b.WriteString("\n")
		return b.String()
	}

	for _, row := range r.Rows {
		style := warnStyle
		if row.Status == models.StockStatusOutOfStock {
			style = critStyle
		}
		line := fmt.Sprintf("  %-10s %-28s %d/%d units (%.0f%%)",
			row.Medicine.Code, row.Medicine.Name,
			row.Medicine.Quantity, row.Medicine.MinStock, row.Ratio*100)
		b.WriteString(style.Render(line) + "\n")
	}

	return b.String()
}

func (v *ReportsView) renderConsumption() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Width(18)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)

	r := v.consumption
	if r == nil {
		return labelStyle.Render("No report generated yet. Press r to refresh.")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Period:") + " " + valueStyle.Render(
		util.FormatDate(r.Start)+" to "+util.FormatDate(r.End)) + "\n")
	b.WriteString(labelStyle.Render("Units received:") + " " + valueStyle.Render(fmt.Sprintf("%d", r.TotalIn)) + "\n")
	b.WriteString(labelStyle.Render("Units dispensed:") + " " + valueStyle.Render(fmt.Sprintf("%d", r.TotalOut)) + "\n")
	b.WriteString(labelStyle.Render("Units adjusted:") + " " + valueStyle.Render(fmt.Sprintf("%d", r.TotalAdjust)) + "\n\n")

	b.WriteString(sectionStyle.Render("MOST DISPENSED"))
	b.WriteString("\n")
	if len(r.MostMoved) == 0 {
		b.WriteString(valueStyle.Render("  no outgoing movements in period") + "\n")
	}
	for _, mv := range r.MostMoved {
		name := fmt.Sprintf("medicine #%d", mv.MedicineID)
		if mv.Medicine != nil {
			name = fmt.Sprintf("%-10s %s", mv.Medicine.Code, mv.Medicine.Name)
		}
		b.WriteString(valueStyle.Render(fmt.Sprintf("  %-40s %d units", name, mv.Quantity)) + "\n")
	}

	return b.String()
}
