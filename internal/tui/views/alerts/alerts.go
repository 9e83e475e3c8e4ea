// Package alerts provides TUI views for the alert center.
package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/services/alerting"
	"github.com/farmavet/farmavet/internal/tui/components"
	"github.com/farmavet/farmavet/internal/util"
)

// AlertsView displays the active alerts.
type AlertsView struct {
	service *alerting.Service
	table   *components.Table
	alerts  []*models.Alert
	summary models.AlertSummary
	loading bool
	err     error
}

// NewAlertsView creates a new alerts view.
func NewAlertsView(service *alerting.Service) *AlertsView {
	columns := []components.Column{
		{Title: "Pri", Width: 6, Priority: 9},
		{Title: "Type", Width: 14, Priority: 8},
		{Title: "Code", Width: 10, Priority: 6},
		{Title: "Medicine", Width: 20, Weight: 1.0, Priority: 10},
		{Title: "Detail", Width: 24, Weight: 2.0, Priority: 7},
	}

	table := components.NewTable(columns)
	table.SetVisibleRows(20)
	table.Focus(true)

	return &AlertsView{
		service: service,
		table:   table,
	}
}

// Load fetches active alerts, already sorted for display. Every alert
// that lands in the table counts as shown for popup bookkeeping.
func (v *AlertsView) Load(ctx context.Context) error {
	v.loading = true
	v.err = nil

	v.alerts = v.service.ActiveAlerts(ctx)
	v.summary = v.service.Summary(ctx)
	v.loading = false

	rows := make([][]string, len(v.alerts))
	for i, a := range v.alerts {
		rows[i] = []string{
			strings.ToUpper(string(a.Priority)),
			a.Type.DisplayName(),
			a.MedicineCode,
			a.MedicineName,
			v.detailCell(a),
		}
		v.service.MarkShown(a.ID)
	}

	v.table.SetRows(rows)
	v.table.SetPagination(0, 0, len(v.alerts))

	return nil
}

// detailCell formats the type-specific alert detail.
func (v *AlertsView) detailCell(a *models.Alert) string {
	switch a.Type {
	case models.AlertTypeExpired:
		return fmt.Sprintf("expired %dd ago (%s)", a.DaysOverdue, util.FormatDate(a.ExpiryDate))
	case models.AlertTypeExpiring:
		return fmt.Sprintf("expires in %dd (%s)", a.DaysRemaining, util.FormatDate(a.ExpiryDate))
	case models.AlertTypeLowStock:
		return fmt.Sprintf("%d left, minimum %d", a.CurrentStock, a.MinStock)
	case models.AlertTypeOutOfStock:
		return "no stock remaining"
	}
	return a.Message
}

// SetVisibleRows sets the number of visible table rows.
func (v *AlertsView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// MoveUp moves the selection up.
func (v *AlertsView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *AlertsView) MoveDown() {
	v.table.MoveDown()
}

// SelectedAlert returns the currently selected alert.
func (v *AlertsView) SelectedAlert() *models.Alert {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.alerts) {
		return v.alerts[idx]
	}
	return nil
}

// Summary returns the summary from the last Load.
func (v *AlertsView) Summary() models.AlertSummary {
	return v.summary
}

// Render renders the alerts view.
func (v *AlertsView) Render(width, height int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	critStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("═══ ALERT CENTER ═══"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(errStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if v.loading {
		b.WriteString(labelStyle.Render("Loading..."))
		b.WriteString("\n")
	} else if v.table.Empty() {
		b.WriteString(okStyle.Render("No active alerts. All medicines within thresholds."))
		b.WriteString("\n")
	} else {
		summary := fmt.Sprintf("%d active", v.summary.Total)
		b.WriteString(labelStyle.Render("Alerts: "))
		b.WriteString(okStyle.Render(summary))
		if v.summary.High > 0 {
			b.WriteString("  " + critStyle.Render(fmt.Sprintf("%d high", v.summary.High)))
		}
		if v.summary.Medium > 0 {
			b.WriteString("  " + warnStyle.Render(fmt.Sprintf("%d medium", v.summary.Medium)))
		}
		b.WriteString("\n\n")
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(helpStyle.Render("↑↓:Nav  d:Dismiss  t:Thresholds"))
	} else {
		b.WriteString(helpStyle.Render("Up/Down:Select  d:Dismiss  D:Clear Dismissed  t:Thresholds"))
	}

	return b.String()
}
