package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/farmavet/farmavet/internal/config"
	"github.com/farmavet/farmavet/internal/database"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/services/alerting"
	"github.com/farmavet/farmavet/internal/services/inventory"
	"github.com/farmavet/farmavet/internal/services/reports"
	alertviews "github.com/farmavet/farmavet/internal/tui/views/alerts"
	invviews "github.com/farmavet/farmavet/internal/tui/views/inventory"
	repviews "github.com/farmavet/farmavet/internal/tui/views/reports"
	"github.com/farmavet/farmavet/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// Module represents a view module in the application.
type Module string

const (
	ModuleDashboard Module = "dashboard"
	ModuleInventory Module = "inventory"
	ModuleAlerts    Module = "alerts"
	ModuleReports   Module = "reports"
	ModuleHelp      Module = "help"
)

// confirmKind identifies which action the confirmation dialog guards.
type confirmKind int

const (
	confirmQuit confirmKind = iota
	confirmDelete
	confirmClearDismissed
)

// App is the main Bubble Tea application model.
type App struct {
	// Dependencies
	db     *database.DB
	config *config.Config
	clock  util.Clock

	// Services
	inventorySvc *inventory.Service
	alertSvc     *alerting.Service
	reportSvc    *reports.Service

	// Views
	inventoryView *invviews.ListView
	medicineForm  *invviews.MedicineForm
	alertsView    *alertviews.AlertsView
	thresholdForm *alertviews.ThresholdForm
	reportsView   *repviews.ReportsView

	// UI state
	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool
	confirm     confirmKind

	// Current view
	currentModule  Module
	previousModule Module
	showDetail     bool // Show detail view instead of list
	showForm       bool // Show add/edit form
	searchMode     bool // Search input mode
	searchInput    string

	// Stock adjustment entry ('+' receive, '-' dispense)
	adjustMode  bool
	adjustDelta int
	adjustInput string

	// Operation feedback
	notices []Notice

	// Dashboard data (refreshed on tick and after mutations)
	stats      *models.InventoryStats
	summary    models.AlertSummary
	topAlerts  []*models.Alert
	popupCount int
	lastEval   time.Time
}

// Notice is a transient operation status line.
type Notice struct {
	Level   NoticeLevel
	Message string
	Time    time.Time
}

// NoticeLevel indicates the severity of a notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeCritical
)

// tickMsg is sent periodically to update the UI.
type tickMsg time.Time

// New creates a new App instance.
func New(db *database.DB, cfg *config.Config, clock util.Clock, save alerting.SaveThresholdsFunc) *App {
	alertSvc := alerting.NewService(db.DB, cfg.Alerts, clock, save)

	thresholds := alertSvc.Thresholds
	invSvc := inventory.NewService(db.DB, clock, thresholds)
	repSvc := reports.NewService(db.DB, clock, thresholds)

	inventoryView := invviews.NewListView(invSvc)
	inventoryView.SetNow(clock.Now())

	alertsView := alertviews.NewAlertsView(alertSvc)

	reportsView := repviews.NewReportsView(repSvc)
	reportsView.SetNow(clock.Now())

	return &App{
		db:            db,
		config:        cfg,
		clock:         clock,
		inventorySvc:  invSvc,
		alertSvc:      alertSvc,
		reportSvc:     repSvc,
		inventoryView: inventoryView,
		alertsView:    alertsView,
		reportsView:   reportsView,
		theme:         NewTheme(cfg.Display.ColorScheme),
		keys:          DefaultKeyMap(),
		currentModule: ModuleDashboard,
		notices:       []Notice{},
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
		a.loadStats(),
		a.evaluateAlerts(),
	)
}

// tickCmd returns a command that sends tick messages.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type statsMsg struct {
	stats *models.InventoryStats
	err   error
}

type inventoryLoadedMsg struct {
	err error
}

type movementsLoadedMsg struct {
	err error
}

type alertsEvaluatedMsg struct {
	summary models.AlertSummary
	top     []*models.Alert
	popups  int
	err     error
}

type alertsLoadedMsg struct {
	err error
}

type reportLoadedMsg struct {
	err error
}

type codeSuggestedMsg struct {
	code string
	err  error
}

type medicineSavedMsg struct {
	err error
}

type medicineDeletedMsg struct {
	err error
}

type stockAdjustedMsg struct {
	err error
}

type alertDismissedMsg struct {
	err error
}

type dismissalsClearedMsg struct {
	err error
}

type thresholdsSavedMsg struct {
	err error
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.updateViewDimensions()
		return a, nil

	case tickMsg:
		now := a.clock.Now()
		a.inventoryView.SetNow(now)
		a.reportsView.SetNow(now)
		if now.Sub(a.lastEval) >= a.alertSvc.RecheckInterval() {
			return a, tea.Batch(tickCmd(), a.evaluateAlerts())
		}
		return a, tickCmd()

	case statsMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to load inventory stats: "+msg.err.Error())
			return a, nil
		}
		a.stats = msg.stats
		return a, nil

	case alertsEvaluatedMsg:
		a.lastEval = a.clock.Now()
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Alert evaluation failed: "+msg.err.Error())
		}
		a.summary = msg.summary
		a.topAlerts = msg.top
		a.popupCount = msg.popups
		return a, nil

	case inventoryLoadedMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to load inventory: "+msg.err.Error())
		}
		return a, nil

	case movementsLoadedMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to load movements: "+msg.err.Error())
		}
		return a, nil

	case alertsLoadedMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to load alerts: "+msg.err.Error())
		}
		return a, nil

	case reportLoadedMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to generate report: "+msg.err.Error())
		}
		return a, nil

	case codeSuggestedMsg:
		// Best effort: a failed suggestion just leaves the field blank
		if msg.err == nil && a.showForm && a.medicineForm != nil {
			a.medicineForm.SetCodeSuggestion(msg.code)
		}
		return a, nil

	case medicineSavedMsg:
		a.showForm = false
		a.medicineForm = nil
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to save medicine: "+msg.err.Error())
		} else {
			a.AddNotice(NoticeInfo, "Medicine saved")
		}
		return a, tea.Batch(a.loadInventory(), a.loadStats(), a.evaluateAlerts())

	case medicineDeletedMsg:
		a.showDetail = false
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to delete medicine: "+msg.err.Error())
		} else {
			a.AddNotice(NoticeInfo, "Medicine deleted")
		}
		return a, tea.Batch(a.loadInventory(), a.loadStats(), a.evaluateAlerts())

	case stockAdjustedMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Stock adjustment failed: "+msg.err.Error())
		} else {
			a.AddNotice(NoticeInfo, "Stock updated")
		}
		return a, tea.Batch(a.loadInventory(), a.loadStats(), a.evaluateAlerts())

	case alertDismissedMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to dismiss alert: "+msg.err.Error())
		} else {
			a.AddNotice(NoticeInfo, "Alert dismissed")
		}
		return a, tea.Batch(a.loadAlerts(), a.evaluateAlerts())

	case dismissalsClearedMsg:
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to clear dismissals: "+msg.err.Error())
		} else {
			a.AddNotice(NoticeInfo, "Dismissed alerts restored")
		}
		return a, tea.Batch(a.loadAlerts(), a.evaluateAlerts())

	case thresholdsSavedMsg:
		a.thresholdForm = nil
		if msg.err != nil {
			a.AddNotice(NoticeWarning, "Failed to save thresholds: "+msg.err.Error())
		} else {
			a.AddNotice(NoticeInfo, "Thresholds updated")
		}
		return a, tea.Batch(a.loadAlerts(), a.evaluateAlerts())
	}

	return a, nil
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle confirmation first (modal takes priority)
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.showConfirm = false
			switch a.confirm {
			case confirmQuit:
				a.quitting = true
				return a, tea.Quit
			case confirmDelete:
				if m := a.inventoryView.SelectedMedicine(); m != nil {
					return a, a.deleteMedicine(m.ID)
				}
			case confirmClearDismissed:
				return a, a.clearDismissed()
			}
			return a, nil
		case "n", "N", "esc":
			a.showConfirm = false
			return a, nil
		}
		return a, nil
	}

	// Handle form modes BEFORE global keys - forms need all input
	if a.currentModule == ModuleInventory && a.showForm {
		return a.handleFormKeys(msg)
	}
	if a.currentModule == ModuleAlerts && a.thresholdForm != nil {
		return a.handleThresholdFormKeys(msg)
	}

	// Handle search mode BEFORE global keys - search needs text input
	if a.currentModule == ModuleInventory && a.searchMode {
		return a.handleSearchKeys(msg)
	}

	// Handle stock adjustment entry BEFORE global keys
	if a.currentModule == ModuleInventory && a.adjustMode {
		return a.handleAdjustKeys(msg)
	}

	// Global key bindings (only when not in input mode)
	if a.keys.IsQuit(msg) {
		a.confirm = confirmQuit
		a.showConfirm = true
		return a, nil
	}

	// Function key navigation (always available)
	if a.keys.IsFunctionKey(msg) {
		module := a.keys.GetFunctionKeyModule(msg)
		switch module {
		case "quit":
			a.confirm = confirmQuit
			a.showConfirm = true
		case "help":
			a.previousModule = a.currentModule
			a.currentModule = ModuleHelp
		case "dashboard":
			a.currentModule = ModuleDashboard
			a.showDetail = false
			return a, tea.Batch(a.loadStats(), a.evaluateAlerts())
		case "inventory":
			a.currentModule = ModuleInventory
			a.showDetail = false
			return a, a.loadInventory()
		case "alerts":
			a.currentModule = ModuleAlerts
			a.showDetail = false
			return a, tea.Batch(a.evaluateAlerts(), a.loadAlerts())
		case "reports":
			a.currentModule = ModuleReports
			a.showDetail = false
			return a, a.loadReport()
		}
		return a, nil
	}

	// Help shortcut '?'
	if a.keys.Help.Matches(msg) {
		a.previousModule = a.currentModule
		a.currentModule = ModuleHelp
		return a, nil
	}

	// Back navigation (only when not in input mode)
	if a.keys.Back.Matches(msg) {
		if a.showDetail {
			a.showDetail = false
			return a, nil
		}
		if a.currentModule == ModuleHelp && a.previousModule != "" {
			a.currentModule = a.previousModule
			a.previousModule = ""
		}
		return a, nil
	}

	// Module-specific key handling
	switch a.currentModule {
	case ModuleInventory:
		return a.handleInventoryKeys(msg)
	case ModuleAlerts:
		return a.handleAlertKeys(msg)
	case ModuleReports:
		return a.handleReportKeys(msg)
	}

	return a, nil
}

// handleInventoryKeys handles key presses in the inventory module.
// Note: form, search and adjust modes are handled in handleKeyPress
// before this is called
func (a *App) handleInventoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDetail {
		// In detail view
		switch msg.String() {
		case "esc":
			a.showDetail = false
		case "e":
			// Edit medicine
			if m := a.inventoryView.SelectedMedicine(); m != nil {
				a.medicineForm = invviews.NewMedicineForm(invviews.FormModeEdit)
				a.medicineForm.SetMedicine(m)
				a.showForm = true
				a.showDetail = false
			}
		case "x":
			// Delete medicine - show confirmation
			if a.inventoryView.SelectedMedicine() != nil {
				a.confirm = confirmDelete
				a.showConfirm = true
			}
		case "+":
			a.adjustMode = true
			a.adjustDelta = 1
			a.adjustInput = ""
		case "-":
			a.adjustMode = true
			a.adjustDelta = -1
			a.adjustInput = ""
		}
		return a, nil
	}

	// In list view
	switch msg.String() {
	case "up", "k":
		a.inventoryView.MoveUp()
	case "down", "j":
		a.inventoryView.MoveDown()
	case "enter":
		if a.inventoryView.SelectedMedicine() != nil {
			a.showDetail = true
			return a, a.loadMovements()
		}
	case "pgup":
		a.inventoryView.PrevPage()
		return a, a.loadInventory()
	case "pgdown":
		a.inventoryView.NextPage()
		return a, a.loadInventory()
	case "a":
		// Add new medicine
		a.medicineForm = invviews.NewMedicineForm(invviews.FormModeAdd)
		a.showForm = true
		return a, a.suggestCode()
	case "/", "s":
		// Enter search mode
		a.searchMode = true
		a.searchInput = ""
	case "f":
		// Cycle status filter
		a.inventoryView.CycleStatusFilter()
		return a, a.loadInventory()
	case "o":
		// Cycle list ordering
		a.inventoryView.CycleSort()
		return a, a.loadInventory()
	case "+":
		if a.inventoryView.SelectedMedicine() != nil {
			a.adjustMode = true
			a.adjustDelta = 1
			a.adjustInput = ""
		}
	case "-":
		if a.inventoryView.SelectedMedicine() != nil {
			a.adjustMode = true
			a.adjustDelta = -1
			a.adjustInput = ""
		}
	}

	return a, nil
}

// handleFormKeys handles key presses in medicine form mode.
func (a *App) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.medicineForm.HandleKey(msg.String())

	if a.medicineForm.IsCancelled() {
		a.showForm = false
		a.medicineForm = nil
		return a, nil
	}

	if a.medicineForm.IsSubmitted() {
		return a, a.saveMedicine()
	}

	return a, nil
}

// handleThresholdFormKeys handles key presses in the threshold form.
func (a *App) handleThresholdFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.thresholdForm.HandleKey(msg.String())

	if a.thresholdForm.IsCancelled() {
		a.thresholdForm = nil
		return a, nil
	}

	if a.thresholdForm.IsSubmitted() {
		return a, a.saveThresholds()
	}

	return a, nil
}

// handleSearchKeys handles key presses in search mode.
func (a *App) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		a.searchMode = false
		a.searchInput = ""
		a.inventoryView.SetSearch("")
		return a, a.loadInventory()
	case "enter":
		a.searchMode = false
		a.inventoryView.SetSearch(a.searchInput)
		return a, a.loadInventory()
	case "backspace":
		if len(a.searchInput) > 0 {
			a.searchInput = a.searchInput[:len(a.searchInput)-1]
		}
	default:
		if len(key) == 1 {
			a.searchInput += key
		}
	}

	return a, nil
}

// handleAdjustKeys handles quantity entry for stock adjustments.
func (a *App) handleAdjustKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		a.adjustMode = false
		a.adjustInput = ""
	case "enter":
		a.adjustMode = false
		qty, err := strconv.Atoi(a.adjustInput)
		a.adjustInput = ""
		if err != nil || qty <= 0 {
			a.AddNotice(NoticeWarning, "Adjustment quantity must be a positive number")
			return a, nil
		}
		if m := a.inventoryView.SelectedMedicine(); m != nil {
			return a, a.adjustStock(m.ID, a.adjustDelta*qty)
		}
	case "backspace":
		if len(a.adjustInput) > 0 {
			a.adjustInput = a.adjustInput[:len(a.adjustInput)-1]
		}
	default:
		if len(key) == 1 && key >= "0" && key <= "9" {
			a.adjustInput += key
		}
	}

	return a, nil
}

// handleAlertKeys handles key presses in the alerts module.
func (a *App) handleAlertKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		a.alertsView.MoveUp()
	case "down", "j":
		a.alertsView.MoveDown()
	case "d":
		if alert := a.alertsView.SelectedAlert(); alert != nil {
			return a, a.dismissAlert(alert.ID)
		}
	case "D":
		a.confirm = confirmClearDismissed
		a.showConfirm = true
	case "t":
		a.thresholdForm = alertviews.NewThresholdForm(a.alertSvc.Thresholds())
	}

	return a, nil
}

// handleReportKeys handles key presses in the reports module.
func (a *App) handleReportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		a.reportsView.PrevKind()
		return a, a.loadReport()
	case "right", "l":
		a.reportsView.NextKind()
		return a, a.loadReport()
	case "r":
		return a, a.loadReport()
	}

	return a, nil
}

// suggestCode proposes the next free code for the add-medicine form.
func (a *App) suggestCode() tea.Cmd {
	form := a.medicineForm
	return func() tea.Msg {
		code, err := a.inventorySvc.SuggestCode(context.Background(), form.AnimalType())
		return codeSuggestedMsg{code: code, err: err}
	}
}

// saveMedicine persists the medicine from the form.
func (a *App) saveMedicine() tea.Cmd {
	form := a.medicineForm
	return func() tea.Msg {
		m, err := form.GetData()
		if err != nil {
			return medicineSavedMsg{err: err}
		}

		ctx := context.Background()
		if form.Mode() == invviews.FormModeAdd {
			input := inventory.CreateMedicineInput{
				Code:       m.Code,
				Name:       m.Name,
				Dose:       m.Dose,
				AnimalType: m.AnimalType,
				Supplier:   m.Supplier,
				Quantity:   m.Quantity,
				MinStock:   m.MinStock,
				ExpiryDate: m.ExpiryDate,
			}
			_, err = a.inventorySvc.Create(ctx, input)
		} else {
			input := inventory.UpdateMedicineInput{
				Code:       m.Code,
				Name:       m.Name,
				Dose:       m.Dose,
				AnimalType: m.AnimalType,
				Supplier:   m.Supplier,
				Quantity:   m.Quantity,
				MinStock:   m.MinStock,
				ExpiryDate: m.ExpiryDate,
			}
			_, err = a.inventorySvc.Update(ctx, m.ID, input)
		}

		return medicineSavedMsg{err: err}
	}
}

// deleteMedicine removes a medicine and its alert state.
func (a *App) deleteMedicine(id int64) tea.Cmd {
	return func() tea.Msg {
		err := a.inventorySvc.Delete(context.Background(), id)
		return medicineDeletedMsg{err: err}
	}
}

// adjustStock applies a stock delta to a medicine.
func (a *App) adjustStock(id int64, delta int) tea.Cmd {
	return func() tea.Msg {
		reason := "manual receipt"
		if delta < 0 {
			reason = "manual dispense"
		}
		_, err := a.inventorySvc.AdjustStock(context.Background(), id, delta, reason)
		return stockAdjustedMsg{err: err}
	}
}

// dismissAlert suppresses an alert.
func (a *App) dismissAlert(alertID string) tea.Cmd {
	return func() tea.Msg {
		err := a.alertSvc.Dismiss(context.Background(), alertID)
		return alertDismissedMsg{err: err}
	}
}

// clearDismissed restores all dismissed alerts.
func (a *App) clearDismissed() tea.Cmd {
	return func() tea.Msg {
		err := a.alertSvc.ClearDismissed(context.Background())
		return dismissalsClearedMsg{err: err}
	}
}

// saveThresholds applies the threshold form values.
func (a *App) saveThresholds() tea.Cmd {
	form := a.thresholdForm
	return func() tea.Msg {
		t, err := form.GetData()
		if err != nil {
			return thresholdsSavedMsg{err: err}
		}
		err = a.alertSvc.SetThresholds(context.Background(), t)
		return thresholdsSavedMsg{err: err}
	}
}

// loadInventory loads the inventory list.
func (a *App) loadInventory() tea.Cmd {
	return func() tea.Msg {
		err := a.inventoryView.Load(context.Background())
		return inventoryLoadedMsg{err: err}
	}
}

// loadMovements loads recent movements for the selected medicine.
func (a *App) loadMovements() tea.Cmd {
	return func() tea.Msg {
		err := a.inventoryView.LoadMovements(context.Background())
		return movementsLoadedMsg{err: err}
	}
}

// loadAlerts loads the alerts table.
func (a *App) loadAlerts() tea.Cmd {
	return func() tea.Msg {
		err := a.alertsView.Load(context.Background())
		return alertsLoadedMsg{err: err}
	}
}

// loadReport runs the selected report.
func (a *App) loadReport() tea.Cmd {
	return func() tea.Msg {
		err := a.reportsView.Load(context.Background())
		return reportLoadedMsg{err: err}
	}
}

// loadStats loads the dashboard inventory stats.
func (a *App) loadStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := a.inventorySvc.Stats(context.Background())
		return statsMsg{stats: stats, err: err}
	}
}

// evaluateAlerts re-runs the alert engine and snapshots the summary.
func (a *App) evaluateAlerts() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		err := a.alertSvc.Evaluate(ctx)

		active := a.alertSvc.ActiveAlerts(ctx)
		top := active
		if len(top) > 5 {
			top = top[:5]
		}

		return alertsEvaluatedMsg{
			summary: models.Summarize(active),
			top:     top,
			popups:  len(a.alertSvc.PendingPopups(ctx)),
			err:     err,
		}
	}
}

// updateViewDimensions sizes the tables to the current terminal.
func (a *App) updateViewDimensions() {
	rows := ContentHeight(a.height, 12)
	a.inventoryView.SetVisibleRows(rows)
	a.alertsView.SetVisibleRows(rows)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("FarmaVet shutting down...")
	}

	var b strings.Builder

	// Header
	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	// Status bar with time and alert state
	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	// Main content area
	contentHeight := a.height - 6 // header, status, footer
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	// Footer/status bar
	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("FARMAVET PHARMACY MANAGEMENT v%s", Version)

	medCount := 0
	if a.stats != nil {
		medCount = a.stats.TotalMedicines
	}
	pharmacyInfo := fmt.Sprintf("%s | MEDS: %d", a.config.Pharmacy.Name, medCount)

	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(pharmacyInfo) - 2
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(pharmacyInfo)

	separator := a.theme.DrawDoubleLine(a.width)

	return header + "\n" + separator
}

// renderAlertBar renders the time plus the most pressing status line.
func (a *App) renderAlertBar() string {
	now := a.clock.Now()
	timeStr := now.Format(a.config.Display.DateFormat + " " + a.config.Display.TimeFormat)

	var statusText string
	switch {
	case len(a.notices) > 0:
		notice := a.notices[0]
		switch notice.Level {
		case NoticeCritical:
			statusText = a.theme.AlertCrit.Render("CRITICAL: " + notice.Message)
		case NoticeWarning:
			statusText = a.theme.AlertWarn.Render("WARNING: " + notice.Message)
		default:
			statusText = a.theme.Alert.Render("INFO: " + notice.Message)
		}
	case a.popupCount > 0:
		statusText = a.theme.AlertCrit.Render(
			fmt.Sprintf("ATTENTION: %d new high priority alerts", a.popupCount))
	case a.summary.Total > 0:
		statusText = a.theme.AlertWarn.Render(
			fmt.Sprintf("%d active alerts (%d high, %d medium)",
				a.summary.Total, a.summary.High, a.summary.Medium))
	default:
		statusText = a.theme.Muted.Render("All stock levels nominal")
	}

	timeDisplay := a.theme.Value.Render(timeStr)
	divider := a.theme.StatusDivider.Render()

	return timeDisplay + divider + statusText
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	content := a.getModuleContent()

	contentWidth := a.width
	if contentWidth > MaxContentWidth {
		contentWidth = MaxContentWidth
	}

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	contentStyle := lipgloss.NewStyle().
		Width(contentWidth)

	return style.Render(contentStyle.Render(content))
}

// getModuleContent returns the content for the current module.
func (a *App) getModuleContent() string {
	switch a.currentModule {
	case ModuleDashboard:
		return a.renderDashboard()
	case ModuleInventory:
		return a.renderInventory()
	case ModuleAlerts:
		return a.renderAlerts()
	case ModuleReports:
		return a.reportsView.Render(a.contentWidth(), a.height-6)
	case ModuleHelp:
		return a.renderHelp()
	}
	return ""
}

func (a *App) contentWidth() int {
	if a.width > MaxContentWidth {
		return MaxContentWidth
	}
	return a.width
}

// renderInventory renders the inventory module.
func (a *App) renderInventory() string {
	// Show form if active
	if a.showForm && a.medicineForm != nil {
		return a.medicineForm.RenderResponsive(a.contentWidth())
	}

	// Show detail if active
	if a.showDetail {
		m := a.inventoryView.SelectedMedicine()
		return a.inventoryView.RenderDetail(m, a.contentWidth())
	}

	// Show input bars for search and stock adjustment
	var inputBar string
	if a.searchMode {
		inputBar = a.theme.Label.Render("SEARCH: ") +
			a.theme.Accent.Render(a.searchInput) +
			a.theme.Accent.Render("_") + "\n\n"
	} else if a.adjustMode {
		verb := "RECEIVE"
		if a.adjustDelta < 0 {
			verb = "DISPENSE"
		}
		inputBar = a.theme.Label.Render(verb+" UNITS: ") +
			a.theme.Accent.Render(a.adjustInput) +
			a.theme.Accent.Render("_") + "\n\n"
	}

	return inputBar + a.inventoryView.Render(a.contentWidth(), a.height-6)
}

// renderAlerts renders the alerts module.
func (a *App) renderAlerts() string {
	if a.thresholdForm != nil {
		return a.thresholdForm.RenderResponsive(a.contentWidth())
	}

	return a.alertsView.Render(a.contentWidth(), a.height-6)
}

// renderDashboard renders the main dashboard view.
func (a *App) renderDashboard() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ PHARMACY STATUS OVERVIEW ═══"))
	b.WriteString("\n\n")

	width := a.contentWidth()
	panelWidth := (width - 2) / 2
	if width < 80 {
		panelWidth = width
	}

	// Inventory panel
	var inv strings.Builder
	if a.stats != nil {
		inv.WriteString(fmt.Sprintf("Medicines:   %d\n", a.stats.TotalMedicines))
		inv.WriteString(fmt.Sprintf("Total Units: %d\n\n", a.stats.TotalUnits))

		available := a.stats.ByStatus[models.StockStatusAvailable]
		inv.WriteString("Available:    " + a.theme.Success.Render(fmt.Sprintf("%d", available)) + "\n")
		inv.WriteString("Low Stock:    " + a.theme.Warning.Render(fmt.Sprintf("%d", a.stats.ByStatus[models.StockStatusLowStock])) + "\n")
		inv.WriteString("Out of Stock: " + a.theme.Error.Render(fmt.Sprintf("%d", a.stats.ByStatus[models.StockStatusOutOfStock])) + "\n")
		inv.WriteString("Expired:      " + a.theme.Error.Render(fmt.Sprintf("%d", a.stats.ByStatus[models.StockStatusExpired])) + "\n\n")

		if a.stats.TotalMedicines > 0 {
			inv.WriteString("Stock health\n")
			inv.WriteString(a.theme.ProgressBar(float64(available), float64(a.stats.TotalMedicines), panelWidth-8))
		}
	} else {
		inv.WriteString(a.theme.Muted.Render("Loading..."))
	}

	// Alerts panel
	var al strings.Builder
	if a.summary.Total == 0 {
		al.WriteString(a.theme.Success.Render("No active alerts") + "\n")
	} else {
		al.WriteString(fmt.Sprintf("Active:  %d\n", a.summary.Total))
		al.WriteString("High:    " + a.theme.Error.Render(fmt.Sprintf("%d", a.summary.High)) + "\n")
		al.WriteString("Medium:  " + a.theme.Warning.Render(fmt.Sprintf("%d", a.summary.Medium)) + "\n\n")

		for _, alert := range a.topAlerts {
			style := a.theme.Warning
			if alert.Priority == models.PriorityHigh {
				style = a.theme.Error
			}
			line := fmt.Sprintf("%s: %s", alert.Type.DisplayName(), alert.MedicineName)
			al.WriteString(style.Render(Truncate(line, panelWidth-6)) + "\n")
		}
	}

	left := a.theme.Panel("INVENTORY", inv.String(), panelWidth)
	right := a.theme.Panel("ALERTS", al.String(), panelWidth)

	if width < 80 {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	} else {
		b.WriteString(SideBySide(left, right, width, 2))
	}

	return b.String()
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ HELP ═══"))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Subtitle.Render("NAVIGATION"))
	b.WriteString("\n\n")

	navItems := [][2]string{
		{"F1", "Dashboard"},
		{"F2", "Inventory"},
		{"F3", "Alerts"},
		{"F4", "Reports"},
		{"F5", "Help"},
		{"F10", "Quit"},
	}

	for _, item := range navItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Subtitle.Render("INVENTORY"))
	b.WriteString("\n\n")

	invItems := [][2]string{
		{"a", "Add medicine"},
		{"e", "Edit (in details)"},
		{"x", "Delete (in details)"},
		{"+/-", "Receive / dispense stock"},
		{"/", "Search"},
		{"f", "Cycle status filter"},
	}

	for _, item := range invItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Subtitle.Render("ALERTS"))
	b.WriteString("\n\n")

	alertItems := [][2]string{
		{"d", "Dismiss selected alert"},
		{"D", "Restore dismissed alerts"},
		{"t", "Edit thresholds"},
	}

	for _, item := range alertItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Press Esc to return"))

	return b.String()
}

// renderConfirmDialog renders the active confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	var title, question string
	switch a.confirm {
	case confirmDelete:
		title = "CONFIRM DELETE"
		question = "Delete the selected medicine and its movement history?"
		if m := a.inventoryView.SelectedMedicine(); m != nil {
			question = fmt.Sprintf("Delete %s (%s) and its movement history?", m.Name, m.Code)
		}
	case confirmClearDismissed:
		title = "CONFIRM RESTORE"
		question = "Restore all dismissed alerts?"
	default:
		title = "CONFIRM EXIT"
		question = "Are you sure you want to exit?"
	}

	dialog := a.theme.Box.Render(
		a.theme.Title.Render(title) + "\n\n" +
			a.theme.Base.Render(question) + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	separator := a.theme.DrawHorizontalLine(a.width)
	help := a.keys.StatusBarHelp()

	return separator + "\n" + a.theme.Footer.Render(help)
}

// AddNotice adds a new notice to the status display.
func (a *App) AddNotice(level NoticeLevel, message string) {
	a.notices = append([]Notice{{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	}}, a.notices...)

	// Keep only last 10 notices
	if len(a.notices) > 10 {
		a.notices = a.notices[:10]
	}
}

// ClearNotices removes all notices.
func (a *App) ClearNotices() {
	a.notices = []Notice{}
}

// Run starts the TUI application.
func Run(ctx context.Context, db *database.DB, cfg *config.Config, clock util.Clock, save alerting.SaveThresholdsFunc) error {
	app := New(db, cfg, clock, save)

	p := tea.NewProgram(app, tea.WithAltScreen())

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
