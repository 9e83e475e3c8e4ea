package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/farmavet/farmavet/internal/models"
)

// runCmd executes a command and feeds every resulting message back into
// the app, following batches.
func runCmd(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()

	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(t, app, c)
		}
		return
	}
	if _, ok := msg.(tickMsg); ok {
		return
	}
	_, next := app.Update(msg)
	runCmd(t, app, next)
}

// press sends a key and runs the resulting commands to completion.
func press(t *testing.T, app *App, msg tea.KeyMsg) {
	t.Helper()

	_, cmd := app.Update(msg)
	runCmd(t, app, cmd)
}

func TestApp_InitialState(t *testing.T) {
	app, _ := newTestApp(t)

	if app.currentModule != ModuleDashboard {
		t.Errorf("expected initial module Dashboard, got %s", app.currentModule)
	}
	if !app.ready {
		t.Error("expected app to be ready")
	}
	if app.quitting {
		t.Error("expected app not to be quitting")
	}
	if app.showDetail {
		t.Error("expected no detail shown initially")
	}
	if app.showForm {
		t.Error("expected no form shown initially")
	}
	if app.searchMode {
		t.Error("expected search mode off initially")
	}
}

func TestApp_Init_ReturnsCmd(t *testing.T) {
	app, _ := newTestApp(t)

	if app.Init() == nil {
		t.Error("expected non-nil init command")
	}
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := newTestApp(t)
	app.ready = false

	output := app.View()
	if !strings.Contains(output, "Initializing") {
		t.Error("expected initialization message when not ready")
	}
}

func TestApp_View_Quitting(t *testing.T) {
	app, _ := newTestApp(t)
	app.quitting = true

	output := app.View()
	if !strings.Contains(output, "shutting down") {
		t.Error("expected shutdown message when quitting")
	}
}

func TestApp_View_Dashboard(t *testing.T) {
	app, _ := newTestApp(t)
	output := app.View()

	if !strings.Contains(output, "PHARMACY STATUS OVERVIEW") {
		t.Error("expected dashboard title in view output")
	}
	if !strings.Contains(output, "FARMAVET PHARMACY MANAGEMENT") {
		t.Error("expected header in view output")
	}
	if !strings.Contains(output, "[F1]Dashboard") {
		t.Error("expected footer key help in view output")
	}
}

func TestApp_WindowResize(t *testing.T) {
	app, _ := newTestApp(t)
	app.ready = false

	app.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	if !app.ready {
		t.Error("expected app ready after window size message")
	}
	if app.width != 80 || app.height != 30 {
		t.Errorf("expected 80x30, got %dx%d", app.width, app.height)
	}
}

func TestApp_QuitConfirmation(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, keyMsg("q"))
	if !app.showConfirm {
		t.Fatal("expected quit confirmation dialog")
	}

	output := app.View()
	if !strings.Contains(output, "CONFIRM EXIT") {
		t.Error("expected confirmation dialog in view")
	}

	press(t, app, keyMsg("n"))
	if app.showConfirm {
		t.Error("expected dialog dismissed after n")
	}
	if app.quitting {
		t.Error("expected app not quitting after declining")
	}
}

func TestApp_QuitConfirmed(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, keyMsg("q"))
	_, cmd := app.Update(keyMsg("y"))

	if !app.quitting {
		t.Error("expected app quitting after confirmation")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestApp_F10_OpensQuitConfirm(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF10))
	if !app.showConfirm {
		t.Error("expected quit confirmation after F10")
	}
}

func TestApp_FunctionKeyNavigation(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	if app.currentModule != ModuleInventory {
		t.Errorf("expected inventory module after F2, got %s", app.currentModule)
	}

	press(t, app, specialKeyMsg(tea.KeyF3))
	if app.currentModule != ModuleAlerts {
		t.Errorf("expected alerts module after F3, got %s", app.currentModule)
	}

	press(t, app, specialKeyMsg(tea.KeyF4))
	if app.currentModule != ModuleReports {
		t.Errorf("expected reports module after F4, got %s", app.currentModule)
	}

	press(t, app, specialKeyMsg(tea.KeyF1))
	if app.currentModule != ModuleDashboard {
		t.Errorf("expected dashboard after F1, got %s", app.currentModule)
	}
}

func TestApp_HelpAndBack(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("?"))
	if app.currentModule != ModuleHelp {
		t.Fatalf("expected help module, got %s", app.currentModule)
	}

	output := app.View()
	if !strings.Contains(output, "NAVIGATION") {
		t.Error("expected navigation section in help")
	}

	press(t, app, specialKeyMsg(tea.KeyEsc))
	if app.currentModule != ModuleInventory {
		t.Errorf("expected return to inventory, got %s", app.currentModule)
	}
}

func TestApp_Inventory_EmptyList(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	output := app.View()

	if !strings.Contains(output, "No medicines found") {
		t.Error("expected empty inventory message")
	}
}

func TestApp_Inventory_ListsMedicines(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	output := app.View()

	if !strings.Contains(output, "AMOX-500") {
		t.Error("expected medicine code in inventory view")
	}
	if !strings.Contains(output, "Amoxicillin 500mg") {
		t.Error("expected medicine name in inventory view")
	}
}

func TestApp_Inventory_OpenAddForm(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("a"))

	if !app.showForm {
		t.Fatal("expected form shown after a")
	}

	output := app.View()
	if !strings.Contains(output, "ADD MEDICINE") {
		t.Error("expected add form title")
	}
}

func TestApp_Inventory_AddFormSuggestsCode(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "DOG007", "Antiparasitario Canino", 20, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("a"))

	output := app.View()
	if !strings.Contains(output, "DOG008") {
		t.Error("expected next free code suggested in the add form")
	}
}

func TestApp_Inventory_SuggestionKeepsTypedCode(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("a"))

	// Replace the prefilled suggestion with a typed code; a late
	// suggestion must not overwrite it
	for i := 0; i < len("DOG001"); i++ {
		press(t, app, specialKeyMsg(tea.KeyBackspace))
	}
	press(t, app, keyMsg("X"))
	app.medicineForm.SetCodeSuggestion("DOG001")

	if strings.Contains(app.View(), "DOG001") {
		t.Error("expected typed code kept over the suggestion")
	}
}

func TestApp_Inventory_CancelForm(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("a"))
	press(t, app, specialKeyMsg(tea.KeyEsc))

	if app.showForm {
		t.Error("expected form closed after esc")
	}
	if app.medicineForm != nil {
		t.Error("expected form cleared after cancel")
	}
}

func TestApp_Inventory_SearchFlow(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))
	insertTestMedicine(t, app, "MELOX-5", "Meloxicam 5mg", 20, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("/"))
	if !app.searchMode {
		t.Fatal("expected search mode after /")
	}

	for _, ch := range "melox" {
		press(t, app, keyMsg(string(ch)))
	}
	press(t, app, specialKeyMsg(tea.KeyEnter))

	if app.searchMode {
		t.Error("expected search mode off after enter")
	}
	if app.inventoryView.Search() != "melox" {
		t.Errorf("expected search term melox, got %q", app.inventoryView.Search())
	}

	output := app.View()
	if !strings.Contains(output, "MELOX-5") {
		t.Error("expected matching medicine in output")
	}
	if strings.Contains(output, "AMOX-500") {
		t.Error("expected non-matching medicine filtered out")
	}
}

func TestApp_Inventory_SearchEscape(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("/"))
	press(t, app, keyMsg("x"))
	press(t, app, specialKeyMsg(tea.KeyEsc))

	if app.searchMode {
		t.Error("expected search mode off after esc")
	}
	if app.inventoryView.Search() != "" {
		t.Error("expected search cleared after esc")
	}
}

func TestApp_Inventory_DetailView(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, specialKeyMsg(tea.KeyEnter))

	if !app.showDetail {
		t.Fatal("expected detail view after enter")
	}

	output := app.View()
	if !strings.Contains(output, "MEDICINE DETAILS") {
		t.Error("expected detail title in output")
	}

	press(t, app, specialKeyMsg(tea.KeyEsc))
	if app.showDetail {
		t.Error("expected detail closed after esc")
	}
}

func TestApp_Inventory_EditFromDetail(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, specialKeyMsg(tea.KeyEnter))
	press(t, app, keyMsg("e"))

	if !app.showForm {
		t.Fatal("expected edit form")
	}
	if app.showDetail {
		t.Error("expected detail closed when form opens")
	}

	output := app.View()
	if !strings.Contains(output, "EDIT MEDICINE") {
		t.Error("expected edit form title")
	}
}

func TestApp_Inventory_DeleteFlow(t *testing.T) {
	app, _ := newTestApp(t)
	id := insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, specialKeyMsg(tea.KeyEnter))
	press(t, app, keyMsg("x"))

	if !app.showConfirm {
		t.Fatal("expected delete confirmation")
	}
	output := app.View()
	if !strings.Contains(output, "CONFIRM DELETE") {
		t.Error("expected delete dialog in view")
	}

	press(t, app, keyMsg("y"))

	if _, err := app.inventorySvc.Get(context.Background(), id); err == nil {
		t.Error("expected medicine deleted")
	}
}

func TestApp_Inventory_DeleteDeclined(t *testing.T) {
	app, _ := newTestApp(t)
	id := insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, specialKeyMsg(tea.KeyEnter))
	press(t, app, keyMsg("x"))
	press(t, app, keyMsg("n"))

	if _, err := app.inventorySvc.Get(context.Background(), id); err != nil {
		t.Error("expected medicine kept after declining delete")
	}
}

func TestApp_Inventory_ReceiveStock(t *testing.T) {
	app, _ := newTestApp(t)
	id := insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("+"))
	if !app.adjustMode {
		t.Fatal("expected adjust mode after +")
	}

	press(t, app, keyMsg("5"))
	press(t, app, specialKeyMsg(tea.KeyEnter))

	m, err := app.inventorySvc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("fetching medicine: %v", err)
	}
	if m.Quantity != 45 {
		t.Errorf("expected quantity 45 after receiving 5, got %d", m.Quantity)
	}
}

func TestApp_Inventory_DispenseStock(t *testing.T) {
	app, _ := newTestApp(t)
	id := insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("-"))
	press(t, app, keyMsg("1"))
	press(t, app, keyMsg("0"))
	press(t, app, specialKeyMsg(tea.KeyEnter))

	m, err := app.inventorySvc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("fetching medicine: %v", err)
	}
	if m.Quantity != 30 {
		t.Errorf("expected quantity 30 after dispensing 10, got %d", m.Quantity)
	}
}

func TestApp_Inventory_DispenseBelowZeroFails(t *testing.T) {
	app, _ := newTestApp(t)
	id := insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 5, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("-"))
	press(t, app, keyMsg("9"))
	press(t, app, specialKeyMsg(tea.KeyEnter))

	m, err := app.inventorySvc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("fetching medicine: %v", err)
	}
	if m.Quantity != 5 {
		t.Errorf("expected quantity unchanged at 5, got %d", m.Quantity)
	}
	if len(app.notices) == 0 {
		t.Error("expected failure notice")
	}
}

func TestApp_Inventory_AdjustEscape(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("+"))
	press(t, app, keyMsg("5"))
	press(t, app, specialKeyMsg(tea.KeyEsc))

	if app.adjustMode {
		t.Error("expected adjust mode off after esc")
	}
}

func TestApp_Inventory_StatusFilter(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 0, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("f")) // EXPIRED
	press(t, app, keyMsg("f")) // OUT_OF_STOCK

	output := app.View()
	if !strings.Contains(output, "KET-10") {
		t.Error("expected out of stock medicine in filtered view")
	}
	if strings.Contains(output, "AMOX-500") {
		t.Error("expected available medicine filtered out")
	}
}

func TestApp_Inventory_SortOrder(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 5, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("o")) // name
	press(t, app, keyMsg("o")) // expiry
	press(t, app, keyMsg("o")) // quantity ascending

	output := app.View()
	if !strings.Contains(output, "Sort: ") {
		t.Error("expected active sort in header")
	}
	if strings.Index(output, "KET-10") > strings.Index(output, "AMOX-500") {
		t.Error("expected the smaller quantity listed first")
	}
}

func TestApp_Alerts_EmptyState(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF3))
	output := app.View()

	if !strings.Contains(output, "No active alerts") {
		t.Error("expected empty alerts message")
	}
}

func TestApp_Alerts_ShowsActiveAlerts(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 0, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF3))
	output := app.View()

	if !strings.Contains(output, "Out of Stock") {
		t.Error("expected out of stock alert in view")
	}
	if !strings.Contains(output, "KET-10") {
		t.Error("expected medicine code in alert row")
	}
}

func TestApp_Alerts_Dismiss(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 0, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF3))
	if app.alertsView.SelectedAlert() == nil {
		t.Fatal("expected a selectable alert")
	}

	press(t, app, keyMsg("d"))

	if len(app.alertSvc.ActiveAlerts(context.Background())) != 0 {
		t.Error("expected alert dismissed")
	}
}

func TestApp_Alerts_ClearDismissed(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 0, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF3))
	press(t, app, keyMsg("d"))

	press(t, app, keyMsg("D"))
	if !app.showConfirm {
		t.Fatal("expected restore confirmation")
	}
	press(t, app, keyMsg("y"))

	if len(app.alertSvc.ActiveAlerts(context.Background())) != 1 {
		t.Error("expected alert restored after clearing dismissals")
	}
}

func TestApp_Alerts_ThresholdForm(t *testing.T) {
	app, saved := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF3))
	press(t, app, keyMsg("t"))

	if app.thresholdForm == nil {
		t.Fatal("expected threshold form open")
	}

	output := app.View()
	if !strings.Contains(output, "ALERT THRESHOLDS") {
		t.Error("expected threshold form in view")
	}

	// Change expiry days from 15 to 30 and save
	press(t, app, specialKeyMsg(tea.KeyBackspace))
	press(t, app, specialKeyMsg(tea.KeyBackspace))
	press(t, app, keyMsg("3"))
	press(t, app, keyMsg("0"))
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.thresholdForm != nil {
		t.Error("expected form closed after save")
	}
	if app.alertSvc.Thresholds().ExpiryDays != 30 {
		t.Errorf("expected expiry days 30, got %d", app.alertSvc.Thresholds().ExpiryDays)
	}
	if saved.ExpiryDays != 30 {
		t.Errorf("expected thresholds persisted, got %+v", *saved)
	}
}

func TestApp_Alerts_ThresholdFormCancel(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF3))
	press(t, app, keyMsg("t"))
	press(t, app, specialKeyMsg(tea.KeyEsc))

	if app.thresholdForm != nil {
		t.Error("expected form closed after esc")
	}
	if app.alertSvc.Thresholds().ExpiryDays != 15 {
		t.Error("expected thresholds unchanged after cancel")
	}
}

func TestApp_Reports_Navigation(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF4))
	if app.currentModule != ModuleReports {
		t.Fatalf("expected reports module, got %s", app.currentModule)
	}

	output := app.View()
	if !strings.Contains(output, "REPORTS") {
		t.Error("expected reports title")
	}

	press(t, app, specialKeyMsg(tea.KeyRight))
	if app.reportsView.Kind() != 1 {
		t.Errorf("expected second report selected, got %v", app.reportsView.Kind())
	}

	press(t, app, specialKeyMsg(tea.KeyLeft))
	if app.reportsView.Kind() != 0 {
		t.Errorf("expected first report selected, got %v", app.reportsView.Kind())
	}
}

func TestApp_Reports_InventorySummary(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF4))
	output := app.View()

	if !strings.Contains(output, "BY STATUS") {
		t.Error("expected inventory summary sections")
	}
}

func TestApp_Dashboard_ShowsStats(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "AMOX-500", "Amoxicillin 500mg", 40, 10, testNow.AddDate(1, 0, 0))
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 0, 5, testNow.AddDate(1, 0, 0))

	press(t, app, specialKeyMsg(tea.KeyF1))
	output := app.View()

	if !strings.Contains(output, "INVENTORY") {
		t.Error("expected inventory panel")
	}
	if !strings.Contains(output, "ALERTS") {
		t.Error("expected alerts panel")
	}
	if !strings.Contains(output, "Total Units: 40") {
		t.Error("expected unit total in dashboard")
	}
}

func TestApp_AlertBar_NominalWhenQuiet(t *testing.T) {
	app, _ := newTestApp(t)

	output := app.renderAlertBar()
	if !strings.Contains(output, "All stock levels nominal") {
		t.Error("expected nominal status with no alerts")
	}
}

func TestApp_AlertBar_ShowsNotice(t *testing.T) {
	app, _ := newTestApp(t)
	app.AddNotice(NoticeWarning, "test warning")

	output := app.renderAlertBar()
	if !strings.Contains(output, "WARNING: test warning") {
		t.Error("expected warning notice in alert bar")
	}
}

func TestApp_AlertBar_ShowsAlertCounts(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 0, 5, testNow.AddDate(1, 0, 0))

	runCmd(t, app, app.evaluateAlerts())
	app.popupCount = 0

	output := app.renderAlertBar()
	if !strings.Contains(output, "1 active alerts") {
		t.Errorf("expected alert count in bar, got %q", output)
	}
}

func TestApp_AlertBar_HighPriorityAttention(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 0, 5, testNow.AddDate(1, 0, 0))

	runCmd(t, app, app.evaluateAlerts())

	output := app.renderAlertBar()
	if !strings.Contains(output, "ATTENTION") {
		t.Errorf("expected attention line for unseen high alerts, got %q", output)
	}
}

func TestApp_Notices_Capped(t *testing.T) {
	app, _ := newTestApp(t)

	for i := 0; i < 15; i++ {
		app.AddNotice(NoticeInfo, "notice")
	}
	if len(app.notices) != 10 {
		t.Errorf("expected 10 notices, got %d", len(app.notices))
	}

	app.ClearNotices()
	if len(app.notices) != 0 {
		t.Error("expected notices cleared")
	}
}

func TestApp_Tick_ReschedulesAndEvaluates(t *testing.T) {
	app, _ := newTestApp(t)

	// First tick after start is past the recheck interval (lastEval zero)
	_, cmd := app.Update(tickMsg(testNow))
	if cmd == nil {
		t.Fatal("expected command from tick")
	}

	runCmd(t, app, cmd)
	if !app.lastEval.Equal(testNow) {
		t.Errorf("expected lastEval updated, got %v", app.lastEval)
	}

	// Immediately after evaluation only the next tick is scheduled
	_, cmd = app.Update(tickMsg(testNow.Add(time.Second)))
	if cmd == nil {
		t.Error("expected tick reschedule command")
	}
}

func TestApp_SaveMedicineFromForm(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("a"))

	// Fill the form: code, name, skip dose/animal/supplier, quantity,
	// min stock, expiry date. The code field opens prefilled with the
	// suggested DOG001, replace it with a custom code.
	for i := 0; i < len("DOG001"); i++ {
		press(t, app, specialKeyMsg(tea.KeyBackspace))
	}
	for _, ch := range "VAC-RAB" {
		press(t, app, keyMsg(string(ch)))
	}
	press(t, app, specialKeyMsg(tea.KeyTab))
	for _, ch := range "Rabies Vaccine" {
		press(t, app, keyMsg(string(ch)))
	}
	press(t, app, specialKeyMsg(tea.KeyTab)) // dose
	press(t, app, specialKeyMsg(tea.KeyTab)) // animal
	press(t, app, specialKeyMsg(tea.KeyTab)) // supplier
	press(t, app, specialKeyMsg(tea.KeyTab)) // quantity
	for _, ch := range "25" {
		press(t, app, keyMsg(string(ch)))
	}
	press(t, app, specialKeyMsg(tea.KeyTab)) // min stock (prefilled 0)
	press(t, app, keyMsg("5"))
	press(t, app, specialKeyMsg(tea.KeyTab)) // expiry year
	for _, ch := range "2027" {
		press(t, app, keyMsg(string(ch)))
	}
	press(t, app, specialKeyMsg(tea.KeyTab))
	for _, ch := range "06" {
		press(t, app, keyMsg(string(ch)))
	}
	press(t, app, specialKeyMsg(tea.KeyTab))
	for _, ch := range "15" {
		press(t, app, keyMsg(string(ch)))
	}

	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.showForm {
		t.Error("expected form closed after save")
	}

	m, err := app.inventorySvc.GetByCode(context.Background(), "VAC-RAB")
	if err != nil {
		t.Fatalf("expected medicine created: %v", err)
	}
	if m.Quantity != 25 {
		t.Errorf("expected quantity 25, got %d", m.Quantity)
	}
	if m.MinStock != 5 {
		t.Errorf("expected min stock 5, got %d", m.MinStock)
	}
	if m.ExpiryDate.Year() != 2027 {
		t.Errorf("expected expiry year 2027, got %d", m.ExpiryDate.Year())
	}
}

func TestApp_ExpiredMedicine_RaisesHighAlert(t *testing.T) {
	app, _ := newTestApp(t)
	insertTestMedicine(t, app, "KET-10", "Ketamine 10ml", 5, 2, testNow.AddDate(0, 0, -3))

	runCmd(t, app, app.evaluateAlerts())

	if app.summary.High == 0 {
		t.Error("expected high priority alert for expired medicine")
	}

	var found bool
	for _, alert := range app.topAlerts {
		if alert.Type == models.AlertTypeExpired {
			found = true
		}
	}
	if !found {
		t.Error("expected expired alert in top alerts")
	}
}

func TestApp_ModuleKeysIgnoredInFormMode(t *testing.T) {
	app, _ := newTestApp(t)

	press(t, app, specialKeyMsg(tea.KeyF2))
	press(t, app, keyMsg("a"))

	// "q" must type into the form, not open the quit dialog
	press(t, app, keyMsg("q"))
	if app.showConfirm {
		t.Error("expected q captured by form, not quit dialog")
	}
}
