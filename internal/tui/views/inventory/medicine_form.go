package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/tui/components"
)

// FormMode indicates the form mode.
type FormMode int

const (
	FormModeAdd FormMode = iota
	FormModeEdit
)

// animalOptions maps the Select rows to animal types.
var animalOptions = []models.AnimalType{
	models.AnimalDogs,
	models.AnimalCats,
	models.AnimalGeneral,
}

// MedicineForm is a form for adding/editing medicines.
type MedicineForm struct {
	mode     FormMode
	medicine *models.Medicine

	// Form fields
	code     *components.Input
	name     *components.Input
	dose     *components.Input
	animal   *components.Select
	supplier *components.Input
	quantity *components.Input
	minStock *components.Input
	expYear  *components.Input
	expMonth *components.Input
	expDay   *components.Input

	// State
	focusIndex int
	fields     []components.FormField
	submitted  bool
	cancelled  bool
	err        string
}

// NewMedicineForm creates a new medicine form.
func NewMedicineForm(mode FormMode) *MedicineForm {
	labels := make([]string, len(animalOptions))
	for i, a := range animalOptions {
		labels[i] = a.DisplayName()
	}

	f := &MedicineForm{
		mode: mode,

		code:     components.NewInput("Code").SetRequired(true).SetWidth(12).SetMaxLength(20),
		name:     components.NewInput("Name").SetRequired(true).SetWidth(30),
		dose:     components.NewInput("Dose").SetWidth(20),
		animal:   components.NewSelect("Animal Type", labels),
		supplier: components.NewInput("Supplier").SetWidth(30),
		quantity: components.NewInput("Quantity").SetRequired(true).SetWidth(6).SetMaxLength(6),
		minStock: components.NewInput("Min Stock").SetWidth(6).SetMaxLength(6).SetValue("0"),
		expYear:  components.NewInput("Expiry Year").SetRequired(true).SetWidth(6).SetMaxLength(4).SetPlaceholder("YYYY"),
		expMonth: components.NewInput("Month").SetRequired(true).SetWidth(4).SetMaxLength(2).SetPlaceholder("MM"),
		expDay:   components.NewInput("Day").SetRequired(true).SetWidth(4).SetMaxLength(2).SetPlaceholder("DD"),
	}

	// Build fields list
	f.fields = []components.FormField{
		f.code,
		f.name,
		f.dose,
		f.animal,
		f.supplier,
		f.quantity,
		f.minStock,
		f.expYear,
		f.expMonth,
		f.expDay,
	}

	// Focus first field
	f.fields[0].Focus(true)

	return f
}

// SetMedicine populates the form with existing medicine data.
func (f *MedicineForm) SetMedicine(m *models.Medicine) {
	f.medicine = m
	f.code.SetValue(m.Code)
	f.name.SetValue(m.Name)
	f.dose.SetValue(m.Dose)
	f.supplier.SetValue(m.Supplier)
	f.quantity.SetValue(fmt.Sprintf("%d", m.Quantity))
	f.minStock.SetValue(fmt.Sprintf("%d", m.MinStock))
	f.expYear.SetValue(fmt.Sprintf("%d", m.ExpiryDate.Year()))
	f.expMonth.SetValue(fmt.Sprintf("%02d", m.ExpiryDate.Month()))
	f.expDay.SetValue(fmt.Sprintf("%02d", m.ExpiryDate.Day()))

	for i, a := range animalOptions {
		if a == m.AnimalType {
			f.animal.SetSelected(i)
			break
		}
	}
}

// AnimalType returns the currently selected animal type.
func (f *MedicineForm) AnimalType() models.AnimalType {
	return animalOptions[f.animal.SelectedIndex()]
}

// SetCodeSuggestion prefills the code field with a suggested value.
// A code the user already typed is left alone.
func (f *MedicineForm) SetCodeSuggestion(code string) {
	if f.mode == FormModeAdd && f.code.Value() == "" {
		f.code.SetValue(code)
	}
}

// HandleKey handles key input.
func (f *MedicineForm) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.nextField()
	case "shift+tab", "up":
		f.prevField()
	case "ctrl+s":
		f.submit()
	case "esc":
		f.cancelled = true
	case "enter":
		// Move to next field, or submit on last field
		if f.focusIndex == len(f.fields)-1 {
			f.submit()
		} else {
			f.nextField()
		}
	default:
		f.fields[f.focusIndex].HandleKey(key)
	}
}

func (f *MedicineForm) nextField() {
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex++
	if f.focusIndex >= len(f.fields) {
		f.focusIndex = 0
	}
	f.fields[f.focusIndex].Focus(true)
}

func (f *MedicineForm) prevField() {
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex--
	if f.focusIndex < 0 {
		f.focusIndex = len(f.fields) - 1
	}
	f.fields[f.focusIndex].Focus(true)
}

func (f *MedicineForm) submit() {
	f.err = ""

	valid := true
	if !f.code.Validate() {
		valid = false
	}
	if !f.name.Validate() {
		valid = false
	}

	if _, err := strconv.Atoi(f.quantity.Value()); err != nil {
		f.err = "Quantity must be a number"
		valid = false
	}
	if f.minStock.Value() != "" {
		if _, err := strconv.Atoi(f.minStock.Value()); err != nil {
			f.err = "Min stock must be a number"
			valid = false
		}
	}

	dateStr := fmt.Sprintf("%s-%s-%s", f.expYear.Value(), f.expMonth.Value(), f.expDay.Value())
	if _, err := time.Parse("2006-1-2", dateStr); err != nil {
		f.err = "Invalid expiry date"
		valid = false
	}

	if !valid {
		if f.err == "" {
			f.err = "Please fill in all required fields"
		}
		return
	}

	f.submitted = true
}

// IsSubmitted returns true if the form was submitted.
func (f *MedicineForm) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if the form was cancelled.
func (f *MedicineForm) IsCancelled() bool {
	return f.cancelled
}

// Mode returns the form mode.
func (f *MedicineForm) Mode() FormMode {
	return f.mode
}

// Medicine returns the medicine being edited, nil in add mode.
func (f *MedicineForm) Medicine() *models.Medicine {
	return f.medicine
}

// GetData returns the form data as a medicine struct.
func (f *MedicineForm) GetData() (*models.Medicine, error) {
	dateStr := fmt.Sprintf("%s-%s-%s",
		f.expYear.Value(),
		f.expMonth.Value(),
		f.expDay.Value())
	expiry, err := time.Parse("2006-1-2", dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date: %w", err)
	}

	quantity, err := strconv.Atoi(f.quantity.Value())
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %w", err)
	}

	minStock := 0
	if f.minStock.Value() != "" {
		minStock, err = strconv.Atoi(f.minStock.Value())
		if err != nil {
			return nil, fmt.Errorf("invalid min stock: %w", err)
		}
	}

	m := &models.Medicine{
		Code:       f.code.Value(),
		Name:       f.name.Value(),
		Dose:       f.dose.Value(),
		AnimalType: animalOptions[f.animal.SelectedIndex()],
		Supplier:   f.supplier.Value(),
		Quantity:   quantity,
		MinStock:   minStock,
		ExpiryDate: expiry,
	}

	// Copy ID if editing
	if f.medicine != nil {
		m.ID = f.medicine.ID
		m.CreatedAt = f.medicine.CreatedAt
	}

	return m, nil
}

// Render renders the form with default width.
func (f *MedicineForm) Render() string {
	return f.RenderResponsive(0)
}

// RenderResponsive renders the form adapted to the given terminal width.
func (f *MedicineForm) RenderResponsive(width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))

	// Adapt label width to terminal
	labelWidth := 16
	if width > 0 && width < 60 {
		labelWidth = 10
	}

	var b strings.Builder

	// Title
	title := "ADD MEDICINE"
	if f.mode == FormModeEdit {
		title = "EDIT MEDICINE"
	}
	b.WriteString(titleStyle.Render("═══ " + title + " ═══"))
	b.WriteString("\n\n")

	// Identification fields
	b.WriteString(f.code.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(f.name.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(f.dose.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(f.animal.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(f.supplier.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n\n")

	// Stock fields
	b.WriteString(f.quantity.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(f.minStock.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n\n")

	// Expiry date - adapt layout for narrow terminals
	expLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Width(labelWidth)
	if width > 0 && width < 60 {
		b.WriteString(expLabel.Render("Expiry:"))
	} else {
		b.WriteString(expLabel.Render("Expiry Date:"))
	}
	b.WriteString(" ")
	b.WriteString(f.expYear.RenderWithLabelWidth(0))
	b.WriteString(" - ")
	b.WriteString(f.expMonth.RenderWithLabelWidth(0))
	b.WriteString(" - ")
	b.WriteString(f.expDay.RenderWithLabelWidth(0))
	b.WriteString("\n")

	// Error message
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("Error: " + f.err))
	}

	// Help - adapt to width
	b.WriteString("\n\n")
	if width > 0 && width < 60 {
		b.WriteString(helpStyle.Render("Tab:Next  Ctrl+S:Save  Esc:Cancel"))
	} else {
		b.WriteString(helpStyle.Render("Tab/Down:Next  Shift+Tab/Up:Prev  Ctrl+S:Save  Esc:Cancel"))
	}

	return b.String()
}
