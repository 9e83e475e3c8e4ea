package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/tui/components"
)

// ThresholdForm edits the alert thresholds.
type ThresholdForm struct {
	expiryDays    *components.Input
	lowStockRatio *components.Input

	focusIndex int
	fields     []components.FormField
	submitted  bool
	cancelled  bool
	err        string
}

// NewThresholdForm creates a threshold form pre-filled with the current
// values.
func NewThresholdForm(current models.Thresholds) *ThresholdForm {
	f := &ThresholdForm{
		expiryDays: components.NewInput("Expiry Days").SetRequired(true).SetWidth(5).SetMaxLength(3).
			SetValue(fmt.Sprintf("%d", current.ExpiryDays)),
		lowStockRatio: components.NewInput("Low Stock Ratio").SetRequired(true).SetWidth(6).SetMaxLength(5).
			SetValue(strconv.FormatFloat(current.LowStockRatio, 'g', -1, 64)),
	}

	f.fields = []components.FormField{
		f.expiryDays,
		f.lowStockRatio,
	}

	f.fields[0].Focus(true)

	return f
}

// HandleKey handles key input.
func (f *ThresholdForm) HandleKey(key string) {
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
		if f.focusIndex == len(f.fields)-1 {
			f.submit()
		} else {
			f.nextField()
		}
	default:
		f.fields[f.focusIndex].HandleKey(key)
	}
}

func (f *ThresholdForm) nextField() {
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex++
	if f.focusIndex >= len(f.fields) {
		f.focusIndex = 0
	}
	f.fields[f.focusIndex].Focus(true)
}

func (f *ThresholdForm) prevField() {
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex--
	if f.focusIndex < 0 {
		f.focusIndex = len(f.fields) - 1
	}
	f.fields[f.focusIndex].Focus(true)
}

func (f *ThresholdForm) submit() {
	f.err = ""

	if _, err := f.parse(); err != nil {
		f.err = err.Error()
		return
	}

	f.submitted = true
}

func (f *ThresholdForm) parse() (models.Thresholds, error) {
	days, err := strconv.Atoi(f.expiryDays.Value())
	if err != nil {
		return models.Thresholds{}, fmt.Errorf("expiry days must be a whole number")
	}

	ratio, err := strconv.ParseFloat(f.lowStockRatio.Value(), 64)
	if err != nil {
		return models.Thresholds{}, fmt.Errorf("low stock ratio must be a number")
	}

	t := models.Thresholds{ExpiryDays: days, LowStockRatio: ratio}
	if err := t.Validate(); err != nil {
		return models.Thresholds{}, err
	}

	return t, nil
}

// IsSubmitted returns true if the form was submitted.
func (f *ThresholdForm) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if the form was cancelled.
func (f *ThresholdForm) IsCancelled() bool {
	return f.cancelled
}

// GetData returns the entered thresholds.
func (f *ThresholdForm) GetData() (models.Thresholds, error) {
	return f.parse()
}

// Render renders the form with default width.
func (f *ThresholdForm) Render() string {
	return f.RenderResponsive(0)
}

// RenderResponsive renders the form adapted to the given terminal width.
func (f *ThresholdForm) RenderResponsive(width int) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#66FF66")).Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#007700"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))

	labelWidth := 16
	if width > 0 && width < 60 {
		labelWidth = 12
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("═══ ALERT THRESHOLDS ═══"))
	b.WriteString("\n\n")

	b.WriteString(f.expiryDays.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  Days ahead an approaching expiry raises an alert."))
	b.WriteString("\n\n")

	b.WriteString(f.lowStockRatio.RenderWithLabelWidth(labelWidth))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  Stock/minimum ratio at or below which stock counts as low (0-1]."))
	b.WriteString("\n")

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("Error: " + f.err))
	}

	b.WriteString("\n\n")
	if width > 0 && width < 60 {
		b.WriteString(helpStyle.Render("Tab:Next  Ctrl+S:Save  Esc:Cancel"))
	} else {
		b.WriteString(helpStyle.Render("Tab/Down:Next  Shift+Tab/Up:Prev  Ctrl+S:Save  Esc:Cancel"))
	}

	return b.String()
}
