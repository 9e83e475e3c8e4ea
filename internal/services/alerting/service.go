package alerting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/farmavet/farmavet/internal/config"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/repository"
	"github.com/farmavet/farmavet/internal/util"
)

// ErrInvalidThresholds is returned when a threshold update fails
// validation. The prior thresholds remain in effect.
var ErrInvalidThresholds = errors.New("invalid alert thresholds")

// SaveThresholdsFunc persists updated thresholds, typically by writing
// them back to the configuration file. A nil func skips persistence.
type SaveThresholdsFunc func(models.Thresholds) error

// Service runs alert evaluation over the inventory. Every trigger, the
// initial load, the periodic recheck, inventory mutations and threshold
// changes, performs a full synchronous recompute; the service keeps
// only the latest result.
type Service struct {
	medicines *repository.MedicineRepository
	tracker   *Tracker
	clock     util.Clock
	save      SaveThresholdsFunc
	recheck   time.Duration

	mu          sync.RWMutex
	thresholds  models.Thresholds
	alerts      []*models.Alert
	evaluatedAt time.Time
}

// NewService creates an alerting service from the alerts configuration.
// Thresholds that fail validation fall back to the defaults.
func NewService(db *sql.DB, cfg config.AlertsConfig, clock util.Clock, save SaveThresholdsFunc) *Service {
	th := models.Thresholds{
		ExpiryDays:    cfg.ExpiryDays,
		LowStockRatio: cfg.LowStockRatio,
	}
	if err := th.Validate(); err != nil {
		slog.Warn("configured thresholds invalid, using defaults", "error", err)
		th = models.DefaultThresholds()
	}

	recheck := time.Duration(cfg.RecheckMinutes) * time.Minute
	if recheck < time.Minute {
		recheck = 5 * time.Minute
	}

	return &Service{
		medicines:  repository.NewMedicineRepository(db),
		tracker:    NewTracker(repository.NewAlertStateRepository(db), models.DismissalScope(cfg.DismissalScope)),
		clock:      clock,
		save:       save,
		recheck:    recheck,
		thresholds: th,
	}
}

// Evaluate recomputes the full alert set from the current inventory.
// On a storage read failure the previous alert set is kept so the
// display degrades to stale rather than empty.
func (s *Service) Evaluate(ctx context.Context) error {
	now := s.clock.Now()

	medicines, err := s.medicines.ListAll(ctx)
	if err != nil {
		slog.Error("alert evaluation failed, keeping previous alerts", "error", err)
		return fmt.Errorf("loading medicines: %w", err)
	}

	s.mu.RLock()
	th := s.thresholds
	s.mu.RUnlock()

	alerts := Generate(medicines, th, now)

	s.mu.Lock()
	s.alerts = alerts
	s.evaluatedAt = now
	s.mu.Unlock()

	slog.Debug("alert evaluation complete",
		"medicines", len(medicines), "alerts", len(alerts))
	return nil
}

// ActiveAlerts returns the latest evaluation minus dismissed alerts,
// ordered for display.
func (s *Service) ActiveAlerts(ctx context.Context) []*models.Alert {
	s.mu.RLock()
	snapshot := make([]*models.Alert, len(s.alerts))
	copy(snapshot, s.alerts)
	s.mu.RUnlock()

	active := make([]*models.Alert, 0, len(snapshot))
	for _, a := range snapshot {
		if !s.tracker.IsDismissed(ctx, a) {
			active = append(active, a)
		}
	}

	models.SortAlertsForDisplay(active)
	return active
}

// Summary aggregates the active alert set.
func (s *Service) Summary(ctx context.Context) models.AlertSummary {
	return models.Summarize(s.ActiveAlerts(ctx))
}

// PendingPopups returns high priority active alerts that have not yet
// triggered a popup this session. Callers mark each one shown after
// surfacing it.
func (s *Service) PendingPopups(ctx context.Context) []*models.Alert {
	var pending []*models.Alert
	for _, a := range s.ActiveAlerts(ctx) {
		if a.Priority == models.PriorityHigh && !s.tracker.HasBeenShown(a.ID) {
			pending = append(pending, a)
		}
	}
	return pending
}

// Thresholds returns the thresholds currently in effect.
func (s *Service) Thresholds() models.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// SetThresholds merges the non-zero fields of partial into the current
// thresholds, persists the result and re-evaluates all alerts. An
// invalid merge returns ErrInvalidThresholds and leaves the prior
// thresholds in effect.
func (s *Service) SetThresholds(ctx context.Context, partial models.Thresholds) error {
	s.mu.RLock()
	merged := s.thresholds.Merge(partial)
	s.mu.RUnlock()

	if err := merged.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidThresholds, err)
	}

	if s.save != nil {
		if err := s.save(merged); err != nil {
			return fmt.Errorf("persisting thresholds: %w", err)
		}
	}

	s.mu.Lock()
	s.thresholds = merged
	s.mu.Unlock()

	slog.Info("alert thresholds updated",
		"expiry_days", merged.ExpiryDays, "low_stock_ratio", merged.LowStockRatio)
	return s.Evaluate(ctx)
}

// Dismiss suppresses the identified alert. The alert must be in the
// latest evaluation.
func (s *Service) Dismiss(ctx context.Context, alertID string) error {
	s.mu.RLock()
	var target *models.Alert
	for _, a := range s.alerts {
		if a.ID == alertID {
			target = a
			break
		}
	}
	s.mu.RUnlock()

	if target == nil {
		return fmt.Errorf("alert %s is not active", alertID)
	}
	return s.tracker.Dismiss(ctx, target)
}

// ClearDismissed resets all dismissals and the session shown set.
func (s *Service) ClearDismissed(ctx context.Context) error {
	return s.tracker.ClearDismissed(ctx)
}

// ForgetMedicine drops dismissal state for a deleted medicine.
func (s *Service) ForgetMedicine(ctx context.Context, medicineID int64) error {
	return s.tracker.ForgetMedicine(ctx, medicineID)
}

// MarkShown records that an alert's popup has been surfaced this
// session.
func (s *Service) MarkShown(alertID string) {
	s.tracker.MarkShown(alertID)
}

// HasBeenShown reports whether an alert's popup was already surfaced
// this session.
func (s *Service) HasBeenShown(alertID string) bool {
	return s.tracker.HasBeenShown(alertID)
}

// RecheckInterval returns how often the periodic re-evaluation runs.
func (s *Service) RecheckInterval() time.Duration {
	return s.recheck
}

// EvaluatedAt returns the time of the latest evaluation.
func (s *Service) EvaluatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evaluatedAt
}

type alertExport struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Priority      string `json:"priority"`
	MedicineCode  string `json:"medicine_code"`
	MedicineName  string `json:"medicine_name"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	DaysOverdue   int    `json:"days_overdue,omitempty"`
	DaysRemaining int    `json:"days_remaining,omitempty"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
	CurrentStock  int    `json:"current_stock,omitempty"`
	MinStock      int    `json:"min_stock,omitempty"`
	Timestamp     string `json:"timestamp"`
}

type summaryExport struct {
	Total  int            `json:"total"`
	High   int            `json:"high"`
	Medium int            `json:"medium"`
	Low    int            `json:"low"`
	ByType map[string]int `json:"by_type"`
}

type thresholdsExport struct {
	ExpiryDays    int     `json:"expiry_days"`
	LowStockRatio float64 `json:"low_stock_ratio"`
}

type alertsExport struct {
	Alerts     []alertExport    `json:"alerts"`
	Summary    summaryExport    `json:"summary"`
	Thresholds thresholdsExport `json:"thresholds"`
	ExportedAt string           `json:"exported_at"`
}

// ExportJSON writes the active alert set as indented JSON, wrapped with
// the summary, the thresholds in effect and the export timestamp.
func (s *Service) ExportJSON(ctx context.Context, w io.Writer) error {
	active := s.ActiveAlerts(ctx)

	out := make([]alertExport, 0, len(active))
	for _, a := range active {
		e := alertExport{
			ID:            a.ID,
			Type:          a.Type.String(),
			Priority:      a.Priority.String(),
			MedicineCode:  a.MedicineCode,
			MedicineName:  a.MedicineName,
			Title:         a.Title,
			Message:       a.Message,
			DaysOverdue:   a.DaysOverdue,
			DaysRemaining: a.DaysRemaining,
			CurrentStock:  a.CurrentStock,
			MinStock:      a.MinStock,
			Timestamp:     util.FormatISO8601(a.Timestamp),
		}
		if !a.ExpiryDate.IsZero() {
			e.ExpiryDate = util.FormatDate(a.ExpiryDate)
		}
		out = append(out, e)
	}

	summary := models.Summarize(active)
	byType := make(map[string]int, len(summary.ByType))
	for t, n := range summary.ByType {
		byType[t.String()] = n
	}

	th := s.Thresholds()

	envelope := alertsExport{
		Alerts: out,
		Summary: summaryExport{
			Total:  summary.Total,
			High:   summary.High,
			Medium: summary.Medium,
			Low:    summary.Low,
			ByType: byType,
		},
		Thresholds: thresholdsExport{
			ExpiryDays:    th.ExpiryDays,
			LowStockRatio: th.LowStockRatio,
		},
		ExportedAt: util.FormatISO8601(s.clock.Now()),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope); err != nil {
		return fmt.Errorf("encoding alerts: %w", err)
	}
	return nil
}
