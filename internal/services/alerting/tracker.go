package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/util"
)

// DismissalStore persists dismissed alert keys across restarts.
// repository.AlertStateRepository is the production implementation.
type DismissalStore interface {
	Contains(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string, alert *models.Alert) error
	Clear(ctx context.Context) error
	DeleteByMedicine(ctx context.Context, medicineID int64) error
}

// Tracker filters generated alerts through two suppression sets: the
// persisted dismissed set and a session-scoped shown set used to gate
// one-shot popups. Store failures are never fatal; dismissals are
// mirrored in a session set and reads fail open, treating the
// persisted set as empty.
type Tracker struct {
	store DismissalStore
	scope models.DismissalScope

	mu        sync.Mutex
	shown     map[string]struct{}
	dismissed map[string]struct{}
}

// NewTracker creates a tracker over the given store. An invalid scope
// falls back to category matching.
func NewTracker(store DismissalStore, scope models.DismissalScope) *Tracker {
	if !scope.IsValid() {
		slog.Warn("unknown dismissal scope, using category", "scope", scope)
		scope = models.DismissScopeCategory
	}
	return &Tracker{
		store:     store,
		scope:     scope,
		shown:     make(map[string]struct{}),
		dismissed: make(map[string]struct{}),
	}
}

// Scope returns the configured dismissal scope.
func (t *Tracker) Scope() models.DismissalScope {
	return t.scope
}

// IsDismissed reports whether the alert is suppressed by a prior
// dismissal. A store read failure logs and reports false so that
// alerts are shown rather than silently lost.
func (t *Tracker) IsDismissed(ctx context.Context, a *models.Alert) bool {
	key := t.key(a)

	t.mu.Lock()
	_, ok := t.dismissed[key]
	t.mu.Unlock()
	if ok {
		return true
	}

	dismissed, err := t.store.Contains(ctx, key)
	if err != nil {
		slog.Warn("dismissal lookup failed, treating alert as active",
			"alert", a.ID, "error", err)
		return false
	}
	return dismissed
}

// Dismiss records the alert as dismissed, persisted immediately.
// The session set is updated even when the write fails, so the alert
// stays suppressed until restart while the error is surfaced.
// Dismissing an already dismissed alert is a no-op.
func (t *Tracker) Dismiss(ctx context.Context, a *models.Alert) error {
	key := t.key(a)

	t.mu.Lock()
	t.dismissed[key] = struct{}{}
	t.mu.Unlock()

	if err := t.store.Add(ctx, key, a); err != nil {
		return fmt.Errorf("dismissing alert %s: %w", a.ID, err)
	}
	return nil
}

// ClearDismissed empties both the persisted dismissed set and the
// session shown set.
func (t *Tracker) ClearDismissed(ctx context.Context) error {
	if err := t.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing dismissals: %w", err)
	}
	t.mu.Lock()
	t.shown = make(map[string]struct{})
	t.dismissed = make(map[string]struct{})
	t.mu.Unlock()
	return nil
}

// ForgetMedicine drops dismissals belonging to a deleted medicine.
func (t *Tracker) ForgetMedicine(ctx context.Context, medicineID int64) error {
	if err := t.store.DeleteByMedicine(ctx, medicineID); err != nil {
		return fmt.Errorf("forgetting medicine %d: %w", medicineID, err)
	}
	return nil
}

// HasBeenShown reports whether the alert id already triggered a popup
// this session.
func (t *Tracker) HasBeenShown(alertID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.shown[alertID]
	return ok
}

// MarkShown records the alert id as having triggered a popup this
// session.
func (t *Tracker) MarkShown(alertID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown[alertID] = struct{}{}
}

// key derives the store key for an alert. Category scope keys on the
// deterministic alert id alone, so a dismissed condition stays
// dismissed even after the underlying state cycles. Instance scope
// appends a state marker so the alert resurfaces when the condition
// recurs with different state.
func (t *Tracker) key(a *models.Alert) string {
	if t.scope == models.DismissScopeCategory {
		return a.ID
	}
	switch a.Type {
	case models.AlertTypeExpired, models.AlertTypeExpiring:
		return fmt.Sprintf("%s@%s", a.ID, util.FormatDate(a.ExpiryDate))
	default:
		return fmt.Sprintf("%s@%d", a.ID, a.CurrentStock)
	}
}
