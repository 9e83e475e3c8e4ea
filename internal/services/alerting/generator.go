// Package alerting derives prioritized alerts from the medicine
// inventory and tracks which of them the pharmacist has dismissed.
package alerting

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/util"
)

const (
	// expiringHighWindowDays escalates an expiring alert to high
	// priority when this few days or fewer remain.
	expiringHighWindowDays = 7

	// lowStockHighRatio escalates a low stock alert to high priority
	// when quantity/minStock falls to this ratio or below.
	lowStockHighRatio = 0.25
)

// Generate evaluates every medicine against the thresholds at the given
// time and returns the complete alert set. It is a pure function of its
// inputs and safe to re-run; output order is unspecified, callers that
// display alerts sort with models.SortAlertsForDisplay.
//
// Each medicine is evaluated independently on two axes, expiry and
// stock, so a single medicine can carry up to two alerts at once.
// Malformed records are skipped and logged, never fatal.
func Generate(medicines []*models.Medicine, th models.Thresholds, now time.Time) []*models.Alert {
	var alerts []*models.Alert

	for _, m := range medicines {
		if m.IsMalformed() {
			slog.Warn("skipping malformed medicine record",
				"id", m.ID,
				"code", m.Code,
				"quantity", m.Quantity,
				"min_stock", m.MinStock,
				"expiry_date", m.ExpiryDate)
			continue
		}

		if a := expiryAlert(m, th, now); a != nil {
			alerts = append(alerts, a)
		}
		if a := stockAlert(m, th, now); a != nil {
			alerts = append(alerts, a)
		}
	}

	return alerts
}

func expiryAlert(m *models.Medicine, th models.Thresholds, now time.Time) *models.Alert {
	if m.ExpiryDate.Before(now) {
		overdue := util.DaysOverdue(m.ExpiryDate, now)
		a := newAlert(m, models.AlertTypeExpired, models.PriorityHigh, now)
		a.DaysOverdue = overdue
		a.ExpiryDate = m.ExpiryDate
		a.Message = fmt.Sprintf("%s expired %d days ago (%s)",
			m.Name, overdue, util.FormatDate(m.ExpiryDate))
		return a
	}

	windowEnd := now.AddDate(0, 0, th.ExpiryDays)
	if !m.ExpiryDate.After(windowEnd) {
		remaining := util.DaysRemaining(m.ExpiryDate, now)
		priority := models.PriorityMedium
		if remaining <= expiringHighWindowDays {
			priority = models.PriorityHigh
		}
		a := newAlert(m, models.AlertTypeExpiring, priority, now)
		a.DaysRemaining = remaining
		a.ExpiryDate = m.ExpiryDate
		a.Message = fmt.Sprintf("%s expires in %d days (%s)",
			m.Name, remaining, util.FormatDate(m.ExpiryDate))
		return a
	}

	return nil
}

func stockAlert(m *models.Medicine, th models.Thresholds, now time.Time) *models.Alert {
	if m.Quantity == 0 {
		a := newAlert(m, models.AlertTypeOutOfStock, models.PriorityHigh, now)
		a.CurrentStock = 0
		a.MinStock = m.MinStock
		a.Message = fmt.Sprintf("%s is out of stock", m.Name)
		return a
	}

	// minStock of zero means the low stock rule never applies.
	if m.MinStock == 0 {
		return nil
	}

	ratio := float64(m.Quantity) / float64(m.MinStock)
	if ratio <= th.LowStockRatio {
		priority := models.PriorityMedium
		if ratio <= lowStockHighRatio {
			priority = models.PriorityHigh
		}
		a := newAlert(m, models.AlertTypeLowStock, priority, now)
		a.CurrentStock = m.Quantity
		a.MinStock = m.MinStock
		a.Message = fmt.Sprintf("%s stock at %d units, minimum is %d",
			m.Name, m.Quantity, m.MinStock)
		return a
	}

	return nil
}

func newAlert(m *models.Medicine, t models.AlertType, p models.AlertPriority, now time.Time) *models.Alert {
	return &models.Alert{
		ID:           models.AlertID(t, m.ID),
		Type:         t,
		Priority:     p,
		MedicineID:   m.ID,
		MedicineCode: m.Code,
		MedicineName: m.Name,
		Title:        t.DisplayName(),
		Timestamp:    now,
	}
}
