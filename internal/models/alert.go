package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// AlertType identifies the condition an alert reports.
type AlertType string

const (
	AlertTypeExpired    AlertType = "expired"
	AlertTypeExpiring   AlertType = "expiring"
	AlertTypeLowStock   AlertType = "lowstock"
	AlertTypeOutOfStock AlertType = "outofstock"
)

func (t AlertType) String() string {
	return string(t)
}

// DisplayName returns the label used in the alerts view.
func (t AlertType) DisplayName() string {
	switch t {
	case AlertTypeExpired:
		return "Expired"
	case AlertTypeExpiring:
		return "Expiring Soon"
	case AlertTypeLowStock:
		return "Low Stock"
	case AlertTypeOutOfStock:
		return "Out of Stock"
	}
	return string(t)
}

// AlertPriority orders alerts for presentation. Low exists in the
// domain but the current rules only produce high and medium.
type AlertPriority string

const (
	PriorityHigh   AlertPriority = "high"
	PriorityMedium AlertPriority = "medium"
	PriorityLow    AlertPriority = "low"
)

func (p AlertPriority) String() string {
	return string(p)
}

// Rank returns the sort weight, highest first.
func (p AlertPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Alert is one actionable condition on one medicine. IDs are
// deterministic ("type_medicineID") so repeated evaluations of the same
// state produce the same alerts.
type Alert struct {
	ID           string
	Type         AlertType
	Priority     AlertPriority
	MedicineID   int64
	MedicineCode string
	MedicineName string
	Title        string
	Message      string

	// Type-specific detail. Only the fields relevant to Type are set.
	DaysOverdue   int       // expired
	DaysRemaining int       // expiring
	ExpiryDate    time.Time // expired, expiring
	CurrentStock  int       // lowstock, outofstock
	MinStock      int       // lowstock

	// Timestamp is the evaluation time, not a condition onset time.
	Timestamp time.Time
}

// AlertID builds the deterministic identifier for a type/medicine pair.
func AlertID(t AlertType, medicineID int64) string {
	return fmt.Sprintf("%s_%d", t, medicineID)
}

// SortAlertsForDisplay orders alerts by priority (high first), breaking
// ties by timestamp descending. The sort is stable.
func SortAlertsForDisplay(alerts []*Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Priority.Rank() != alerts[j].Priority.Rank() {
			return alerts[i].Priority.Rank() > alerts[j].Priority.Rank()
		}
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
}

// AlertSummary aggregates the active alert set.
type AlertSummary struct {
	Total  int
	High   int
	Medium int
	Low    int
	ByType map[AlertType]int
}

// Summarize builds an AlertSummary from a slice of alerts.
func Summarize(alerts []*Alert) AlertSummary {
	s := AlertSummary{ByType: make(map[AlertType]int)}
	for _, a := range alerts {
		s.Total++
		s.ByType[a.Type]++
		switch a.Priority {
		case PriorityHigh:
			s.High++
		case PriorityMedium:
			s.Medium++
		case PriorityLow:
			s.Low++
		}
	}
	return s
}

// Thresholds configure alert generation.
type Thresholds struct {
	// ExpiryDays is the look-ahead window for expiring alerts.
	ExpiryDays int
	// LowStockRatio scales how aggressively low stock escalates to
	// high priority. Valid range is (0, 1].
	LowStockRatio float64
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExpiryDays:    15,
		LowStockRatio: 0.5,
	}
}

// Validate checks threshold ranges.
func (t Thresholds) Validate() error {
	var errs []error
	if t.ExpiryDays <= 0 {
		errs = append(errs, fmt.Errorf("expiry days must be positive, got %d", t.ExpiryDays))
	}
	if t.LowStockRatio <= 0 || t.LowStockRatio > 1 {
		errs = append(errs, fmt.Errorf("low stock ratio must be in (0, 1], got %g", t.LowStockRatio))
	}
	return errors.Join(errs...)
}

// Merge overlays the non-zero fields of partial onto t and returns the
// result. Zero values mean "leave unchanged".
func (t Thresholds) Merge(partial Thresholds) Thresholds {
	out := t
	if partial.ExpiryDays != 0 {
		out.ExpiryDays = partial.ExpiryDays
	}
	if partial.LowStockRatio != 0 {
		out.LowStockRatio = partial.LowStockRatio
	}
	return out
}

// DismissalScope controls what a dismissal suppresses.
type DismissalScope string

const (
	// DismissScopeCategory suppresses an alert type for a medicine
	// until dismissals are cleared.
	DismissScopeCategory DismissalScope = "category"
	// DismissScopeInstance suppresses only the current occurrence; a
	// changed condition resurfaces the alert.
	DismissScopeInstance DismissalScope = "instance"
)

// IsValid reports whether the value is a known scope.
func (s DismissalScope) IsValid() bool {
	return s == DismissScopeCategory || s == DismissScopeInstance
}
