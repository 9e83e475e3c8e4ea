package models

import (
	"testing"
	"time"
)

func TestAlertID(t *testing.T) {
	tests := []struct {
		name       string
		alertType  AlertType
		medicineID int64
		want       string
	}{
		{"Expired", AlertTypeExpired, 7, "expired_7"},
		{"Expiring", AlertTypeExpiring, 12, "expiring_12"},
		{"Low stock", AlertTypeLowStock, 3, "lowstock_3"},
		{"Out of stock", AlertTypeOutOfStock, 42, "outofstock_42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlertID(tt.alertType, tt.medicineID); got != tt.want {
				t.Errorf("AlertID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortAlertsForDisplay(t *testing.T) {
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	alerts := []*Alert{
		{ID: "lowstock_1", Priority: PriorityMedium, Timestamp: base},
		{ID: "expired_2", Priority: PriorityHigh, Timestamp: base.Add(-time.Hour)},
		{ID: "expiring_3", Priority: PriorityMedium, Timestamp: base.Add(time.Hour)},
		{ID: "outofstock_4", Priority: PriorityHigh, Timestamp: base},
		{ID: "lowstock_5", Priority: PriorityLow, Timestamp: base},
	}

	SortAlertsForDisplay(alerts)

	wantOrder := []string{"outofstock_4", "expired_2", "expiring_3", "lowstock_1", "lowstock_5"}
	for i, want := range wantOrder {
		if alerts[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, alerts[i].ID, want)
		}
	}
}

func TestSortAlertsForDisplay_Stable(t *testing.T) {
	ts := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	alerts := []*Alert{
		{ID: "a", Priority: PriorityHigh, Timestamp: ts},
		{ID: "b", Priority: PriorityHigh, Timestamp: ts},
		{ID: "c", Priority: PriorityHigh, Timestamp: ts},
	}

	SortAlertsForDisplay(alerts)

	for i, want := range []string{"a", "b", "c"} {
		if alerts[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, alerts[i].ID, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	alerts := []*Alert{
		{Type: AlertTypeExpired, Priority: PriorityHigh},
		{Type: AlertTypeExpiring, Priority: PriorityMedium},
		{Type: AlertTypeExpiring, Priority: PriorityHigh},
		{Type: AlertTypeLowStock, Priority: PriorityMedium},
	}

	s := Summarize(alerts)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.High != 2 {
		t.Errorf("High = %d, want 2", s.High)
	}
	if s.Medium != 2 {
		t.Errorf("Medium = %d, want 2", s.Medium)
	}
	if s.Low != 0 {
		t.Errorf("Low = %d, want 0", s.Low)
	}
	if s.ByType[AlertTypeExpiring] != 2 {
		t.Errorf("ByType[expiring] = %d, want 2", s.ByType[AlertTypeExpiring])
	}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name       string
		thresholds Thresholds
		wantErr    bool
	}{
		{"Defaults are valid", DefaultThresholds(), false},
		{"Ratio of exactly one", Thresholds{ExpiryDays: 30, LowStockRatio: 1.0}, false},
		{"Zero expiry days", Thresholds{ExpiryDays: 0, LowStockRatio: 0.5}, true},
		{"Negative expiry days", Thresholds{ExpiryDays: -5, LowStockRatio: 0.5}, true},
		{"Zero ratio", Thresholds{ExpiryDays: 15, LowStockRatio: 0}, true},
		{"Ratio above one", Thresholds{ExpiryDays: 15, LowStockRatio: 1.5}, true},
		{"Both invalid", Thresholds{ExpiryDays: 0, LowStockRatio: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.thresholds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Thresholds.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestThresholds_Merge(t *testing.T) {
	base := DefaultThresholds()

	t.Run("Partial expiry days", func(t *testing.T) {
		got := base.Merge(Thresholds{ExpiryDays: 30})
		if got.ExpiryDays != 30 {
			t.Errorf("ExpiryDays = %d, want 30", got.ExpiryDays)
		}
		if got.LowStockRatio != 0.5 {
			t.Errorf("LowStockRatio = %g, want 0.5", got.LowStockRatio)
		}
	})

	t.Run("Partial ratio", func(t *testing.T) {
		got := base.Merge(Thresholds{LowStockRatio: 0.25})
		if got.ExpiryDays != 15 {
			t.Errorf("ExpiryDays = %d, want 15", got.ExpiryDays)
		}
		if got.LowStockRatio != 0.25 {
			t.Errorf("LowStockRatio = %g, want 0.25", got.LowStockRatio)
		}
	})

	t.Run("Empty partial changes nothing", func(t *testing.T) {
		if got := base.Merge(Thresholds{}); got != base {
			t.Errorf("Merge(zero) = %+v, want %+v", got, base)
		}
	})
}
