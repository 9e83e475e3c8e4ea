// Package reports builds summary reports over the inventory and the
// stock movement journal.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/repository"
	"github.com/farmavet/farmavet/internal/util"
)

// ThresholdsFunc supplies the thresholds in effect so report status
// columns agree with the alert engine. A nil func means defaults.
type ThresholdsFunc func() models.Thresholds

// Service computes reports. All reports are pure reads.
type Service struct {
	medicines  *repository.MedicineRepository
	movements  *repository.MovementRepository
	clock      util.Clock
	thresholds ThresholdsFunc
}

// NewService creates a new reports service.
func NewService(db *sql.DB, clock util.Clock, thresholds ThresholdsFunc) *Service {
	if thresholds == nil {
		thresholds = models.DefaultThresholds
	}
	return &Service{
		medicines:  repository.NewMedicineRepository(db),
		movements:  repository.NewMovementRepository(db),
		clock:      clock,
		thresholds: thresholds,
	}
}

// InventoryRow pairs a medicine with its computed status.
type InventoryRow struct {
	Medicine *models.Medicine
	Status   models.StockStatus
}

// InventoryReport is a full status breakdown of the inventory.
type InventoryReport struct {
	GeneratedAt    time.Time
	TotalMedicines int
	TotalUnits     int
	ByStatus       map[models.StockStatus]int
	ByAnimalType   map[models.AnimalType]int
	Rows           []InventoryRow
}

// Inventory builds the status breakdown report, rows ordered by code.
func (s *Service) Inventory(ctx context.Context) (*InventoryReport, error) {
	medicines, err := s.medicines.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}

	now := s.clock.Now()
	th := s.thresholds()

	report := &InventoryReport{
		GeneratedAt:  now,
		ByStatus:     make(map[models.StockStatus]int),
		ByAnimalType: make(map[models.AnimalType]int),
	}
	for _, m := range medicines {
		status := m.Status(now, th)
		report.TotalMedicines++
		report.TotalUnits += m.Quantity
		report.ByStatus[status]++
		report.ByAnimalType[m.AnimalType]++
		report.Rows = append(report.Rows, InventoryRow{Medicine: m, Status: status})
	}
	return report, nil
}

// ExpiryRow pairs a medicine with its day count relative to expiry.
type ExpiryRow struct {
	Medicine *models.Medicine
	Days     int // overdue for expired rows, remaining for expiring rows
}

// ExpiryReport lists expired stock and stock expiring within the window.
type ExpiryReport struct {
	GeneratedAt time.Time
	WithinDays  int
	Expired     []ExpiryRow
	Expiring    []ExpiryRow
}

// Expiry builds the expiry report. A non-positive withinDays falls back
// to the configured expiry window. Expired rows are ordered most
// overdue first, expiring rows soonest first.
func (s *Service) Expiry(ctx context.Context, withinDays int) (*ExpiryReport, error) {
	if withinDays <= 0 {
		withinDays = s.thresholds().ExpiryDays
	}

	medicines, err := s.medicines.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}

	now := s.clock.Now()
	windowEnd := now.AddDate(0, 0, withinDays)

	report := &ExpiryReport{GeneratedAt: now, WithinDays: withinDays}
	for _, m := range medicines {
		if m.IsMalformed() {
			continue
		}
		switch {
		case m.ExpiryDate.Before(now):
			report.Expired = append(report.Expired, ExpiryRow{
				Medicine: m,
				Days:     util.DaysOverdue(m.ExpiryDate, now),
			})
		case !m.ExpiryDate.After(windowEnd):
			report.Expiring = append(report.Expiring, ExpiryRow{
				Medicine: m,
				Days:     util.DaysRemaining(m.ExpiryDate, now),
			})
		}
	}

	sort.SliceStable(report.Expired, func(i, j int) bool {
		return report.Expired[i].Days > report.Expired[j].Days
	})
	sort.SliceStable(report.Expiring, func(i, j int) bool {
		return report.Expiring[i].Days < report.Expiring[j].Days
	})
	return report, nil
}

// LowStockRow pairs a medicine with its stock ratio.
type LowStockRow struct {
	Medicine *models.Medicine
	Ratio    float64
	Status   models.StockStatus
}

// LowStockReport lists medicines at or below their reorder levels.
type LowStockReport struct {
	GeneratedAt time.Time
	Rows        []LowStockRow
}

// LowStock builds the reorder report: out of stock first, then low
// stock ordered by ratio, most depleted first.
func (s *Service) LowStock(ctx context.Context) (*LowStockReport, error) {
	medicines, err := s.medicines.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}

	now := s.clock.Now()
	th := s.thresholds()

	report := &LowStockReport{GeneratedAt: now}
	for _, m := range medicines {
		if m.IsMalformed() {
			continue
		}
		var status models.StockStatus
		switch {
		case m.Quantity == 0:
			status = models.StockStatusOutOfStock
		case m.MinStock > 0 && m.StockRatio() <= th.LowStockRatio:
			status = models.StockStatusLowStock
		default:
			continue
		}
		report.Rows = append(report.Rows, LowStockRow{
			Medicine: m,
			Ratio:    m.StockRatio(),
			Status:   status,
		})
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].Ratio < report.Rows[j].Ratio
	})
	return report, nil
}

// ConsumptionReport summarizes movement activity over a date range.
type ConsumptionReport struct {
	Start       time.Time
	End         time.Time
	TotalIn     int
	TotalOut    int
	TotalAdjust int
	MostMoved   []*models.StockMovement
}

// Consumption builds the movement summary for the range, including the
// medicines with the highest outgoing volume.
func (s *Service) Consumption(ctx context.Context, start, end time.Time) (*ConsumptionReport, error) {
	totals, err := s.movements.TotalsByType(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("totaling movements: %w", err)
	}

	mostMoved, err := s.movements.MostMoved(ctx, start, end, 5)
	if err != nil {
		return nil, fmt.Errorf("ranking movements: %w", err)
	}

	return &ConsumptionReport{
		Start:       start,
		End:         end,
		TotalIn:     totals[models.MovementIn],
		TotalOut:    totals[models.MovementOut],
		TotalAdjust: totals[models.MovementAdjust],
		MostMoved:   mostMoved,
	}, nil
}
