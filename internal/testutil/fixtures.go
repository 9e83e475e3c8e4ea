package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/farmavet/farmavet/internal/models"
)

var fixtureCodeSeq atomic.Int64

// FixtureMedicine creates a test medicine with sensible defaults. Codes
// are unique across fixtures within a process so repository tests can
// insert several without colliding.
func FixtureMedicine(overrides ...func(*models.Medicine)) *models.Medicine {
	now := time.Now().UTC()
	seq := fixtureCodeSeq.Add(1)

	medicine := &models.Medicine{
		Code:       fmt.Sprintf("TST%03d", seq),
		Name:       "Amoxicilina Canina",
		Dose:       "250mg",
		AnimalType: models.AnimalDogs,
		Supplier:   "VetSupply Co",
		Quantity:   50,
		MinStock:   10,
		ExpiryDate: now.AddDate(1, 0, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, override := range overrides {
		override(medicine)
	}

	return medicine
}

// FixtureExpiredMedicine creates a medicine whose expiry date has passed.
func FixtureExpiredMedicine(overrides ...func(*models.Medicine)) *models.Medicine {
	return FixtureMedicine(append([]func(*models.Medicine){
		func(m *models.Medicine) {
			m.ExpiryDate = time.Now().UTC().AddDate(0, 0, -30)
		},
	}, overrides...)...)
}

// FixtureLowStockMedicine creates a medicine below its minimum stock.
func FixtureLowStockMedicine(overrides ...func(*models.Medicine)) *models.Medicine {
	return FixtureMedicine(append([]func(*models.Medicine){
		func(m *models.Medicine) {
			m.Quantity = 5
			m.MinStock = 15
		},
	}, overrides...)...)
}

// FixtureOutOfStockMedicine creates a medicine with no stock.
func FixtureOutOfStockMedicine(overrides ...func(*models.Medicine)) *models.Medicine {
	return FixtureMedicine(append([]func(*models.Medicine){
		func(m *models.Medicine) {
			m.Quantity = 0
		},
	}, overrides...)...)
}

// FixtureMovement creates a test stock movement with sensible defaults.
func FixtureMovement(medicineID int64, overrides ...func(*models.StockMovement)) *models.StockMovement {
	mv := &models.StockMovement{
		ID:           uuid.New().String(),
		MedicineID:   medicineID,
		Type:         models.MovementIn,
		Quantity:     10,
		BalanceAfter: 10,
		Reason:       "restock",
		CreatedAt:    time.Now().UTC(),
	}

	for _, override := range overrides {
		override(mv)
	}

	return mv
}

// FixtureAlert creates a test alert with sensible defaults.
func FixtureAlert(overrides ...func(*models.Alert)) *models.Alert {
	alert := &models.Alert{
		ID:           models.AlertID(models.AlertTypeLowStock, 1),
		Type:         models.AlertTypeLowStock,
		Priority:     models.PriorityMedium,
		MedicineID:   1,
		MedicineCode: "TST001",
		MedicineName: "Amoxicilina Canina",
		Title:        "Low Stock",
		Message:      "Amoxicilina Canina is below its minimum stock",
		CurrentStock: 5,
		MinStock:     15,
		Timestamp:    time.Now().UTC(),
	}

	for _, override := range overrides {
		override(alert)
	}

	return alert
}
