package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/repository"
	"github.com/farmavet/farmavet/internal/testutil"
	"github.com/farmavet/farmavet/internal/util"
)

var inventoryTestNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func setupInventoryTest(t *testing.T) (*Service, *testutil.TestDB) {
	t.Helper()

	db := testutil.NewTestDB(t)
	db.RunMigrations(t, filepath.Join("..", "..", "database", "migrations"))
	t.Cleanup(func() { db.Close(t) })

	svc := NewService(db.DB, util.NewFixedClock(inventoryTestNow), nil)
	return svc, db
}

func testCreateInput(code string) CreateMedicineInput {
	return CreateMedicineInput{
		Code:       code,
		Name:       "Amoxicilina Canina",
		Dose:       "250mg",
		AnimalType: models.AnimalDogs,
		Supplier:   "VetSupply Co",
		Quantity:   50,
		MinStock:   10,
		ExpiryDate: inventoryTestNow.AddDate(1, 0, 0),
	}
}

func TestService_Create(t *testing.T) {
	svc, db := setupInventoryTest(t)
	ctx := context.Background()

	t.Run("Create valid medicine", func(t *testing.T) {
		m, err := svc.Create(ctx, testCreateInput("DOG001"))
		if err != nil {
			t.Fatalf("failed to create medicine: %v", err)
		}
		if m.ID == 0 {
			t.Error("expected assigned id")
		}

		// Initial stock is journaled.
		movements, err := svc.Movements(ctx, models.MovementFilter{MedicineID: m.ID}, models.DefaultPagination())
		if err != nil {
			t.Fatalf("failed to list movements: %v", err)
		}
		if len(movements.Movements) != 1 {
			t.Fatalf("expected 1 movement, got %d", len(movements.Movements))
		}
		mv := movements.Movements[0]
		if mv.Type != models.MovementIn || mv.Quantity != 50 || mv.BalanceAfter != 50 {
			t.Errorf("unexpected opening movement: %+v", mv)
		}
	})

	t.Run("Create with zero stock records no movement", func(t *testing.T) {
		input := testCreateInput("DOG002")
		input.Quantity = 0

		m, err := svc.Create(ctx, input)
		if err != nil {
			t.Fatalf("failed to create medicine: %v", err)
		}

		movements, err := svc.Movements(ctx, models.MovementFilter{MedicineID: m.ID}, models.DefaultPagination())
		if err != nil {
			t.Fatalf("failed to list movements: %v", err)
		}
		if len(movements.Movements) != 0 {
			t.Errorf("expected no movements, got %d", len(movements.Movements))
		}
	})

	t.Run("Duplicate code is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, testCreateInput("DOG001"))
		if !errors.Is(err, repository.ErrDuplicateCode) {
			t.Errorf("expected ErrDuplicateCode, got %v", err)
		}
	})

	t.Run("Invalid medicine is rejected atomically", func(t *testing.T) {
		input := testCreateInput("DOG003")
		input.Name = ""

		if _, err := svc.Create(ctx, input); err == nil {
			t.Fatal("expected validation error")
		}
		db.AssertRowCount(t, "medicines", 2)
	})

	t.Run("Past expiry is rejected on create", func(t *testing.T) {
		input := testCreateInput("DOG004")
		input.ExpiryDate = inventoryTestNow.AddDate(0, 0, -1)

		if _, err := svc.Create(ctx, input); err == nil {
			t.Error("expected validation error for past expiry")
		}
	})
}

func TestService_Update(t *testing.T) {
	svc, _ := setupInventoryTest(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, testCreateInput("DOG001"))
	if err != nil {
		t.Fatalf("failed to create medicine: %v", err)
	}

	t.Run("Quantity change is journaled as adjust", func(t *testing.T) {
		input := UpdateMedicineInput{
			Code:       m.Code,
			Name:       m.Name,
			Dose:       m.Dose,
			AnimalType: m.AnimalType,
			Supplier:   m.Supplier,
			Quantity:   30,
			MinStock:   m.MinStock,
			ExpiryDate: m.ExpiryDate,
		}
		updated, err := svc.Update(ctx, m.ID, input)
		if err != nil {
			t.Fatalf("failed to update medicine: %v", err)
		}
		if updated.Quantity != 30 {
			t.Errorf("expected quantity 30, got %d", updated.Quantity)
		}

		movements, err := svc.Movements(ctx, models.MovementFilter{MedicineID: m.ID}, models.DefaultPagination())
		if err != nil {
			t.Fatalf("failed to list movements: %v", err)
		}
		if len(movements.Movements) != 2 {
			t.Fatalf("expected 2 movements, got %d", len(movements.Movements))
		}
		latest := movements.Movements[0]
		if latest.Type != models.MovementAdjust || latest.Quantity != 20 || latest.BalanceAfter != 30 {
			t.Errorf("unexpected adjust movement: %+v", latest)
		}
	})

	t.Run("Past expiry is allowed on edit", func(t *testing.T) {
		input := UpdateMedicineInput{
			Code:       m.Code,
			Name:       m.Name,
			Dose:       m.Dose,
			AnimalType: m.AnimalType,
			Supplier:   m.Supplier,
			Quantity:   30,
			MinStock:   m.MinStock,
			ExpiryDate: inventoryTestNow.AddDate(0, 0, -10),
		}
		if _, err := svc.Update(ctx, m.ID, input); err != nil {
			t.Errorf("editing to a past expiry should be allowed: %v", err)
		}
	})

	t.Run("Unknown medicine", func(t *testing.T) {
		_, err := svc.Update(ctx, 999, UpdateMedicineInput{})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestService_AdjustStock(t *testing.T) {
	svc, _ := setupInventoryTest(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, testCreateInput("DOG001"))
	if err != nil {
		t.Fatalf("failed to create medicine: %v", err)
	}

	t.Run("Restock", func(t *testing.T) {
		updated, err := svc.AdjustStock(ctx, m.ID, 10, "delivery")
		if err != nil {
			t.Fatalf("failed to adjust stock: %v", err)
		}
		if updated.Quantity != 60 {
			t.Errorf("expected quantity 60, got %d", updated.Quantity)
		}
	})

	t.Run("Dispense", func(t *testing.T) {
		updated, err := svc.AdjustStock(ctx, m.ID, -15, "dispensed")
		if err != nil {
			t.Fatalf("failed to adjust stock: %v", err)
		}
		if updated.Quantity != 45 {
			t.Errorf("expected quantity 45, got %d", updated.Quantity)
		}

		movements, err := svc.Movements(ctx, models.MovementFilter{MedicineID: m.ID}, models.DefaultPagination())
		if err != nil {
			t.Fatalf("failed to list movements: %v", err)
		}
		latest := movements.Movements[0]
		if latest.Type != models.MovementOut || latest.Quantity != 15 || latest.Reason != "dispensed" {
			t.Errorf("unexpected out movement: %+v", latest)
		}
	})

	t.Run("Cannot go below zero", func(t *testing.T) {
		_, err := svc.AdjustStock(ctx, m.ID, -1000, "oops")
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}

		current, err := svc.Get(ctx, m.ID)
		if err != nil {
			t.Fatalf("failed to get medicine: %v", err)
		}
		if current.Quantity != 45 {
			t.Errorf("failed adjustment must not change stock, got %d", current.Quantity)
		}
	})

	t.Run("Zero delta is rejected", func(t *testing.T) {
		if _, err := svc.AdjustStock(ctx, m.ID, 0, "noop"); err == nil {
			t.Error("expected error for zero adjustment")
		}
	})
}

func TestService_Delete(t *testing.T) {
	svc, db := setupInventoryTest(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, testCreateInput("DOG001"))
	if err != nil {
		t.Fatalf("failed to create medicine: %v", err)
	}
	db.ExecSQL(t, `
		INSERT INTO dismissed_alerts (alert_key, alert_id, alert_type, medicine_id, dismissed_at)
		VALUES ('lowstock_1', 'lowstock_1', 'lowstock', ?, '2024-01-01T00:00:00Z')`, m.ID)

	if err := svc.Delete(ctx, m.ID); err != nil {
		t.Fatalf("failed to delete medicine: %v", err)
	}

	db.AssertRowCount(t, "medicines", 0)
	db.AssertRowCount(t, "stock_movements", 0)
	db.AssertRowCount(t, "dismissed_alerts", 0)

	if err := svc.Delete(ctx, m.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Stats(t *testing.T) {
	svc, _ := setupInventoryTest(t)
	ctx := context.Background()

	seeds := []struct {
		code     string
		mutate   func(*CreateMedicineInput)
		pastDate bool
	}{
		{code: "AVL001", mutate: func(i *CreateMedicineInput) {}},
		{code: "LOW001", mutate: func(i *CreateMedicineInput) {
			i.Quantity = 5
			i.MinStock = 15
			i.AnimalType = models.AnimalCats
		}},
		{code: "OUT001", mutate: func(i *CreateMedicineInput) {
			i.Quantity = 0
		}},
		{code: "EXP001", pastDate: true, mutate: func(i *CreateMedicineInput) {
			i.AnimalType = models.AnimalGeneral
		}},
	}
	for _, seed := range seeds {
		input := testCreateInput(seed.code)
		seed.mutate(&input)
		m, err := svc.Create(ctx, input)
		if err != nil {
			t.Fatalf("failed to seed %s: %v", seed.code, err)
		}
		if seed.pastDate {
			// Expire it after creation, creation requires a future date.
			update := UpdateMedicineInput{
				Code: m.Code, Name: m.Name, Dose: m.Dose,
				AnimalType: m.AnimalType, Supplier: m.Supplier,
				Quantity: m.Quantity, MinStock: m.MinStock,
				ExpiryDate: inventoryTestNow.AddDate(0, 0, -30),
			}
			if _, err := svc.Update(ctx, m.ID, update); err != nil {
				t.Fatalf("failed to expire %s: %v", seed.code, err)
			}
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("failed to compute stats: %v", err)
	}

	if stats.TotalMedicines != 4 {
		t.Errorf("expected 4 medicines, got %d", stats.TotalMedicines)
	}
	if stats.TotalUnits != 50+5+0+50 {
		t.Errorf("unexpected total units %d", stats.TotalUnits)
	}
	wantStatus := map[models.StockStatus]int{
		models.StockStatusAvailable:  1,
		models.StockStatusLowStock:   1,
		models.StockStatusOutOfStock: 1,
		models.StockStatusExpired:    1,
	}
	for status, want := range wantStatus {
		if stats.ByStatus[status] != want {
			t.Errorf("expected %d %s, got %d", want, status, stats.ByStatus[status])
		}
	}
	if stats.ByAnimalType[models.AnimalDogs] != 2 {
		t.Errorf("expected 2 dog medicines, got %d", stats.ByAnimalType[models.AnimalDogs])
	}
}

func TestService_ExportCSV(t *testing.T) {
	svc, _ := setupInventoryTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, testCreateInput("DOG001")); err != nil {
		t.Fatalf("failed to create medicine: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 record, got %d rows", len(records))
	}
	if records[0][0] != "code" {
		t.Errorf("unexpected header %v", records[0])
	}
	row := records[1]
	if row[0] != "DOG001" || row[5] != "50" || row[8] != string(models.StockStatusAvailable) {
		t.Errorf("unexpected record %v", row)
	}
}

func TestService_SuggestCode(t *testing.T) {
	svc, _ := setupInventoryTest(t)
	ctx := context.Background()

	t.Run("Empty catalog starts at 001", func(t *testing.T) {
		code, err := svc.SuggestCode(ctx, models.AnimalDogs)
		if err != nil {
			t.Fatalf("suggestion failed: %v", err)
		}
		if code != "DOG001" {
			t.Errorf("expected DOG001, got %s", code)
		}
	})

	// Seed codes with a gap and an unrelated prefix.
	for _, code := range []string{"DOG001", "DOG007", "CAT002"} {
		input := testCreateInput(code)
		if code == "CAT002" {
			input.AnimalType = models.AnimalCats
		}
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("failed to create medicine %s: %v", code, err)
		}
	}

	t.Run("Continues past the highest existing sequence", func(t *testing.T) {
		code, err := svc.SuggestCode(ctx, models.AnimalDogs)
		if err != nil {
			t.Fatalf("suggestion failed: %v", err)
		}
		if code != "DOG008" {
			t.Errorf("expected DOG008, got %s", code)
		}
	})

	t.Run("Prefixes are tracked independently", func(t *testing.T) {
		code, err := svc.SuggestCode(ctx, models.AnimalCats)
		if err != nil {
			t.Fatalf("suggestion failed: %v", err)
		}
		if code != "CAT003" {
			t.Errorf("expected CAT003, got %s", code)
		}
	})

	t.Run("Unknown animal type falls back to the general prefix", func(t *testing.T) {
		code, err := svc.SuggestCode(ctx, models.AnimalType("reptiles"))
		if err != nil {
			t.Fatalf("suggestion failed: %v", err)
		}
		if code != "GEN001" {
			t.Errorf("expected GEN001, got %s", code)
		}
	})
}
