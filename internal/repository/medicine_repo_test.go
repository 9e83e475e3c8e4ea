package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/testutil"
)

func setupMedicineTest(t *testing.T) (*MedicineRepository, *testutil.TestDB, context.Context) {
	t.Helper()
	db := testutil.NewTestDB(t)
	migrationsDir := filepath.Join("..", "database", "migrations")
	db.RunMigrations(t, migrationsDir)
	repo := NewMedicineRepository(db.DB)
	ctx := context.Background()
	t.Cleanup(func() { db.Close(t) })
	return repo, db, ctx
}

func TestMedicineRepository_Create(t *testing.T) {
	repo, _, ctx := setupMedicineTest(t)

	medicine := testutil.FixtureMedicine()

	t.Run("Create medicine", func(t *testing.T) {
		err := repo.Create(ctx, nil, medicine)
		if err != nil {
			t.Fatalf("failed to create medicine: %v", err)
		}
		if medicine.ID == 0 {
			t.Error("expected generated ID to be set")
		}

		got, err := repo.GetByID(ctx, medicine.ID)
		if err != nil {
			t.Fatalf("failed to get medicine: %v", err)
		}

		if got.Code != medicine.Code {
			t.Errorf("expected code %s, got %s", medicine.Code, got.Code)
		}
		if got.Name != medicine.Name {
			t.Errorf("expected name %s, got %s", medicine.Name, got.Name)
		}
		if got.AnimalType != medicine.AnimalType {
			t.Errorf("expected animal type %s, got %s", medicine.AnimalType, got.AnimalType)
		}
		if got.Quantity != medicine.Quantity {
			t.Errorf("expected quantity %d, got %d", medicine.Quantity, got.Quantity)
		}
		if got.MinStock != medicine.MinStock {
			t.Errorf("expected min stock %d, got %d", medicine.MinStock, got.MinStock)
		}
		if got.ExpiryDate.Format("2006-01-02") != medicine.ExpiryDate.Format("2006-01-02") {
			t.Errorf("expected expiry %s, got %s",
				medicine.ExpiryDate.Format("2006-01-02"), got.ExpiryDate.Format("2006-01-02"))
		}
	})

	t.Run("Create duplicate code fails", func(t *testing.T) {
		dup := testutil.FixtureMedicine(func(m *models.Medicine) {
			m.Code = medicine.Code
		})
		err := repo.Create(ctx, nil, dup)
		if !errors.Is(err, ErrDuplicateCode) {
			t.Errorf("expected ErrDuplicateCode, got %v", err)
		}
	})

	t.Run("Code is normalized to uppercase", func(t *testing.T) {
		m := testutil.FixtureMedicine(func(m *models.Medicine) {
			m.Code = "  low900  "
		})
		if err := repo.Create(ctx, nil, m); err != nil {
			t.Fatalf("failed to create medicine: %v", err)
		}

		got, err := repo.GetByCode(ctx, "low900")
		if err != nil {
			t.Fatalf("failed to get by code: %v", err)
		}
		if got.Code != "LOW900" {
			t.Errorf("expected code LOW900, got %s", got.Code)
		}
	})
}

func TestMedicineRepository_GetByID(t *testing.T) {
	repo, _, ctx := setupMedicineTest(t)

	medicine := testutil.FixtureMedicine()
	if err := repo.Create(ctx, nil, medicine); err != nil {
		t.Fatalf("setup: %v", err)
	}

	t.Run("Get existing medicine", func(t *testing.T) {
		got, err := repo.GetByID(ctx, medicine.ID)
		if err != nil {
			t.Fatalf("failed to get medicine: %v", err)
		}
		if got.ID != medicine.ID {
			t.Errorf("expected ID %d, got %d", medicine.ID, got.ID)
		}
	})

	t.Run("Get non-existent medicine returns ErrNotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99999)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMedicineRepository_List(t *testing.T) {
	repo, _, ctx := setupMedicineTest(t)
	now := time.Now().UTC()

	available := testutil.FixtureMedicine(func(m *models.Medicine) {
		m.Name = "Antibiótico General"
		m.AnimalType = models.AnimalGeneral
	})
	lowStock := testutil.FixtureLowStockMedicine(func(m *models.Medicine) {
		m.Name = "Antihistamínico Felino"
		m.AnimalType = models.AnimalCats
	})
	outOfStock := testutil.FixtureOutOfStockMedicine()
	expired := testutil.FixtureExpiredMedicine()

	for _, m := range []*models.Medicine{available, lowStock, outOfStock, expired} {
		if err := repo.Create(ctx, nil, m); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	page := models.DefaultPagination()
	th := models.DefaultThresholds()

	t.Run("List all", func(t *testing.T) {
		list, err := repo.List(ctx, models.MedicineFilter{}, page, now, th)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if list.Total != 4 {
			t.Errorf("expected total 4, got %d", list.Total)
		}
		if len(list.Medicines) != 4 {
			t.Errorf("expected 4 medicines, got %d", len(list.Medicines))
		}
	})

	t.Run("Filter by animal type", func(t *testing.T) {
		cats := models.AnimalCats
		list, err := repo.List(ctx, models.MedicineFilter{AnimalType: &cats}, page, now, th)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if list.Total != 1 {
			t.Errorf("expected total 1, got %d", list.Total)
		}
		if len(list.Medicines) == 1 && list.Medicines[0].ID != lowStock.ID {
			t.Errorf("expected medicine %d, got %d", lowStock.ID, list.Medicines[0].ID)
		}
	})

	t.Run("Filter by search", func(t *testing.T) {
		list, err := repo.List(ctx, models.MedicineFilter{Search: "Felino"}, page, now, th)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if list.Total != 1 {
			t.Errorf("expected total 1, got %d", list.Total)
		}
	})

	t.Run("Filter by status", func(t *testing.T) {
		tests := []struct {
			name   string
			status models.StockStatus
			wantID int64
		}{
			{"Expired", models.StockStatusExpired, expired.ID},
			{"Out of stock", models.StockStatusOutOfStock, outOfStock.ID},
			{"Low stock", models.StockStatusLowStock, lowStock.ID},
			{"Available", models.StockStatusAvailable, available.ID},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				status := tt.status
				list, err := repo.List(ctx, models.MedicineFilter{Status: &status}, page, now, th)
				if err != nil {
					t.Fatalf("failed to list: %v", err)
				}
				if list.Total != 1 {
					t.Fatalf("expected total 1, got %d", list.Total)
				}
				if list.Medicines[0].ID != tt.wantID {
					t.Errorf("expected medicine %d, got %d", tt.wantID, list.Medicines[0].ID)
				}
			})
		}
	})

	t.Run("Sort by quantity descending", func(t *testing.T) {
		sort := models.SortOption{Column: "quantity", Direction: models.SortDesc}
		list, err := repo.List(ctx, models.MedicineFilter{Sort: sort}, page, now, th)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		for i := 1; i < len(list.Medicines); i++ {
			if list.Medicines[i].Quantity > list.Medicines[i-1].Quantity {
				t.Fatalf("row %d out of order: %d after %d",
					i, list.Medicines[i].Quantity, list.Medicines[i-1].Quantity)
			}
		}
		if list.Medicines[len(list.Medicines)-1].ID != outOfStock.ID {
			t.Errorf("expected the empty medicine last, got %d", list.Medicines[len(list.Medicines)-1].ID)
		}
	})

	t.Run("Sort by expiry date", func(t *testing.T) {
		sort := models.SortOption{Column: "expiry_date", Direction: models.SortAsc}
		list, err := repo.List(ctx, models.MedicineFilter{Sort: sort}, page, now, th)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if list.Medicines[0].ID != expired.ID {
			t.Errorf("expected the expired medicine first, got %d", list.Medicines[0].ID)
		}
	})

	t.Run("Unknown sort column falls back to code order", func(t *testing.T) {
		sort := models.SortOption{Column: "id; DROP TABLE medicines", Direction: models.SortAsc}
		list, err := repo.List(ctx, models.MedicineFilter{Sort: sort}, page, now, th)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		for i := 1; i < len(list.Medicines); i++ {
			if list.Medicines[i].Code < list.Medicines[i-1].Code {
				t.Fatalf("row %d out of order: %s after %s",
					i, list.Medicines[i].Code, list.Medicines[i-1].Code)
			}
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		small := models.Pagination{Page: 1, PageSize: 3}
		list, err := repo.List(ctx, models.MedicineFilter{}, small, now, th)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(list.Medicines) != 3 {
			t.Errorf("expected 3 medicines on page 1, got %d", len(list.Medicines))
		}
		if list.TotalPages != 2 {
			t.Errorf("expected 2 pages, got %d", list.TotalPages)
		}
	})
}

func TestMedicineRepository_Update(t *testing.T) {
	repo, _, ctx := setupMedicineTest(t)

	medicine := testutil.FixtureMedicine()
	if err := repo.Create(ctx, nil, medicine); err != nil {
		t.Fatalf("setup: %v", err)
	}

	t.Run("Update quantity", func(t *testing.T) {
		medicine.Quantity = 77
		if err := repo.Update(ctx, nil, medicine); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		got, err := repo.GetByID(ctx, medicine.ID)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.Quantity != 77 {
			t.Errorf("expected quantity 77, got %d", got.Quantity)
		}
	})

	t.Run("Update non-existent returns ErrNotFound", func(t *testing.T) {
		ghost := testutil.FixtureMedicine(func(m *models.Medicine) { m.ID = 99999 })
		err := repo.Update(ctx, nil, ghost)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update to duplicate code fails", func(t *testing.T) {
		other := testutil.FixtureMedicine()
		if err := repo.Create(ctx, nil, other); err != nil {
			t.Fatalf("setup: %v", err)
		}

		other.Code = medicine.Code
		err := repo.Update(ctx, nil, other)
		if !errors.Is(err, ErrDuplicateCode) {
			t.Errorf("expected ErrDuplicateCode, got %v", err)
		}
	})
}

func TestMedicineRepository_Delete(t *testing.T) {
	repo, db, ctx := setupMedicineTest(t)

	medicine := testutil.FixtureMedicine()
	if err := repo.Create(ctx, nil, medicine); err != nil {
		t.Fatalf("setup: %v", err)
	}

	movements := NewMovementRepository(db.DB)
	if err := movements.Create(ctx, nil, testutil.FixtureMovement(medicine.ID)); err != nil {
		t.Fatalf("setup movement: %v", err)
	}

	t.Run("Delete cascades to movements", func(t *testing.T) {
		if err := repo.Delete(ctx, medicine.ID); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		if _, err := repo.GetByID(ctx, medicine.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		db.AssertRowCount(t, "stock_movements", 0)
	})

	t.Run("Delete non-existent returns ErrNotFound", func(t *testing.T) {
		err := repo.Delete(ctx, 99999)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMedicineRepository_MalformedRow(t *testing.T) {
	repo, db, ctx := setupMedicineTest(t)

	// Simulate external tampering with an unparseable expiry date.
	db.ExecSQL(t, `
		INSERT INTO medicines (code, name, animal_type, quantity, min_stock,
			expiry_date, created_at, updated_at)
		VALUES ('BAD001', 'Broken Record', 'general', 5, 2, 'not-a-date', ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339))

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll should not fail on malformed rows: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 medicine, got %d", len(all))
	}
	if !all[0].IsMalformed() {
		t.Error("expected malformed record to be flagged")
	}
}
