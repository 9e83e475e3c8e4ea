// Package seed populates a fresh database with demonstration inventory.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/util"
)

// Config configures the seed data generator.
type Config struct {
	Now time.Time
}

// DefaultConfig returns a default seed configuration.
func DefaultConfig() Config {
	return Config{Now: time.Now()}
}

// Generator inserts demonstration medicines and their opening stock
// movements into an empty database.
type Generator struct {
	db    *sql.DB
	cfg   Config
	idGen *util.IDGenerator
}

// NewGenerator creates a new seed data generator.
func NewGenerator(db *sql.DB, cfg Config) *Generator {
	return &Generator{
		db:    db,
		cfg:   cfg,
		idGen: util.NewIDGenerator(),
	}
}

// sampleMedicine describes one seed record. Expiry is expressed as an
// offset in days from the seed time so the demo data always exercises
// each alert condition.
type sampleMedicine struct {
	code       string
	name       string
	dose       string
	animalType models.AnimalType
	supplier   string
	quantity   int
	minStock   int
	expiryDays int
}

var samples = []sampleMedicine{
	{"DOG001", "Amoxicilina Canina", "250mg", models.AnimalDogs, "VetSupply Co", 50, 10, 240},
	{"CAT002", "Antihistamínico Felino", "10mg", models.AnimalCats, "FelineCare Labs", 5, 15, 20},
	{"GEN003", "Vitaminas Multi", "5ml", models.AnimalGeneral, "AnimalHealth SA", 2, 20, 60},
	{"DOG004", "Antiparasitario Canino", "100mg", models.AnimalDogs, "VetSupply Co", 0, 8, 180},
	{"GEN005", "Desinfectante Tópico", "50ml", models.AnimalGeneral, "AnimalHealth SA", 12, 5, -10},
}

// Generate inserts all seed data in a single transaction.
func (g *Generator) Generate(ctx context.Context) error {
	slog.Info("seeding demonstration inventory", "medicines", len(samples))

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	now := g.cfg.Now
	for _, s := range samples {
		expiry := util.StartOfDay(now.AddDate(0, 0, s.expiryDays))

		res, err := tx.ExecContext(ctx, `
			INSERT INTO medicines (code, name, dose, animal_type, supplier,
				quantity, min_stock, expiry_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			s.code, s.name, s.dose, s.animalType.String(), s.supplier,
			s.quantity, s.minStock,
			expiry.Format(util.DateFormat),
			now.Format(time.RFC3339), now.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting medicine %s: %w", s.code, err)
		}

		medicineID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading medicine id for %s: %w", s.code, err)
		}

		if s.quantity == 0 {
			continue
		}

		// Opening balance movement
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_movements (id, medicine_id, type, quantity,
				balance_after, reason, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			g.idGen.NewID(), medicineID, models.MovementIn.String(),
			s.quantity, s.quantity, "initial stock",
			now.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting opening movement for %s: %w", s.code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed data: %w", err)
	}

	slog.Info("seed data complete")
	return nil
}

// IsEmpty reports whether the medicines table has no rows.
func IsEmpty(ctx context.Context, db *sql.DB) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM medicines").Scan(&count); err != nil {
		return false, fmt.Errorf("counting medicines: %w", err)
	}
	return count == 0, nil
}
