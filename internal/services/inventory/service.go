// Package inventory provides medicine catalog and stock management.
package inventory

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/repository"
	"github.com/farmavet/farmavet/internal/util"
)

// ErrInsufficientStock is returned when an adjustment would take a
// medicine's quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ThresholdsFunc supplies the thresholds in effect, so status columns
// and filters agree with the alert engine. A nil func means defaults.
type ThresholdsFunc func() models.Thresholds

// Service provides inventory management operations. Every quantity
// change is recorded as a StockMovement in the same transaction.
type Service struct {
	db          *sql.DB
	medicines   *repository.MedicineRepository
	movements   *repository.MovementRepository
	alertStates *repository.AlertStateRepository
	idGenerator *util.IDGenerator
	clock       util.Clock
	thresholds  ThresholdsFunc
}

// NewService creates a new inventory service.
func NewService(db *sql.DB, clock util.Clock, thresholds ThresholdsFunc) *Service {
	if thresholds == nil {
		thresholds = models.DefaultThresholds
	}
	return &Service{
		db:          db,
		medicines:   repository.NewMedicineRepository(db),
		movements:   repository.NewMovementRepository(db),
		alertStates: repository.NewAlertStateRepository(db),
		idGenerator: util.NewIDGenerator(),
		clock:       clock,
		thresholds:  thresholds,
	}
}

// Thresholds returns the classification thresholds in effect.
func (s *Service) Thresholds() models.Thresholds {
	return s.thresholds()
}

// codePrefixes maps animal types to the house code prefixes.
var codePrefixes = map[models.AnimalType]string{
	models.AnimalDogs:    "DOG",
	models.AnimalCats:    "CAT",
	models.AnimalGeneral: "GEN",
}

// SuggestCode proposes the next unused code for the given animal type
// in the house {PREFIX}{NNN} format, skipping past every code already
// in the catalog.
func (s *Service) SuggestCode(ctx context.Context, animal models.AnimalType) (string, error) {
	codes, err := s.medicines.Codes(ctx)
	if err != nil {
		return "", fmt.Errorf("loading codes: %w", err)
	}

	gen := util.NewCodeGenerator()
	for _, code := range codes {
		gen.Observe(code)
	}

	prefix, ok := codePrefixes[animal]
	if !ok {
		prefix = codePrefixes[models.AnimalGeneral]
	}
	return gen.Next(prefix), nil
}

// Create registers a new medicine. New entries must carry a future
// expiry date; initial stock is journaled as an IN movement.
func (s *Service) Create(ctx context.Context, input CreateMedicineInput) (*models.Medicine, error) {
	now := s.clock.Now()
	m := &models.Medicine{
		Code:       input.Code,
		Name:       input.Name,
		Dose:       input.Dose,
		AnimalType: input.AnimalType,
		Supplier:   input.Supplier,
		Quantity:   input.Quantity,
		MinStock:   input.MinStock,
		ExpiryDate: input.ExpiryDate,
	}
	if err := m.Validate(now, true); err != nil {
		return nil, fmt.Errorf("validating medicine: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.medicines.Create(ctx, tx, m); err != nil {
		return nil, fmt.Errorf("creating medicine: %w", err)
	}
	if m.Quantity > 0 {
		if err := s.recordMovement(ctx, tx, m, models.MovementIn, m.Quantity, "initial stock"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	slog.Info("medicine registered", "id", m.ID, "code", m.Code, "quantity", m.Quantity)
	return m, nil
}

// Get retrieves a medicine by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

// GetByCode retrieves a medicine by its code.
func (s *Service) GetByCode(ctx context.Context, code string) (*models.Medicine, error) {
	return s.medicines.GetByCode(ctx, code)
}

// List retrieves medicines with filtering and pagination. Status
// filters use the thresholds currently in effect.
func (s *Service) List(ctx context.Context, filter models.MedicineFilter, page models.Pagination) (*models.MedicineList, error) {
	return s.medicines.List(ctx, filter, page, s.clock.Now(), s.thresholds())
}

// Update edits a medicine. Past expiry dates are allowed on edit so
// already expired stock can be corrected. A quantity change is
// journaled as an ADJUST movement.
func (s *Service) Update(ctx context.Context, id int64, input UpdateMedicineInput) (*models.Medicine, error) {
	now := s.clock.Now()

	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting medicine: %w", err)
	}
	previousQty := m.Quantity

	m.Code = input.Code
	m.Name = input.Name
	m.Dose = input.Dose
	m.AnimalType = input.AnimalType
	m.Supplier = input.Supplier
	m.Quantity = input.Quantity
	m.MinStock = input.MinStock
	m.ExpiryDate = input.ExpiryDate

	if err := m.Validate(now, false); err != nil {
		return nil, fmt.Errorf("validating medicine: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.medicines.Update(ctx, tx, m); err != nil {
		return nil, fmt.Errorf("updating medicine: %w", err)
	}
	if diff := m.Quantity - previousQty; diff != 0 {
		magnitude := diff
		if magnitude < 0 {
			magnitude = -magnitude
		}
		if err := s.recordMovement(ctx, tx, m, models.MovementAdjust, magnitude, "inventory edit"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return m, nil
}

// AdjustStock applies a signed quantity change with a reason. An
// adjustment below zero fails with ErrInsufficientStock.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int, reason string) (*models.Medicine, error) {
	if delta == 0 {
		return nil, errors.New("adjustment must be non-zero")
	}

	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting medicine: %w", err)
	}

	newQty := m.Quantity + delta
	if newQty < 0 {
		return nil, fmt.Errorf("%w: %d units available, %d requested",
			ErrInsufficientStock, m.Quantity, -delta)
	}
	m.Quantity = newQty

	mvType := models.MovementIn
	magnitude := delta
	if delta < 0 {
		mvType = models.MovementOut
		magnitude = -delta
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.medicines.Update(ctx, tx, m); err != nil {
		return nil, fmt.Errorf("updating medicine: %w", err)
	}
	if err := s.recordMovement(ctx, tx, m, mvType, magnitude, reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	slog.Info("stock adjusted", "id", m.ID, "code", m.Code, "delta", delta, "balance", newQty)
	return m, nil
}

// Delete removes a medicine, its movement history (cascade) and any
// dismissal state keyed to it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.medicines.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting medicine: %w", err)
	}
	if err := s.alertStates.DeleteByMedicine(ctx, id); err != nil {
		slog.Warn("deleting dismissal state", "medicine", id, "error", err)
	}
	return nil
}

// Movements retrieves stock movement history.
func (s *Service) Movements(ctx context.Context, filter models.MovementFilter, page models.Pagination) (*models.MovementList, error) {
	return s.movements.List(ctx, filter, page)
}

// Stats summarizes the inventory by status and animal type.
func (s *Service) Stats(ctx context.Context) (*models.InventoryStats, error) {
	medicines, err := s.medicines.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}

	now := s.clock.Now()
	th := s.thresholds()

	stats := &models.InventoryStats{
		ByStatus:     make(map[models.StockStatus]int),
		ByAnimalType: make(map[models.AnimalType]int),
	}
	for _, m := range medicines {
		stats.TotalMedicines++
		stats.TotalUnits += m.Quantity
		stats.ByStatus[m.Status(now, th)]++
		stats.ByAnimalType[m.AnimalType]++
	}
	return stats, nil
}

// ExportCSV writes the full inventory as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	medicines, err := s.medicines.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing medicines: %w", err)
	}

	now := s.clock.Now()
	th := s.thresholds()

	cw := csv.NewWriter(w)
	header := []string{"code", "name", "dose", "animal_type", "supplier",
		"quantity", "min_stock", "expiry_date", "status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, m := range medicines {
		record := []string{
			m.Code,
			m.Name,
			m.Dose,
			string(m.AnimalType),
			m.Supplier,
			strconv.Itoa(m.Quantity),
			strconv.Itoa(m.MinStock),
			util.FormatDate(m.ExpiryDate),
			string(m.Status(now, th)),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type medicineExport struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Dose       string `json:"dose"`
	AnimalType string `json:"animal_type"`
	Supplier   string `json:"supplier"`
	Quantity   int    `json:"quantity"`
	MinStock   int    `json:"min_stock"`
	ExpiryDate string `json:"expiry_date"`
	Status     string `json:"status"`
}

// ExportJSON writes the full inventory as indented JSON.
func (s *Service) ExportJSON(ctx context.Context, w io.Writer) error {
	medicines, err := s.medicines.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing medicines: %w", err)
	}

	now := s.clock.Now()
	th := s.thresholds()

	out := make([]medicineExport, 0, len(medicines))
	for _, m := range medicines {
		out = append(out, medicineExport{
			Code:       m.Code,
			Name:       m.Name,
			Dose:       m.Dose,
			AnimalType: string(m.AnimalType),
			Supplier:   m.Supplier,
			Quantity:   m.Quantity,
			MinStock:   m.MinStock,
			ExpiryDate: util.FormatDate(m.ExpiryDate),
			Status:     string(m.Status(now, th)),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}
	return nil
}

func (s *Service) recordMovement(ctx context.Context, tx *sql.Tx, m *models.Medicine, mvType models.MovementType, magnitude int, reason string) error {
	mv := &models.StockMovement{
		ID:           s.idGenerator.NewID(),
		MedicineID:   m.ID,
		Type:         mvType,
		Quantity:     magnitude,
		BalanceAfter: m.Quantity,
		Reason:       reason,
	}
	if err := s.movements.Create(ctx, tx, mv); err != nil {
		return fmt.Errorf("recording movement: %w", err)
	}
	return nil
}
