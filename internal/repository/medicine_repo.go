// Package repository provides data access for the pharmacy inventory.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/util"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned when a medicine code is already taken.
	ErrDuplicateCode = errors.New("medicine code already exists")
)

// MedicineRepository handles medicine data access.
type MedicineRepository struct {
	db *sql.DB
}

// NewMedicineRepository creates a new medicine repository.
func NewMedicineRepository(db *sql.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

const medicineColumns = `id, code, name, dose, animal_type, supplier,
	quantity, min_stock, expiry_date, created_at, updated_at`

// Create inserts a new medicine and sets its generated ID.
func (r *MedicineRepository) Create(ctx context.Context, tx *sql.Tx, m *models.Medicine) error {
	query := `
		INSERT INTO medicines (
			code, name, dose, animal_type, supplier,
			quantity, min_stock, expiry_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	execer := r.getExecer(tx)
	m.NormalizeCode()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	res, err := execer.ExecContext(ctx, query,
		m.Code,
		m.Name,
		m.Dose,
		m.AnimalType.String(),
		m.Supplier,
		m.Quantity,
		m.MinStock,
		m.ExpiryDate.Format(util.DateFormat),
		m.CreatedAt.Format(time.RFC3339),
		m.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("code %s: %w", m.Code, ErrDuplicateCode)
		}
		return fmt.Errorf("inserting medicine: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading medicine id: %w", err)
	}
	m.ID = id

	return nil
}

// GetByID retrieves a medicine by ID.
func (r *MedicineRepository) GetByID(ctx context.Context, id int64) (*models.Medicine, error) {
	query := fmt.Sprintf(`SELECT %s FROM medicines WHERE id = ?`, medicineColumns)
	return r.scanMedicine(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode retrieves a medicine by its unique code.
func (r *MedicineRepository) GetByCode(ctx context.Context, code string) (*models.Medicine, error) {
	query := fmt.Sprintf(`SELECT %s FROM medicines WHERE code = ?`, medicineColumns)
	return r.scanMedicine(r.db.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(code))))
}

// List retrieves medicines matching the filter, paginated. Status
// filtering is relative to the given evaluation time and thresholds.
// Rows with unreadable fields are returned as-is; the caller decides
// how to treat malformed records.
func (r *MedicineRepository) List(ctx context.Context, filter models.MedicineFilter, page models.Pagination, now time.Time, th models.Thresholds) (*models.MedicineList, error) {
	var conditions []string
	var args []any

	if filter.AnimalType != nil {
		conditions = append(conditions, "animal_type = ?")
		args = append(args, filter.AnimalType.String())
	}

	if filter.Search != "" {
		conditions = append(conditions, "(code LIKE ? OR name LIKE ? OR supplier LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if filter.Status != nil {
		cond, statusArgs := statusCondition(*filter.Status, now, th)
		conditions = append(conditions, cond)
		args = append(args, statusArgs...)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM medicines %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting medicines: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM medicines
		%s
		ORDER BY %s
		LIMIT ? OFFSET ?`, medicineColumns, whereClause, orderClause(filter.Sort))

	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying medicines: %w", err)
	}
	defer rows.Close()

	var medicines []*models.Medicine
	for rows.Next() {
		m, err := r.scanMedicineRow(rows)
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating medicines: %w", err)
	}

	return &models.MedicineList{
		Medicines:  medicines,
		Total:      total,
		Page:       page.Page,
		TotalPages: page.TotalPages(total),
	}, nil
}

// sortColumns whitelists the columns the list can be ordered by. Sort
// options are interpolated into the query, so nothing outside this map
// may reach the ORDER BY clause.
var sortColumns = map[string]string{
	"code":        "code",
	"name":        "name",
	"quantity":    "quantity",
	"expiry_date": "expiry_date",
}

// orderClause translates a sort option into the ORDER BY body. Unknown
// columns fall back to code order, and code breaks ties for the rest.
func orderClause(sort models.SortOption) string {
	col, ok := sortColumns[sort.Column]
	if !ok {
		return "code"
	}

	dir := "ASC"
	if sort.Direction == models.SortDesc {
		dir = "DESC"
	}
	if col == "code" {
		return fmt.Sprintf("code %s", dir)
	}
	return fmt.Sprintf("%s %s, code", col, dir)
}

// statusCondition translates a stock status into SQL, mirroring
// models.Medicine.Status. The lexicographic comparison of the date
// column against a datetime string matches the in-memory
// classification for any time past midnight.
func statusCondition(status models.StockStatus, now time.Time, th models.Thresholds) (string, []any) {
	nowStr := now.Format(util.DateTimeFormat)
	switch status {
	case models.StockStatusExpired:
		return "expiry_date < ?", []any{nowStr}
	case models.StockStatusOutOfStock:
		return "expiry_date >= ? AND quantity = 0", []any{nowStr}
	case models.StockStatusLowStock:
		return "expiry_date >= ? AND quantity > 0 AND min_stock > 0 AND CAST(quantity AS REAL) / min_stock <= ?",
			[]any{nowStr, th.LowStockRatio}
	default:
		return "expiry_date >= ? AND quantity > 0 AND (min_stock = 0 OR CAST(quantity AS REAL) / min_stock > ?)",
			[]any{nowStr, th.LowStockRatio}
	}
}

// ListAll retrieves every medicine, ordered by code. Used for alert
// evaluation, which always works on the full collection.
func (r *MedicineRepository) ListAll(ctx context.Context) ([]*models.Medicine, error) {
	query := fmt.Sprintf(`SELECT %s FROM medicines ORDER BY code`, medicineColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying medicines: %w", err)
	}
	defer rows.Close()

	var medicines []*models.Medicine
	for rows.Next() {
		m, err := r.scanMedicineRow(rows)
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}
	return medicines, rows.Err()
}

// Update saves changes to an existing medicine.
func (r *MedicineRepository) Update(ctx context.Context, tx *sql.Tx, m *models.Medicine) error {
	query := `
		UPDATE medicines SET
			code = ?, name = ?, dose = ?, animal_type = ?, supplier = ?,
			quantity = ?, min_stock = ?, expiry_date = ?, updated_at = ?
		WHERE id = ?`

	execer := r.getExecer(tx)
	m.NormalizeCode()
	m.UpdatedAt = time.Now().UTC()

	res, err := execer.ExecContext(ctx, query,
		m.Code,
		m.Name,
		m.Dose,
		m.AnimalType.String(),
		m.Supplier,
		m.Quantity,
		m.MinStock,
		m.ExpiryDate.Format(util.DateFormat),
		m.UpdatedAt.Format(time.RFC3339),
		m.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("code %s: %w", m.Code, ErrDuplicateCode)
		}
		return fmt.Errorf("updating medicine: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("medicine %d: %w", m.ID, ErrNotFound)
	}

	return nil
}

// Delete removes a medicine. Its stock movements cascade.
func (r *MedicineRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM medicines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting medicine: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("medicine %d: %w", id, ErrNotFound)
	}

	return nil
}

// Count returns the total number of medicines.
func (r *MedicineRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM medicines").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting medicines: %w", err)
	}
	return count, nil
}

// Codes returns every medicine code, for code suggestion.
func (r *MedicineRepository) Codes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT code FROM medicines")
	if err != nil {
		return nil, fmt.Errorf("querying codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// ============================================================================
// HELPERS
// ============================================================================

func (r *MedicineRepository) getExecer(tx *sql.Tx) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *MedicineRepository) scanMedicine(row *sql.Row) (*models.Medicine, error) {
	var m models.Medicine
	var animalType, expiryStr, createdStr, updatedStr string

	err := row.Scan(
		&m.ID, &m.Code, &m.Name, &m.Dose, &animalType, &m.Supplier,
		&m.Quantity, &m.MinStock, &expiryStr, &createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("medicine: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning medicine: %w", err)
	}

	m.AnimalType = models.AnimalType(animalType)
	// An unparseable expiry leaves the zero value; the record is then
	// treated as malformed rather than failing the read.
	m.ExpiryDate, _ = util.ParseDate(expiryStr)
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)

	return &m, nil
}

func (r *MedicineRepository) scanMedicineRow(rows *sql.Rows) (*models.Medicine, error) {
	var m models.Medicine
	var animalType, expiryStr, createdStr, updatedStr string

	err := rows.Scan(
		&m.ID, &m.Code, &m.Name, &m.Dose, &animalType, &m.Supplier,
		&m.Quantity, &m.MinStock, &expiryStr, &createdStr, &updatedStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning medicine row: %w", err)
	}

	m.AnimalType = models.AnimalType(animalType)
	m.ExpiryDate, _ = util.ParseDate(expiryStr)
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)

	return &m, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
