package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/farmavet/farmavet/internal/models"
)

// MovementRepository handles stock movement data access.
type MovementRepository struct {
	db *sql.DB
}

// NewMovementRepository creates a new movement repository.
func NewMovementRepository(db *sql.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create inserts a new stock movement.
func (r *MovementRepository) Create(ctx context.Context, tx *sql.Tx, mv *models.StockMovement) error {
	query := `
		INSERT INTO stock_movements (
			id, medicine_id, type, quantity, balance_after, reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	execer := r.getExecer(tx)
	if mv.CreatedAt.IsZero() {
		mv.CreatedAt = time.Now().UTC()
	}

	_, err := execer.ExecContext(ctx, query,
		mv.ID,
		mv.MedicineID,
		mv.Type.String(),
		mv.Quantity,
		mv.BalanceAfter,
		mv.Reason,
		mv.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting movement: %w", err)
	}
	return nil
}

// List retrieves movements matching the filter, newest first.
func (r *MovementRepository) List(ctx context.Context, filter models.MovementFilter, page models.Pagination) (*models.MovementList, error) {
	var conditions []string
	var args []any

	if filter.MedicineID != 0 {
		conditions = append(conditions, "m.medicine_id = ?")
		args = append(args, filter.MedicineID)
	}

	if filter.Type != nil {
		conditions = append(conditions, "m.type = ?")
		args = append(args, filter.Type.String())
	}

	if filter.StartDate != nil {
		conditions = append(conditions, "m.created_at >= ?")
		args = append(args, filter.StartDate.Format(time.RFC3339))
	}

	if filter.EndDate != nil {
		conditions = append(conditions, "m.created_at <= ?")
		args = append(args, filter.EndDate.Format(time.RFC3339))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM stock_movements m %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting movements: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT m.id, m.medicine_id, m.type, m.quantity, m.balance_after,
			m.reason, m.created_at,
			med.code, med.name
		FROM stock_movements m
		LEFT JOIN medicines med ON m.medicine_id = med.id
		%s
		ORDER BY m.created_at DESC, m.rowid DESC
		LIMIT ? OFFSET ?`, whereClause)

	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying movements: %w", err)
	}
	defer rows.Close()

	var movements []*models.StockMovement
	for rows.Next() {
		mv, err := r.scanMovementRow(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movements: %w", err)
	}

	return &models.MovementList{
		Movements:  movements,
		Total:      total,
		Page:       page.Page,
		TotalPages: page.TotalPages(total),
	}, nil
}

// TotalsByType sums movement quantities per type within a date range.
func (r *MovementRepository) TotalsByType(ctx context.Context, start, end time.Time) (map[models.MovementType]int, error) {
	query := `
		SELECT type, COALESCE(SUM(quantity), 0)
		FROM stock_movements
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY type`

	rows, err := r.db.QueryContext(ctx, query,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying movement totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[models.MovementType]int)
	for rows.Next() {
		var t string
		var sum int
		if err := rows.Scan(&t, &sum); err != nil {
			return nil, fmt.Errorf("scanning total: %w", err)
		}
		totals[models.MovementType(t)] = sum
	}
	return totals, rows.Err()
}

// MostMoved returns the medicines with the highest outgoing quantity in
// the date range, limited to n entries.
func (r *MovementRepository) MostMoved(ctx context.Context, start, end time.Time, n int) ([]*models.StockMovement, error) {
	query := `
		SELECT m.medicine_id, COALESCE(SUM(m.quantity), 0) AS total,
			med.code, med.name
		FROM stock_movements m
		LEFT JOIN medicines med ON m.medicine_id = med.id
		WHERE m.type = ? AND m.created_at >= ? AND m.created_at <= ?
		GROUP BY m.medicine_id
		ORDER BY total DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query,
		models.MovementOut.String(),
		start.Format(time.RFC3339), end.Format(time.RFC3339), n)
	if err != nil {
		return nil, fmt.Errorf("querying most moved: %w", err)
	}
	defer rows.Close()

	var results []*models.StockMovement
	for rows.Next() {
		mv := &models.StockMovement{Type: models.MovementOut}
		var code, name sql.NullString
		if err := rows.Scan(&mv.MedicineID, &mv.Quantity, &code, &name); err != nil {
			return nil, fmt.Errorf("scanning most moved: %w", err)
		}
		if code.Valid {
			mv.Medicine = &models.Medicine{ID: mv.MedicineID, Code: code.String, Name: name.String}
		}
		results = append(results, mv)
	}
	return results, rows.Err()
}

func (r *MovementRepository) getExecer(tx *sql.Tx) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *MovementRepository) scanMovementRow(rows *sql.Rows) (*models.StockMovement, error) {
	var mv models.StockMovement
	var movementType, createdStr string
	var code, name sql.NullString

	err := rows.Scan(
		&mv.ID, &mv.MedicineID, &movementType, &mv.Quantity, &mv.BalanceAfter,
		&mv.Reason, &createdStr, &code, &name,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning movement row: %w", err)
	}

	mv.Type = models.MovementType(movementType)
	mv.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	if code.Valid {
		mv.Medicine = &models.Medicine{ID: mv.MedicineID, Code: code.String, Name: name.String}
	}

	return &mv, nil
}
