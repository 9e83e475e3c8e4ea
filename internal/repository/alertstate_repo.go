package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/farmavet/farmavet/internal/models"
)

// AlertStateRepository persists dismissed alert keys so dismissals
// survive restarts.
type AlertStateRepository struct {
	db *sql.DB
}

// NewAlertStateRepository creates a new alert state repository.
func NewAlertStateRepository(db *sql.DB) *AlertStateRepository {
	return &AlertStateRepository{db: db}
}

// Contains reports whether the key has been dismissed.
func (r *AlertStateRepository) Contains(ctx context.Context, key string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dismissed_alerts WHERE alert_key = ?", key,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking dismissal: %w", err)
	}
	return count > 0, nil
}

// Add records a dismissal. Adding an existing key is a no-op.
func (r *AlertStateRepository) Add(ctx context.Context, key string, alert *models.Alert) error {
	query := `
		INSERT INTO dismissed_alerts (alert_key, alert_id, alert_type, medicine_id, dismissed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(alert_key) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		key,
		alert.ID,
		alert.Type.String(),
		alert.MedicineID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording dismissal: %w", err)
	}
	return nil
}

// Keys returns every dismissed key.
func (r *AlertStateRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT alert_key FROM dismissed_alerts")
	if err != nil {
		return nil, fmt.Errorf("querying dismissals: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning dismissal key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Clear removes every dismissal.
func (r *AlertStateRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM dismissed_alerts"); err != nil {
		return fmt.Errorf("clearing dismissals: %w", err)
	}
	return nil
}

// DeleteByMedicine removes dismissals for a deleted medicine.
func (r *AlertStateRepository) DeleteByMedicine(ctx context.Context, medicineID int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM dismissed_alerts WHERE medicine_id = ?", medicineID)
	if err != nil {
		return fmt.Errorf("deleting dismissals for medicine %d: %w", medicineID, err)
	}
	return nil
}

// Count returns the number of dismissed keys.
func (r *AlertStateRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dismissed_alerts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting dismissals: %w", err)
	}
	return count, nil
}
