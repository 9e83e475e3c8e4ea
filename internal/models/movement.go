package models

import (
	"time"
)

// MovementType represents the direction of a stock movement.
type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

func (t MovementType) String() string {
	return string(t)
}

// StockMovement records one change to a medicine's quantity.
type StockMovement struct {
	ID           string // UUIDv7
	MedicineID   int64
	Type         MovementType
	Quantity     int // magnitude of the change, always positive
	BalanceAfter int
	Reason       string
	CreatedAt    time.Time

	// Joined fields
	Medicine *Medicine
}

// MovementFilter defines filters for querying stock movements.
type MovementFilter struct {
	MedicineID int64
	Type       *MovementType
	StartDate  *time.Time
	EndDate    *time.Time
}

// MovementList represents a paginated list of movements.
type MovementList struct {
	Movements  []*StockMovement
	Total      int
	Page       int
	TotalPages int
}
