package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AnimalType represents which animals a medicine is intended for.
type AnimalType string

const (
	AnimalDogs    AnimalType = "dogs"
	AnimalCats    AnimalType = "cats"
	AnimalGeneral AnimalType = "general"
)

func (a AnimalType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known animal type.
func (a AnimalType) IsValid() bool {
	switch a {
	case AnimalDogs, AnimalCats, AnimalGeneral:
		return true
	}
	return false
}

// DisplayName returns the label used in tables and forms.
func (a AnimalType) DisplayName() string {
	switch a {
	case AnimalDogs:
		return "Dogs"
	case AnimalCats:
		return "Cats"
	case AnimalGeneral:
		return "General"
	}
	return string(a)
}

// StockStatus classifies a medicine's standing in the inventory.
type StockStatus string

const (
	StockStatusExpired    StockStatus = "EXPIRED"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusAvailable  StockStatus = "AVAILABLE"
)

func (s StockStatus) String() string {
	return string(s)
}

const (
	maxNameLength     = 100
	maxDoseLength     = 50
	maxSupplierLength = 100
	maxQuantity       = 99999
	maxMinStock       = 9999
)

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]*$`)

// Medicine represents one medicine in the pharmacy inventory.
type Medicine struct {
	ID         int64
	Code       string // unique, e.g. "DOG001"
	Name       string
	Dose       string
	AnimalType AnimalType
	Supplier   string
	Quantity   int
	MinStock   int
	ExpiryDate time.Time // date-only, stored as 2006-01-02
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the record's field constraints. When requireFutureExpiry
// is set (new records) the expiry date must lie after now; edits of
// already-expired stock keep their historical date.
func (m *Medicine) Validate(now time.Time, requireFutureExpiry bool) error {
	var errs []error

	code := strings.ToUpper(strings.TrimSpace(m.Code))
	if code == "" {
		errs = append(errs, errors.New("code is required"))
	} else if !codePattern.MatchString(code) {
		errs = append(errs, fmt.Errorf("code %q must contain only letters, digits and dashes", m.Code))
	}

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	} else if len(m.Name) > maxNameLength {
		errs = append(errs, fmt.Errorf("name exceeds %d characters", maxNameLength))
	}

	if len(m.Dose) > maxDoseLength {
		errs = append(errs, fmt.Errorf("dose exceeds %d characters", maxDoseLength))
	}

	if !m.AnimalType.IsValid() {
		errs = append(errs, fmt.Errorf("unknown animal type %q", m.AnimalType))
	}

	if len(m.Supplier) > maxSupplierLength {
		errs = append(errs, fmt.Errorf("supplier exceeds %d characters", maxSupplierLength))
	}

	if m.Quantity < 0 || m.Quantity > maxQuantity {
		errs = append(errs, fmt.Errorf("quantity must be between 0 and %d", maxQuantity))
	}

	if m.MinStock < 0 || m.MinStock > maxMinStock {
		errs = append(errs, fmt.Errorf("minimum stock must be between 0 and %d", maxMinStock))
	}

	if m.ExpiryDate.IsZero() {
		errs = append(errs, errors.New("expiry date is required"))
	} else if requireFutureExpiry && !m.ExpiryDate.After(now) {
		errs = append(errs, errors.New("expiry date must be in the future"))
	}

	return errors.Join(errs...)
}

// NormalizeCode uppercases and trims the code in place.
func (m *Medicine) NormalizeCode() {
	m.Code = strings.ToUpper(strings.TrimSpace(m.Code))
}

// IsExpired reports whether the expiry date has passed.
func (m *Medicine) IsExpired(now time.Time) bool {
	if m.ExpiryDate.IsZero() {
		return false
	}
	return now.After(m.ExpiryDate)
}

// DaysUntilExpiry returns calendar days until expiry. Negative when
// already expired.
func (m *Medicine) DaysUntilExpiry(now time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	expDay := time.Date(m.ExpiryDate.Year(), m.ExpiryDate.Month(), m.ExpiryDate.Day(), 0, 0, 0, 0, m.ExpiryDate.Location())
	return int(expDay.Sub(nowDay).Hours() / 24)
}

// StockRatio returns quantity relative to the minimum stock level.
// Medicines with no minimum configured report a ratio of 1.
func (m *Medicine) StockRatio() float64 {
	if m.MinStock == 0 {
		return 1
	}
	return float64(m.Quantity) / float64(m.MinStock)
}

// Status classifies the medicine against the configured thresholds.
// Precedence is strict: an expired medicine is EXPIRED no matter its
// quantity, an empty one is OUT_OF_STOCK before it can be LOW_STOCK,
// and a zero minimum stock never yields LOW_STOCK (no division occurs).
func (m *Medicine) Status(now time.Time, th Thresholds) StockStatus {
	switch {
	case m.IsExpired(now):
		return StockStatusExpired
	case m.Quantity == 0:
		return StockStatusOutOfStock
	case m.MinStock > 0 && float64(m.Quantity)/float64(m.MinStock) <= th.LowStockRatio:
		return StockStatusLowStock
	default:
		return StockStatusAvailable
	}
}

// IsMalformed reports whether the record is too damaged to evaluate.
// Such records are excluded from alerting but never abort a pass.
func (m *Medicine) IsMalformed() bool {
	return m.ExpiryDate.IsZero() || m.Quantity < 0 || m.MinStock < 0
}

// MedicineFilter defines filters for querying medicines.
type MedicineFilter struct {
	Status     *StockStatus
	AnimalType *AnimalType
	Search     string // matches code, name or supplier
	Sort       SortOption
}

// MedicineList represents a paginated list of medicines.
type MedicineList struct {
	Medicines  []*Medicine
	Total      int
	Page       int
	TotalPages int
}

// InventoryStats summarizes the inventory for the dashboard.
type InventoryStats struct {
	TotalMedicines int
	TotalUnits     int
	ByStatus       map[StockStatus]int
	ByAnimalType   map[AnimalType]int
}
