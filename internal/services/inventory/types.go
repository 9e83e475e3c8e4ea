package inventory

import (
	"time"

	"github.com/farmavet/farmavet/internal/models"
)

// CreateMedicineInput contains data for registering a medicine.
type CreateMedicineInput struct {
	Code       string
	Name       string
	Dose       string
	AnimalType models.AnimalType
	Supplier   string
	Quantity   int
	MinStock   int
	ExpiryDate time.Time
}

// UpdateMedicineInput contains data for editing a medicine. All fields
// are applied; callers pre-fill from the existing record.
type UpdateMedicineInput struct {
	Code       string
	Name       string
	Dose       string
	AnimalType models.AnimalType
	Supplier   string
	Quantity   int
	MinStock   int
	ExpiryDate time.Time
}
