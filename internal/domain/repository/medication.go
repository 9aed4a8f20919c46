package repository

import (
	"context"

	"medremind/internal/domain/entity"
)

// MedicationRepository gives this service its narrow window onto the
// catalog-owned medication collection: read for display, mutate adherence
// state on acknowledge.
type MedicationRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Medication, error)
	// UpdateByID applies mutate to the stored record and writes the
	// collection back in one serialized step. ErrMedicationNotFound when the
	// id is absent; the collection is left untouched.
	UpdateByID(ctx context.Context, id string, mutate func(*entity.Medication) error) (*entity.Medication, error)
}
