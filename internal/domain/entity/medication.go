package entity

import (
	"fmt"
	"time"

	appErrors "medremind/internal/pkg/errors"
)

// Medication is owned by the catalog component; this service reads it for
// display names and mutates only Adherence and LastTaken on acknowledge.
type Medication struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage,omitempty"`
	Adherence int        `json:"adherence"`
	LastTaken *time.Time `json:"lastTaken,omitempty"`
}

// Validate checks the shape constraints a stored record must hold.
func (m *Medication) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", appErrors.ErrStoreOperation)
	}
	if m.Adherence < 0 || m.Adherence > 100 {
		return fmt.Errorf("%w: adherence %d out of range", appErrors.ErrStoreOperation, m.Adherence)
	}
	return nil
}
