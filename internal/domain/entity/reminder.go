package entity

import (
	"fmt"
	"time"

	"medremind/internal/domain/schedule"
	appErrors "medremind/internal/pkg/errors"
)

// Reminder is one recurring medication reminder. The struct doubles as the
// persisted JSON shape, camelCase keys.
type Reminder struct {
	ID             string `json:"id"`
	MedicationID   string `json:"medicationId"`
	MedicationName string `json:"medicationName,omitempty"`
	Dosage         string `json:"dosage,omitempty"`
	// ScheduledTime is local wall-clock "HH:MM", strict two digits.
	ScheduledTime string `json:"scheduledTime"`
	// Days holds weekday indexes, 0=Sunday through 6=Saturday.
	Days    []int `json:"days"`
	Enabled bool  `json:"enabled"`
	// TriggerHandles lists every live trigger registered for this reminder,
	// in registration order. The first element is the canonical handle. All
	// of them are cancelled before re-registration or deletion.
	TriggerHandles []string  `json:"triggerHandles,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Validate checks the schedule configuration. Enabled with an empty day set
// is legal; it simply produces no triggers.
func (r *Reminder) Validate() error {
	if r.MedicationID == "" {
		return fmt.Errorf("%w: medicationId is required", appErrors.ErrInvalidSchedule)
	}
	if _, _, err := schedule.ParseClock(r.ScheduledTime); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrInvalidSchedule, err)
	}
	for _, d := range r.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day index %d out of range", appErrors.ErrInvalidSchedule, d)
		}
	}
	return nil
}

// PrimaryHandle returns the canonical trigger handle, empty when nothing is
// registered.
func (r *Reminder) PrimaryHandle() string {
	if len(r.TriggerHandles) == 0 {
		return ""
	}
	return r.TriggerHandles[0]
}
