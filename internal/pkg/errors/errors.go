package errors

import "errors"

// Application sentinel errors. Callers wrap these with fmt.Errorf("%w: ...")
// and match with errors.Is at the API boundary.
var (
	ErrReminderNotFound   = errors.New("reminder not found")
	ErrMedicationNotFound = errors.New("medication not found")
	// ErrInvalidSchedule covers malformed HH:MM strings, day indexes outside
	// 0..6 and requests that reference no medication.
	ErrInvalidSchedule  = errors.New("invalid reminder schedule")
	ErrPermissionDenied = errors.New("notification permission denied")
	ErrScheduling       = errors.New("trigger scheduling failed")
	ErrStoreOperation   = errors.New("store operation failed")
	ErrDelivery         = errors.New("notification delivery failed")
	// ErrSchemaVersion is returned when a persisted collection envelope
	// declares a schema version newer than this build understands.
	ErrSchemaVersion = errors.New("unsupported collection schema version")
)
