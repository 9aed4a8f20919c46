package dto

import "medremind/internal/domain/constant"

// ResponseEvent is one delivered-notification interaction, inbound from
// whichever channel delivered the reminder. Ephemeral, never persisted.
type ResponseEvent struct {
	Action       constant.ResponseAction `json:"action"`
	MedicationID string                  `json:"medicationId"`
	ReminderTime string                  `json:"reminderTime"`
}
