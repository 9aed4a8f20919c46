package dto

import (
	"time"

	"medremind/internal/domain/constant"
	"medremind/internal/domain/entity"
)

// CreateReminderRequest is the POST /api/reminders body.
type CreateReminderRequest struct {
	MedicationID   string `json:"medicationId"`
	MedicationName string `json:"medicationName"`
	Dosage         string `json:"dosage"`
	ScheduledTime  string `json:"scheduledTime"`
	Days           []int  `json:"days"`
	Enabled        *bool  `json:"enabled"`
}

// UpdateReminderRequest is the PUT /api/reminders/:id body. Nil fields keep
// their current values.
type UpdateReminderRequest struct {
	MedicationName *string `json:"medicationName"`
	Dosage         *string `json:"dosage"`
	ScheduledTime  *string `json:"scheduledTime"`
	Days           *[]int  `json:"days"`
	Enabled        *bool   `json:"enabled"`
}

// ScheduleResult reports what a schedule step actually did, so callers can
// tell "skipped because disabled" from "the registrar failed" without
// parsing errors.
type ScheduleResult struct {
	Outcome constant.ScheduleOutcome `json:"outcome"`
	Handles []string                 `json:"handles,omitempty"`
}

// Registered reports whether the step left live triggers behind.
func (r *ScheduleResult) Registered() bool {
	return r != nil && r.Outcome == constant.OutcomeScheduled && len(r.Handles) > 0
}

// ReminderResponse is the API shape of a reminder.
type ReminderResponse struct {
	ID             string          `json:"id"`
	MedicationID   string          `json:"medicationId"`
	MedicationName string          `json:"medicationName,omitempty"`
	Dosage         string          `json:"dosage,omitempty"`
	ScheduledTime  string          `json:"scheduledTime"`
	Days           []int           `json:"days"`
	Enabled        bool            `json:"enabled"`
	TriggerHandle  string          `json:"triggerHandle,omitempty"`
	TriggerHandles []string        `json:"triggerHandles,omitempty"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Schedule       *ScheduleResult `json:"schedule,omitempty"`
}

func ToReminderResponse(r *entity.Reminder) *ReminderResponse {
	days := r.Days
	if days == nil {
		days = []int{}
	}
	return &ReminderResponse{
		ID:             r.ID,
		MedicationID:   r.MedicationID,
		MedicationName: r.MedicationName,
		Dosage:         r.Dosage,
		ScheduledTime:  r.ScheduledTime,
		Days:           days,
		Enabled:        r.Enabled,
		TriggerHandle:  r.PrimaryHandle(),
		TriggerHandles: r.TriggerHandles,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

func ToReminderResponses(reminders []*entity.Reminder) []*ReminderResponse {
	out := make([]*ReminderResponse, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, ToReminderResponse(r))
	}
	return out
}
