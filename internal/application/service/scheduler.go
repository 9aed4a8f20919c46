package service

import (
	"context"
	"time"

	"medremind/internal/application/dto"
	"medremind/internal/domain/entity"
	"medremind/internal/domain/schedule"
)

// TriggerRegistrar is the platform scheduling primitive the services drive.
type TriggerRegistrar interface {
	Register(t schedule.Trigger, job func()) (string, error)
	Cancel(handle string)
	CancelAll()
	Len() int
	Stop()
}

// SchedulerService pairs the trigger registrar with delivery callbacks, so
// a trigger that fires weeks from now still runs against current data. The
// callbacks are late-bound by the services that own them, which breaks the
// construction cycle between scheduling and delivery.
type SchedulerService interface {
	RegisterReminderTrigger(reminderID string, t schedule.Trigger) (string, error)
	RegisterSnoozeTrigger(medicationID, reminderTime string, delay time.Duration) (string, error)
	CancelTrigger(handle string)
	CancelAllTriggers()
	// InitializeSchedules re-schedules every enabled persisted reminder from
	// scratch. Runs at startup: handles persisted by a previous process are
	// dead entries.
	InitializeSchedules(ctx context.Context) error
	ActiveTriggerCount() int
	Stop()

	SetDeliverFunc(f func(ctx context.Context, reminderID string))
	SetSnoozeDeliverFunc(f func(ctx context.Context, medicationID, reminderTime string))
	SetScheduleFunc(f func(ctx context.Context, reminder *entity.Reminder) (*dto.ScheduleResult, error))
}
