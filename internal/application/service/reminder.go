package service

import (
	"context"

	"medremind/internal/application/dto"
	"medremind/internal/domain/entity"
)

// ReminderService owns the reminder lifecycle and the combined
// schedule-then-save step that keeps the persisted collection consistent
// with what is actually registered.
type ReminderService interface {
	CreateReminder(ctx context.Context, req *dto.CreateReminderRequest) (*dto.ReminderResponse, error)
	UpdateReminder(ctx context.Context, id string, req *dto.UpdateReminderRequest) (*dto.ReminderResponse, error)
	// DeleteReminder cancels every live trigger and removes the entry.
	// Idempotent: unknown ids touch neither the registrar nor the store.
	DeleteReminder(ctx context.Context, id string) error
	GetReminder(ctx context.Context, id string) (*dto.ReminderResponse, error)
	ListReminders(ctx context.Context) ([]*dto.ReminderResponse, error)
	// Schedule expands, registers and persists in one step. The result's
	// outcome distinguishes the ways it can finish without registering.
	Schedule(ctx context.Context, reminder *entity.Reminder) (*dto.ScheduleResult, error)
	// DeliverReminder is the fire-time path. Reminders deleted or disabled
	// since registration are skipped silently.
	DeliverReminder(ctx context.Context, reminderID string) error
	// SendTestNotification delivers immediately; unlike the background
	// paths its failure surfaces to the caller.
	SendTestNotification(ctx context.Context, reminderID string) error
}
