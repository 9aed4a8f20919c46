package repository

import (
	"context"

	"medremind/internal/domain/entity"
)

// ReminderRepository persists the reminder collection.
type ReminderRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Reminder, error)
	FindAll(ctx context.Context) ([]*entity.Reminder, error)
	// Save upserts by id.
	Save(ctx context.Context, reminder *entity.Reminder) error
	// Delete removes one reminder, ErrReminderNotFound when absent.
	Delete(ctx context.Context, id string) error
}
