package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"medremind/internal/application/dto"
	"medremind/internal/domain/entity"
	"medremind/internal/domain/repository"
	"medremind/internal/domain/schedule"
	appErrors "medremind/internal/pkg/errors"
)

type schedulerService struct {
	registrar    TriggerRegistrar
	reminderRepo repository.ReminderRepository
	log          *zap.Logger

	mu           sync.RWMutex
	deliverFunc  func(ctx context.Context, reminderID string)
	snoozeFunc   func(ctx context.Context, medicationID, reminderTime string)
	scheduleFunc func(ctx context.Context, reminder *entity.Reminder) (*dto.ScheduleResult, error)
}

func NewSchedulerService(registrar TriggerRegistrar, reminderRepo repository.ReminderRepository, log *zap.Logger) SchedulerService {
	return &schedulerService{registrar: registrar, reminderRepo: reminderRepo, log: log}
}

func (s *schedulerService) SetDeliverFunc(f func(ctx context.Context, reminderID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliverFunc = f
}

func (s *schedulerService) SetSnoozeDeliverFunc(f func(ctx context.Context, medicationID, reminderTime string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snoozeFunc = f
}

func (s *schedulerService) SetScheduleFunc(f func(ctx context.Context, reminder *entity.Reminder) (*dto.ScheduleResult, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleFunc = f
}

func (s *schedulerService) RegisterReminderTrigger(reminderID string, t schedule.Trigger) (string, error) {
	handle, err := s.registrar.Register(t, func() {
		s.fireReminder(reminderID)
	})
	if err != nil {
		return "", err
	}
	s.log.Debug("reminder trigger registered",
		zap.String("reminderId", reminderID),
		zap.String("handle", handle),
		zap.Int("weekday", t.Weekday))
	return handle, nil
}

func (s *schedulerService) RegisterSnoozeTrigger(medicationID, reminderTime string, delay time.Duration) (string, error) {
	handle, err := s.registrar.Register(schedule.OneShot(delay), func() {
		s.fireSnooze(medicationID, reminderTime)
	})
	if err != nil {
		return "", err
	}
	s.log.Debug("snooze trigger registered",
		zap.String("medicationId", medicationID),
		zap.String("handle", handle),
		zap.Duration("delay", delay))
	return handle, nil
}

func (s *schedulerService) fireReminder(reminderID string) {
	s.mu.RLock()
	deliver := s.deliverFunc
	s.mu.RUnlock()
	if deliver == nil {
		s.log.Warn("reminder trigger fired with no deliverer wired", zap.String("reminderId", reminderID))
		return
	}
	deliver(context.Background(), reminderID)
}

func (s *schedulerService) fireSnooze(medicationID, reminderTime string) {
	s.mu.RLock()
	deliver := s.snoozeFunc
	s.mu.RUnlock()
	if deliver == nil {
		s.log.Warn("snooze trigger fired with no deliverer wired", zap.String("medicationId", medicationID))
		return
	}
	deliver(context.Background(), medicationID, reminderTime)
}

func (s *schedulerService) CancelTrigger(handle string) {
	s.registrar.Cancel(handle)
}

func (s *schedulerService) CancelAllTriggers() {
	s.registrar.CancelAll()
}

func (s *schedulerService) InitializeSchedules(ctx context.Context) error {
	s.mu.RLock()
	scheduleStep := s.scheduleFunc
	s.mu.RUnlock()
	if scheduleStep == nil {
		return fmt.Errorf("%w: schedule step not wired", appErrors.ErrScheduling)
	}

	s.registrar.CancelAll()

	reminders, err := s.reminderRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	var scheduled, skipped, failed int
	for _, reminder := range reminders {
		if !reminder.Enabled {
			skipped++
			continue
		}
		// Handles persisted by a previous process point at nothing.
		reminder.TriggerHandles = nil
		result, err := scheduleStep(ctx, reminder)
		switch {
		case err != nil:
			failed++
			s.log.Warn("re-scheduling reminder failed",
				zap.String("reminderId", reminder.ID),
				zap.Error(err))
		case result.Registered():
			scheduled++
		default:
			skipped++
		}
	}

	s.log.Info("schedules initialized",
		zap.Int("scheduled", scheduled),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Int("activeTriggers", s.registrar.Len()))
	return nil
}

func (s *schedulerService) ActiveTriggerCount() int {
	return s.registrar.Len()
}

func (s *schedulerService) Stop() {
	s.registrar.Stop()
}
