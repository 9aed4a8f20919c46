package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medremind/internal/application/dto"
	"medremind/internal/domain/constant"
	"medremind/internal/domain/entity"
	"medremind/internal/domain/repository"
	"medremind/internal/domain/schedule"
	"medremind/internal/infrastructure/notify"
	appErrors "medremind/internal/pkg/errors"
)

type reminderService struct {
	reminderRepo repository.ReminderRepository
	scheduler    SchedulerService
	notifier     notify.Notifier
	log          *zap.Logger
}

func NewReminderService(reminderRepo repository.ReminderRepository, scheduler SchedulerService, notifier notify.Notifier, log *zap.Logger) ReminderService {
	s := &reminderService{
		reminderRepo: reminderRepo,
		scheduler:    scheduler,
		notifier:     notifier,
		log:          log,
	}
	scheduler.SetDeliverFunc(func(ctx context.Context, reminderID string) {
		if err := s.DeliverReminder(ctx, reminderID); err != nil {
			s.log.Error("reminder delivery failed", zap.String("reminderId", reminderID), zap.Error(err))
		}
	})
	scheduler.SetScheduleFunc(s.Schedule)
	return s
}

func (s *reminderService) CreateReminder(ctx context.Context, req *dto.CreateReminderRequest) (*dto.ReminderResponse, error) {
	now := time.Now()
	reminder := &entity.Reminder{
		ID:             uuid.New().String(),
		MedicationID:   req.MedicationID,
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		ScheduledTime:  req.ScheduledTime,
		Days:           req.Days,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Enabled != nil {
		reminder.Enabled = *req.Enabled
	}
	if err := reminder.Validate(); err != nil {
		return nil, err
	}
	reminder.Days = schedule.Normalize(reminder.Days)

	if err := s.reminderRepo.Save(ctx, reminder); err != nil {
		return nil, err
	}
	s.log.Info("reminder created",
		zap.String("reminderId", reminder.ID),
		zap.String("medicationId", reminder.MedicationID))

	result, err := s.Schedule(ctx, reminder)
	if err != nil {
		s.log.Warn("reminder created but scheduling failed", zap.String("reminderId", reminder.ID), zap.Error(err))
	}

	resp := dto.ToReminderResponse(reminder)
	resp.Schedule = result
	return resp, nil
}

func (s *reminderService) UpdateReminder(ctx context.Context, id string, req *dto.UpdateReminderRequest) (*dto.ReminderResponse, error) {
	reminder, err := s.reminderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.MedicationName != nil {
		reminder.MedicationName = *req.MedicationName
	}
	if req.Dosage != nil {
		reminder.Dosage = *req.Dosage
	}
	if req.ScheduledTime != nil {
		reminder.ScheduledTime = *req.ScheduledTime
	}
	if req.Days != nil {
		reminder.Days = *req.Days
	}
	if req.Enabled != nil {
		reminder.Enabled = *req.Enabled
	}
	if err := reminder.Validate(); err != nil {
		return nil, err
	}
	reminder.Days = schedule.Normalize(reminder.Days)
	reminder.UpdatedAt = time.Now()

	var result *dto.ScheduleResult
	if reminder.Enabled && len(reminder.Days) > 0 {
		result, err = s.Schedule(ctx, reminder)
		if err != nil {
			s.log.Warn("reminder updated but scheduling failed", zap.String("reminderId", id), zap.Error(err))
		}
	} else {
		// Dropping out of the schedulable state cancels everything and
		// persists the bare configuration.
		for _, handle := range reminder.TriggerHandles {
			s.scheduler.CancelTrigger(handle)
		}
		reminder.TriggerHandles = nil
		outcome := constant.OutcomeSkippedDisabled
		if reminder.Enabled {
			outcome = constant.OutcomeSkippedNoDays
		}
		result = &dto.ScheduleResult{Outcome: outcome}
		if err := s.reminderRepo.Save(ctx, reminder); err != nil {
			return nil, err
		}
	}

	resp := dto.ToReminderResponse(reminder)
	resp.Schedule = result
	return resp, nil
}

func (s *reminderService) DeleteReminder(ctx context.Context, id string) error {
	reminder, err := s.reminderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrReminderNotFound) {
			return nil
		}
		return err
	}

	for _, handle := range reminder.TriggerHandles {
		s.scheduler.CancelTrigger(handle)
	}
	if err := s.reminderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, appErrors.ErrReminderNotFound) {
			return nil
		}
		return err
	}

	s.log.Info("reminder deleted",
		zap.String("reminderId", id),
		zap.Int("cancelledTriggers", len(reminder.TriggerHandles)))
	return nil
}

func (s *reminderService) GetReminder(ctx context.Context, id string) (*dto.ReminderResponse, error) {
	reminder, err := s.reminderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToReminderResponse(reminder), nil
}

func (s *reminderService) ListReminders(ctx context.Context) ([]*dto.ReminderResponse, error) {
	reminders, err := s.reminderRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToReminderResponses(reminders), nil
}

func (s *reminderService) Schedule(ctx context.Context, reminder *entity.Reminder) (*dto.ScheduleResult, error) {
	if !reminder.Enabled {
		return &dto.ScheduleResult{Outcome: constant.OutcomeSkippedDisabled}, nil
	}

	triggers := schedule.Expand(reminder.ScheduledTime, reminder.Days)
	if len(triggers) == 0 {
		return &dto.ScheduleResult{Outcome: constant.OutcomeSkippedNoDays}, nil
	}

	// Registration is not idempotent: cancel every prior trigger so an edit
	// never leaves duplicates behind.
	for _, handle := range reminder.TriggerHandles {
		s.scheduler.CancelTrigger(handle)
	}
	reminder.TriggerHandles = nil

	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		s.log.Warn("permission check failed, treating as denied", zap.Error(err))
		granted = false
	}
	if !granted {
		s.log.Warn("notification permission denied, reminder left unscheduled",
			zap.String("reminderId", reminder.ID))
		return &dto.ScheduleResult{Outcome: constant.OutcomePermissionDenied}, nil
	}

	handles := make([]string, 0, len(triggers))
	for _, trig := range triggers {
		handle, err := s.scheduler.RegisterReminderTrigger(reminder.ID, trig)
		if err != nil {
			for _, h := range handles {
				s.scheduler.CancelTrigger(h)
			}
			s.log.Error("trigger registration failed",
				zap.String("reminderId", reminder.ID),
				zap.Error(err))
			return &dto.ScheduleResult{Outcome: constant.OutcomeSchedulerError}, err
		}
		handles = append(handles, handle)
	}

	reminder.TriggerHandles = handles
	if err := s.reminderRepo.Save(ctx, reminder); err != nil {
		s.log.Error("persisting scheduled reminder failed",
			zap.String("reminderId", reminder.ID),
			zap.Error(err))
		return &dto.ScheduleResult{Outcome: constant.OutcomeStoreError, Handles: handles}, err
	}

	s.log.Info("reminder scheduled",
		zap.String("reminderId", reminder.ID),
		zap.Int("triggers", len(handles)))
	return &dto.ScheduleResult{Outcome: constant.OutcomeScheduled, Handles: handles}, nil
}

func (s *reminderService) DeliverReminder(ctx context.Context, reminderID string) error {
	reminder, err := s.reminderRepo.FindByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, appErrors.ErrReminderNotFound) {
			s.log.Info("skipping delivery of removed reminder", zap.String("reminderId", reminderID))
			return nil
		}
		return err
	}
	if !reminder.Enabled {
		s.log.Info("skipping delivery of disabled reminder", zap.String("reminderId", reminderID))
		return nil
	}

	payload := notify.Payload{
		MedicationID: reminder.MedicationID,
		ReminderTime: reminder.ScheduledTime,
	}
	return s.notifier.SendReminder(ctx, reminder.MedicationName, reminder.Dosage, payload)
}

func (s *reminderService) SendTestNotification(ctx context.Context, reminderID string) error {
	reminder, err := s.reminderRepo.FindByID(ctx, reminderID)
	if err != nil {
		return err
	}
	payload := notify.Payload{
		MedicationID: reminder.MedicationID,
		ReminderTime: reminder.ScheduledTime,
	}
	return s.notifier.SendReminder(ctx, reminder.MedicationName, reminder.Dosage, payload)
}
