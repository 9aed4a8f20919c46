package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medremind/internal/domain/repository"
	"medremind/internal/infrastructure/notify"
	appErrors "medremind/internal/pkg/errors"
)

// snoozeDelay is the fixed defer interval.
const snoozeDelay = 15 * time.Minute

type snoozeService struct {
	medicationRepo repository.MedicationRepository
	scheduler      SchedulerService
	notifier       notify.Notifier
	log            *zap.Logger
}

func NewSnoozeService(medicationRepo repository.MedicationRepository, scheduler SchedulerService, notifier notify.Notifier, log *zap.Logger) SnoozeService {
	s := &snoozeService{
		medicationRepo: medicationRepo,
		scheduler:      scheduler,
		notifier:       notifier,
		log:            log,
	}
	scheduler.SetSnoozeDeliverFunc(func(ctx context.Context, medicationID, reminderTime string) {
		if err := s.DeliverSnoozed(ctx, medicationID, reminderTime); err != nil {
			s.log.Error("snoozed delivery failed", zap.String("medicationId", medicationID), zap.Error(err))
		}
	})
	return s
}

func (s *snoozeService) Snooze(ctx context.Context, medicationID, reminderTime string) error {
	handle, err := s.scheduler.RegisterSnoozeTrigger(medicationID, reminderTime, snoozeDelay)
	if err != nil {
		return err
	}
	s.log.Info("reminder snoozed",
		zap.String("medicationId", medicationID),
		zap.String("handle", handle),
		zap.Duration("delay", snoozeDelay))

	body := "We'll remind you again in 15 minutes."
	if med, err := s.medicationRepo.FindByID(ctx, medicationID); err == nil {
		body = fmt.Sprintf("We'll remind you about %s again in 15 minutes.", med.Name)
	}
	if err := s.notifier.SendImmediate(ctx, "Reminder snoozed", body); err != nil {
		s.log.Warn("snooze confirmation failed", zap.String("medicationId", medicationID), zap.Error(err))
	}
	return nil
}

func (s *snoozeService) DeliverSnoozed(ctx context.Context, medicationID, reminderTime string) error {
	med, err := s.medicationRepo.FindByID(ctx, medicationID)
	if err != nil {
		if errors.Is(err, appErrors.ErrMedicationNotFound) {
			s.log.Info("skipping snoozed delivery of unknown medication", zap.String("medicationId", medicationID))
			return nil
		}
		return err
	}

	payload := notify.Payload{
		MedicationID: medicationID,
		ReminderTime: reminderTime,
	}
	return s.notifier.SendReminder(ctx, med.Name, med.Dosage, payload)
}
