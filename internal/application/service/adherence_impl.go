package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medremind/internal/domain/entity"
	"medremind/internal/domain/repository"
	"medremind/internal/infrastructure/notify"
	appErrors "medremind/internal/pkg/errors"
)

// adherenceBonus is added to the score per acknowledged intake.
const adherenceBonus = 10

type adherenceService struct {
	medicationRepo repository.MedicationRepository
	notifier       notify.Notifier
	log            *zap.Logger
}

func NewAdherenceService(medicationRepo repository.MedicationRepository, notifier notify.Notifier, log *zap.Logger) AdherenceService {
	return &adherenceService{medicationRepo: medicationRepo, notifier: notifier, log: log}
}

func (s *adherenceService) Acknowledge(ctx context.Context, medicationID string) error {
	med, err := s.medicationRepo.UpdateByID(ctx, medicationID, func(m *entity.Medication) error {
		now := time.Now()
		m.LastTaken = &now
		m.Adherence += adherenceBonus
		if m.Adherence > 100 {
			m.Adherence = 100
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrMedicationNotFound) {
			s.log.Warn("acknowledge for unknown medication", zap.String("medicationId", medicationID))
			return nil
		}
		return err
	}

	s.log.Info("medication intake recorded",
		zap.String("medicationId", med.ID),
		zap.Int("adherence", med.Adherence))

	// The intake is recorded either way; the confirmation is best effort.
	body := fmt.Sprintf("Recorded %s as taken.", med.Name)
	if err := s.notifier.SendImmediate(ctx, "Medication taken", body); err != nil {
		s.log.Warn("intake confirmation failed", zap.String("medicationId", med.ID), zap.Error(err))
	}
	return nil
}
