package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"medremind/internal/application/dto"
	"medremind/internal/domain/constant"
	"medremind/internal/infrastructure/notify"
)

type responseRouter struct {
	adherence AdherenceService
	snooze    SnoozeService
	notifier  notify.Notifier
	log       *zap.Logger

	mu          sync.Mutex
	initialized bool
}

func NewResponseRouter(adherence AdherenceService, snooze SnoozeService, notifier notify.Notifier, log *zap.Logger) ResponseRouter {
	return &responseRouter{
		adherence: adherence,
		snooze:    snooze,
		notifier:  notifier,
		log:       log,
	}
}

func (r *responseRouter) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return nil
	}
	if err := r.notifier.DeclareCategories(ctx); err != nil {
		return err
	}
	r.initialized = true
	return nil
}

func (r *responseRouter) Route(ctx context.Context, evt *dto.ResponseEvent) {
	r.mu.Lock()
	initialized := r.initialized
	r.mu.Unlock()
	if !initialized {
		r.log.Warn("response received before initialization, dropping")
		return
	}
	if evt == nil || evt.MedicationID == "" {
		r.log.Debug("response without medicationId, ignoring")
		return
	}

	switch evt.Action {
	case constant.ActionTaken:
		if err := r.adherence.Acknowledge(ctx, evt.MedicationID); err != nil {
			r.log.Error("acknowledge handler failed",
				zap.String("medicationId", evt.MedicationID),
				zap.Error(err))
		}
	case constant.ActionSnooze:
		if err := r.snooze.Snooze(ctx, evt.MedicationID, evt.ReminderTime); err != nil {
			r.log.Error("snooze handler failed",
				zap.String("medicationId", evt.MedicationID),
				zap.Error(err))
		}
	default:
		// Plain taps and unknown actions carry no state change; opening the
		// right screen is the client's concern.
		r.log.Debug("response action ignored", zap.String("action", string(evt.Action)))
	}
}
