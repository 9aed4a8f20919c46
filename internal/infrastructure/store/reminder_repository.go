package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"medremind/internal/domain/entity"
	appErrors "medremind/internal/pkg/errors"
)

// ReminderRepository stores the reminder collection as one versioned JSON
// document. Writes are read-modify-write cycles serialized through a mutex,
// so a background acknowledge and a foreground API edit merge instead of
// clobbering each other.
type ReminderRepository struct {
	kv  KVStore
	log *zap.Logger
	mu  sync.Mutex
}

func NewReminderRepository(kv KVStore, log *zap.Logger) *ReminderRepository {
	return &ReminderRepository{kv: kv, log: log}
}

func (r *ReminderRepository) FindByID(ctx context.Context, id string) (*entity.Reminder, error) {
	reminders, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, rem := range reminders {
		if rem.ID == id {
			return rem, nil
		}
	}
	return nil, fmt.Errorf("%w: id=%s", appErrors.ErrReminderNotFound, id)
}

func (r *ReminderRepository) FindAll(ctx context.Context) ([]*entity.Reminder, error) {
	reminders, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *ReminderRepository) Save(ctx context.Context, reminder *entity.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reminders, revision, err := r.load(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, rem := range reminders {
		if rem.ID == reminder.ID {
			reminders[i] = reminder
			replaced = true
			break
		}
	}
	if !replaced {
		reminders = append(reminders, reminder)
	}
	return r.persist(ctx, reminders, revision+1)
}

func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reminders, revision, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := make([]*entity.Reminder, 0, len(reminders))
	found := false
	for _, rem := range reminders {
		if rem.ID == id {
			found = true
			continue
		}
		kept = append(kept, rem)
	}
	if !found {
		return fmt.Errorf("%w: id=%s", appErrors.ErrReminderNotFound, id)
	}
	return r.persist(ctx, kept, revision+1)
}

// load decodes the stored collection. Undecodable or invalid items are
// quarantined, duplicate ids dropped first-wins.
func (r *ReminderRepository) load(ctx context.Context) ([]*entity.Reminder, int64, error) {
	raw, err := r.kv.Get(ctx, KeyReminders)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read %s: %v", appErrors.ErrStoreOperation, KeyReminders, err)
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, 0, err
	}

	reminders := make([]*entity.Reminder, 0, len(env.Items))
	seen := make(map[string]bool, len(env.Items))
	var rejected []json.RawMessage
	for _, item := range env.Items {
		var rem entity.Reminder
		if err := json.Unmarshal(item, &rem); err != nil {
			r.log.Warn("undecodable reminder record", zap.Error(err))
			rejected = append(rejected, item)
			continue
		}
		if rem.ID == "" || rem.Validate() != nil {
			r.log.Warn("invalid reminder record", zap.String("id", rem.ID))
			rejected = append(rejected, item)
			continue
		}
		if seen[rem.ID] {
			r.log.Warn("duplicate reminder id dropped", zap.String("id", rem.ID))
			continue
		}
		seen[rem.ID] = true
		reminders = append(reminders, &rem)
	}
	quarantine(ctx, r.kv, r.log, KeyReminders, rejected)

	return reminders, env.Revision, nil
}

func (r *ReminderRepository) persist(ctx context.Context, reminders []*entity.Reminder, revision int64) error {
	items := make([]json.RawMessage, 0, len(reminders))
	for _, rem := range reminders {
		b, err := json.Marshal(rem)
		if err != nil {
			return fmt.Errorf("%w: encode reminder %s: %v", appErrors.ErrStoreOperation, rem.ID, err)
		}
		items = append(items, b)
	}

	doc, err := encodeEnvelope(revision, items)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, KeyReminders, doc); err != nil {
		return fmt.Errorf("%w: write %s: %v", appErrors.ErrStoreOperation, KeyReminders, err)
	}
	return nil
}
