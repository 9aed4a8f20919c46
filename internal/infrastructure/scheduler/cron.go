// Package scheduler wraps the cron engine behind the trigger registrar
// boundary. Callers register a descriptor and get back an opaque handle
// used for cancellation.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"medremind/internal/domain/schedule"
	appErrors "medremind/internal/pkg/errors"
)

// Registrar owns the process-wide trigger table. Registration is not
// idempotent; callers cancel before re-registering.
type Registrar struct {
	cron *cron.Cron
	log  *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewRegistrar(log *zap.Logger) *Registrar {
	c := cron.New(cron.WithSeconds())
	c.Start()
	return &Registrar{
		cron:    c,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// Register schedules job according to the trigger and returns its handle.
// One-shot triggers deregister themselves after firing.
func (r *Registrar) Register(t schedule.Trigger, job func()) (string, error) {
	spec, err := cronSpec(t)
	if err != nil {
		return "", err
	}
	handle := uuid.New().String()

	wrapped := job
	if !t.Repeats {
		wrapped = func() {
			job()
			r.remove(handle)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := r.cron.AddFunc(spec, wrapped)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	r.entries[handle] = id

	r.log.Debug("trigger registered",
		zap.String("handle", handle),
		zap.String("spec", spec),
		zap.Bool("repeats", t.Repeats))
	return handle, nil
}

// Cancel removes one trigger. Unknown or already-removed handles are a
// no-op.
func (r *Registrar) Cancel(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.entries[handle]
	if !ok {
		r.log.Debug("cancel for unknown trigger handle", zap.String("handle", handle))
		return
	}
	r.cron.Remove(id)
	delete(r.entries, handle)
}

// CancelAll removes every trigger owned by this process. Full resets only,
// never the per-reminder edit path.
func (r *Registrar) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for handle, id := range r.entries {
		r.cron.Remove(id)
		delete(r.entries, handle)
	}
}

// Stop halts the engine and waits for running jobs to finish.
func (r *Registrar) Stop() {
	<-r.cron.Stop().Done()
}

// Len reports the number of live triggers.
func (r *Registrar) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registrar) remove(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.entries[handle]; ok {
		r.cron.Remove(id)
		delete(r.entries, handle)
	}
}

// cronSpec renders a trigger as a seconds-precision cron expression. Weekly
// triggers arrive with the 1=Sunday..7=Saturday weekday and cron wants
// 0=Sunday..6=Saturday. One-shot triggers pin the concrete fire instant.
func cronSpec(t schedule.Trigger) (string, error) {
	if t.Repeats {
		if t.Weekday < 1 || t.Weekday > 7 {
			return "", fmt.Errorf("%w: weekday %d out of range", appErrors.ErrScheduling, t.Weekday)
		}
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return "", fmt.Errorf("%w: time %02d:%02d out of range", appErrors.ErrScheduling, t.Hour, t.Minute)
		}
		return fmt.Sprintf("0 %d %d * * %d", t.Minute, t.Hour, t.Weekday-1), nil
	}

	if t.After <= 0 {
		return "", fmt.Errorf("%w: one-shot delay must be positive", appErrors.ErrScheduling)
	}
	at := time.Now().Add(t.After)
	return fmt.Sprintf("%d %d %d %d %d *", at.Second(), at.Minute(), at.Hour(), at.Day(), int(at.Month())), nil
}
