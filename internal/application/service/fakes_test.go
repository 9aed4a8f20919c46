package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"medremind/internal/application/dto"
	"medremind/internal/domain/entity"
	"medremind/internal/domain/schedule"
	"medremind/internal/infrastructure/notify"
	"medremind/internal/infrastructure/store"
	appErrors "medremind/internal/pkg/errors"
)

// fakeKV is an in-memory store.KVStore with a write counter.
type fakeKV struct {
	mu       sync.Mutex
	data     map[string]string
	setErr   error
	setCalls int
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string]string)} }

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	return val, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Close() error { return nil }

// fakeRegistrar implements TriggerRegistrar and keeps the registered jobs
// callable so tests can fire triggers by hand.
type fakeRegistrar struct {
	mu      sync.Mutex
	seq     int
	entries map[string]schedule.Trigger
	jobs    map[string]func()
	failAll bool
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{
		entries: make(map[string]schedule.Trigger),
		jobs:    make(map[string]func()),
	}
}

func (f *fakeRegistrar) Register(t schedule.Trigger, job func()) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return "", fmt.Errorf("%w: engine unavailable", appErrors.ErrScheduling)
	}
	f.seq++
	handle := fmt.Sprintf("trig-%d", f.seq)
	f.entries[handle] = t
	f.jobs[handle] = job
	return handle, nil
}

func (f *fakeRegistrar) Cancel(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, handle)
	delete(f.jobs, handle)
}

func (f *fakeRegistrar) CancelAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]schedule.Trigger)
	f.jobs = make(map[string]func())
}

func (f *fakeRegistrar) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeRegistrar) Stop() {}

func (f *fakeRegistrar) fire(handle string) {
	f.mu.Lock()
	job := f.jobs[handle]
	f.mu.Unlock()
	if job != nil {
		job()
	}
}

// fakeScheduler implements SchedulerService and records every registrar
// interaction in order.
type snoozeCall struct {
	medicationID string
	reminderTime string
	delay        time.Duration
}

type fakeScheduler struct {
	mu         sync.Mutex
	seq        int
	failAfter  int // registrations to allow before failing; -1 never fails
	snoozeErr  error
	ops        []string
	registered []schedule.Trigger
	handles    []string
	cancelled  []string
	snoozes    []snoozeCall

	deliverFunc  func(ctx context.Context, reminderID string)
	snoozeFunc   func(ctx context.Context, medicationID, reminderTime string)
	scheduleFunc func(ctx context.Context, reminder *entity.Reminder) (*dto.ScheduleResult, error)
}

func newFakeScheduler() *fakeScheduler { return &fakeScheduler{failAfter: -1} }

func (f *fakeScheduler) RegisterReminderTrigger(reminderID string, t schedule.Trigger) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.registered) >= f.failAfter {
		f.ops = append(f.ops, "register-fail")
		return "", fmt.Errorf("%w: engine unavailable", appErrors.ErrScheduling)
	}
	f.seq++
	handle := fmt.Sprintf("trig-%d", f.seq)
	f.registered = append(f.registered, t)
	f.handles = append(f.handles, handle)
	f.ops = append(f.ops, "register:"+handle)
	return handle, nil
}

func (f *fakeScheduler) RegisterSnoozeTrigger(medicationID, reminderTime string, delay time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snoozeErr != nil {
		return "", f.snoozeErr
	}
	f.seq++
	handle := fmt.Sprintf("snooze-%d", f.seq)
	f.snoozes = append(f.snoozes, snoozeCall{medicationID: medicationID, reminderTime: reminderTime, delay: delay})
	f.ops = append(f.ops, "register:"+handle)
	return handle, nil
}

func (f *fakeScheduler) CancelTrigger(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, handle)
	f.ops = append(f.ops, "cancel:"+handle)
}

func (f *fakeScheduler) CancelAllTriggers() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "cancel-all")
}

func (f *fakeScheduler) InitializeSchedules(ctx context.Context) error { return nil }

func (f *fakeScheduler) ActiveTriggerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registered) - len(f.cancelled)
}

func (f *fakeScheduler) Stop() {}

func (f *fakeScheduler) SetDeliverFunc(fn func(ctx context.Context, reminderID string)) {
	f.deliverFunc = fn
}

func (f *fakeScheduler) SetSnoozeDeliverFunc(fn func(ctx context.Context, medicationID, reminderTime string)) {
	f.snoozeFunc = fn
}

func (f *fakeScheduler) SetScheduleFunc(fn func(ctx context.Context, reminder *entity.Reminder) (*dto.ScheduleResult, error)) {
	f.scheduleFunc = fn
}

func (f *fakeScheduler) opsSince(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops[n:]...)
}

func (f *fakeScheduler) opsLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops)
}

// fakeNotifier implements notify.Notifier.
type sentReminder struct {
	name    string
	dosage  string
	payload notify.Payload
}

type sentImmediate struct {
	title string
	body  string
}

type fakeNotifier struct {
	mu            sync.Mutex
	granted       bool
	permissionErr error
	declareErr    error
	sendErr       error
	declareCalls  int
	reminders     []sentReminder
	immediates    []sentImmediate
}

func newFakeNotifier() *fakeNotifier { return &fakeNotifier{granted: true} }

func (f *fakeNotifier) DeclareCategories(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declareCalls++
	return nil
}

func (f *fakeNotifier) RequestPermission(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.granted, f.permissionErr
}

func (f *fakeNotifier) SendReminder(ctx context.Context, medicationName, dosage string, p notify.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.reminders = append(f.reminders, sentReminder{name: medicationName, dosage: dosage, payload: p})
	return nil
}

func (f *fakeNotifier) SendImmediate(ctx context.Context, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.immediates = append(f.immediates, sentImmediate{title: title, body: body})
	return nil
}

// testEnv wires a reminder service over real repositories and fakes at the
// boundaries.
type testEnv struct {
	kv          *fakeKV
	reminders   *store.ReminderRepository
	medications *store.MedicationRepository
	sched       *fakeScheduler
	notifier    *fakeNotifier
	service     ReminderService
}

func newTestEnv() *testEnv {
	log := zap.NewNop()
	kv := newFakeKV()
	sched := newFakeScheduler()
	notifier := newFakeNotifier()
	reminderRepo := store.NewReminderRepository(kv, log)
	medicationRepo := store.NewMedicationRepository(kv, log)
	return &testEnv{
		kv:          kv,
		reminders:   reminderRepo,
		medications: medicationRepo,
		sched:       sched,
		notifier:    notifier,
		service:     NewReminderService(reminderRepo, sched, notifier, log),
	}
}

func (e *testEnv) seedMedications(doc string) {
	e.kv.data[store.KeyMedications] = doc
}
