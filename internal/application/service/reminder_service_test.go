package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medremind/internal/application/dto"
	"medremind/internal/domain/constant"
	"medremind/internal/domain/entity"
	appErrors "medremind/internal/pkg/errors"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func createRequest() *dto.CreateReminderRequest {
	return &dto.CreateReminderRequest{
		MedicationID:   "m1",
		MedicationName: "Aspirin",
		Dosage:         "100mg",
		ScheduledTime:  "09:00",
		Days:           []int{1, 3, 5},
	}
}

func TestCreateReminderSchedulesAllDays(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)

	require.NotNil(t, resp.Schedule)
	assert.Equal(t, constant.OutcomeScheduled, resp.Schedule.Outcome)
	require.Len(t, env.sched.registered, 3)

	wantWeekdays := []int{2, 4, 6}
	for i, trig := range env.sched.registered {
		assert.Equal(t, wantWeekdays[i], trig.Weekday)
		assert.Equal(t, 9, trig.Hour)
		assert.Zero(t, trig.Minute)
		assert.True(t, trig.Repeats)
	}

	// The full handle set is persisted in registration order, first handle
	// canonical.
	assert.Equal(t, env.sched.handles, resp.TriggerHandles)
	assert.Equal(t, env.sched.handles[0], resp.TriggerHandle)

	stored, err := env.reminders.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, env.sched.handles, stored.TriggerHandles)
	assert.True(t, stored.Enabled)
}

func TestCreateReminderValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*dto.CreateReminderRequest)
	}{
		{"missing medication id", func(r *dto.CreateReminderRequest) { r.MedicationID = "" }},
		{"malformed time", func(r *dto.CreateReminderRequest) { r.ScheduledTime = "9am" }},
		{"hour out of range", func(r *dto.CreateReminderRequest) { r.ScheduledTime = "24:00" }},
		{"day out of range", func(r *dto.CreateReminderRequest) { r.Days = []int{1, 7} }},
		{"negative day", func(r *dto.CreateReminderRequest) { r.Days = []int{-1} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := createRequest()
			tc.mutate(req)
			_, err := env.service.CreateReminder(ctx, req)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidSchedule))
		})
	}

	assert.Empty(t, env.sched.registered, "invalid requests never reach the registrar")
	assert.Zero(t, env.kv.setCalls, "invalid requests are never persisted")
}

func TestCreateReminderDisabled(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	req := createRequest()
	req.Enabled = boolPtr(false)
	resp, err := env.service.CreateReminder(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, constant.OutcomeSkippedDisabled, resp.Schedule.Outcome)
	assert.Empty(t, env.sched.ops, "disabled reminders never touch the registrar")
	assert.Empty(t, resp.TriggerHandles)

	stored, err := env.reminders.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
	assert.Empty(t, stored.TriggerHandles)
}

func TestScheduleDisabledIsPureNoOp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.service.Schedule(ctx, &entity.Reminder{
		ID:            "r1",
		MedicationID:  "m1",
		ScheduledTime: "09:00",
		Days:          []int{1},
		Enabled:       false,
	})
	require.NoError(t, err)
	assert.Equal(t, constant.OutcomeSkippedDisabled, result.Outcome)
	assert.Empty(t, env.sched.ops)
	assert.Zero(t, env.kv.setCalls)
}

func TestScheduleEnabledWithNoDays(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.service.Schedule(ctx, &entity.Reminder{
		ID:            "r1",
		MedicationID:  "m1",
		ScheduledTime: "09:00",
		Days:          nil,
		Enabled:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, constant.OutcomeSkippedNoDays, result.Outcome)
	assert.Empty(t, env.sched.ops)
	assert.Zero(t, env.kv.setCalls)
}

func TestRescheduleCancelsEveryPriorHandleFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)
	priorHandles := append([]string(nil), resp.TriggerHandles...)
	require.Len(t, priorHandles, 3)

	stored, err := env.reminders.FindByID(ctx, resp.ID)
	require.NoError(t, err)

	mark := env.sched.opsLen()
	result, err := env.service.Schedule(ctx, stored)
	require.NoError(t, err)
	require.Equal(t, constant.OutcomeScheduled, result.Outcome)

	ops := env.sched.opsSince(mark)
	require.Len(t, ops, 6)
	for i, handle := range priorHandles {
		assert.Equal(t, "cancel:"+handle, ops[i], "prior handles cancelled before any registration")
	}
	for _, op := range ops[3:] {
		assert.True(t, strings.HasPrefix(op, "register:"), "got %s", op)
	}

	// No prior handle survives in the persisted set.
	reloaded, err := env.reminders.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	for _, handle := range priorHandles {
		assert.NotContains(t, reloaded.TriggerHandles, handle)
	}
	assert.Len(t, reloaded.TriggerHandles, 3)
}

func TestUpdateReminderRewiresTriggers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)
	prior := append([]string(nil), created.TriggerHandles...)

	resp, err := env.service.UpdateReminder(ctx, created.ID, &dto.UpdateReminderRequest{
		ScheduledTime: strPtr("21:30"),
		Days:          &[]int{0},
	})
	require.NoError(t, err)

	assert.Equal(t, constant.OutcomeScheduled, resp.Schedule.Outcome)
	assert.Equal(t, "21:30", resp.ScheduledTime)
	assert.Equal(t, []int{0}, resp.Days)
	require.Len(t, resp.TriggerHandles, 1)

	for _, handle := range prior {
		assert.Contains(t, env.sched.cancelled, handle)
	}

	stored, err := env.reminders.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "21:30", stored.ScheduledTime)
	assert.Equal(t, resp.TriggerHandles, stored.TriggerHandles)

	last := env.sched.registered[len(env.sched.registered)-1]
	assert.Equal(t, 1, last.Weekday, "Sunday maps to registrar weekday 1")
	assert.Equal(t, 21, last.Hour)
	assert.Equal(t, 30, last.Minute)
}

func TestUpdateReminderDisableCancelsAndClears(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)
	prior := append([]string(nil), created.TriggerHandles...)

	mark := env.sched.opsLen()
	resp, err := env.service.UpdateReminder(ctx, created.ID, &dto.UpdateReminderRequest{
		Enabled: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, constant.OutcomeSkippedDisabled, resp.Schedule.Outcome)
	assert.Empty(t, resp.TriggerHandles)

	ops := env.sched.opsSince(mark)
	require.Len(t, ops, len(prior), "cancels only, no new registrations")
	for i, handle := range prior {
		assert.Equal(t, "cancel:"+handle, ops[i])
	}

	stored, err := env.reminders.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
	assert.Empty(t, stored.TriggerHandles)
	assert.Equal(t, []int{1, 3, 5}, stored.Days, "configuration is retained while disabled")
}

func TestUpdateReminderEmptyDaysCancelsAndClears(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)

	resp, err := env.service.UpdateReminder(ctx, created.ID, &dto.UpdateReminderRequest{
		Days: &[]int{},
	})
	require.NoError(t, err)

	assert.Equal(t, constant.OutcomeSkippedNoDays, resp.Schedule.Outcome)
	assert.True(t, resp.Enabled, "enabled with no days stays enabled")
	assert.Empty(t, resp.TriggerHandles)

	stored, err := env.reminders.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.TriggerHandles)
	assert.Empty(t, stored.Days)
}

func TestUpdateReminderUnknownID(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.UpdateReminder(context.Background(), "missing", &dto.UpdateReminderRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrReminderNotFound))
}

func TestDeleteReminderCancelsAllHandles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)
	prior := append([]string(nil), created.TriggerHandles...)
	require.Len(t, prior, 3)

	require.NoError(t, env.service.DeleteReminder(ctx, created.ID))

	assert.Equal(t, prior, env.sched.cancelled)
	_, err = env.reminders.FindByID(ctx, created.ID)
	assert.True(t, errors.Is(err, appErrors.ErrReminderNotFound))
}

func TestDeleteReminderUnknownIDIsANoOp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	writes := env.kv.setCalls
	require.NoError(t, env.service.DeleteReminder(ctx, "missing"))
	assert.Empty(t, env.sched.ops, "unknown id performs zero registrar calls")
	assert.Equal(t, writes, env.kv.setCalls, "unknown id performs zero writes")
}

func TestSchedulePermissionDenied(t *testing.T) {
	env := newTestEnv()
	env.notifier.granted = false
	ctx := context.Background()

	resp, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)

	assert.Equal(t, constant.OutcomePermissionDenied, resp.Schedule.Outcome)
	assert.Empty(t, env.sched.registered, "denied permission registers nothing")
	assert.Empty(t, resp.TriggerHandles)
	assert.Equal(t, 1, env.kv.setCalls, "only the configuration write happened")

	// The reminder itself is persisted enabled, with an empty handle set.
	stored, err := env.reminders.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.Empty(t, stored.TriggerHandles)
}

func TestSchedulePermissionCheckErrorTreatedAsDenied(t *testing.T) {
	env := newTestEnv()
	env.notifier.granted = false
	env.notifier.permissionErr = errors.New("gate unreachable")
	ctx := context.Background()

	resp, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)
	assert.Equal(t, constant.OutcomePermissionDenied, resp.Schedule.Outcome)
	assert.Empty(t, env.sched.registered)
}

func TestScheduleRegistrarFailureCompensates(t *testing.T) {
	env := newTestEnv()
	env.sched.failAfter = 1
	ctx := context.Background()

	resp, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err, "create reports the failure in the outcome, not as an error")

	assert.Equal(t, constant.OutcomeSchedulerError, resp.Schedule.Outcome)
	require.Len(t, env.sched.handles, 1, "one registration succeeded before the failure")
	assert.Equal(t, env.sched.handles, env.sched.cancelled, "the successful registration is compensated")
	assert.Equal(t, 1, env.kv.setCalls, "no handle write after a failed round")

	// Prior persisted state stands: the configuration write, no handles.
	stored, err := env.reminders.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.Empty(t, stored.TriggerHandles)
}

func TestScheduleStoreFailureAfterRegistration(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	reminder := &entity.Reminder{
		ID:            "r1",
		MedicationID:  "m1",
		ScheduledTime: "09:00",
		Days:          []int{1, 3},
		Enabled:       true,
	}
	require.NoError(t, env.reminders.Save(ctx, reminder))

	env.kv.setErr = errors.New("disk full")
	result, err := env.service.Schedule(ctx, reminder)
	assert.True(t, errors.Is(err, appErrors.ErrStoreOperation))
	assert.Equal(t, constant.OutcomeStoreError, result.Outcome)
	assert.Len(t, result.Handles, 2, "registrations happened before the write failed")
}

func TestDeliverReminder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, env.service.DeliverReminder(ctx, created.ID))
	require.Len(t, env.notifier.reminders, 1)

	sent := env.notifier.reminders[0]
	assert.Equal(t, "Aspirin", sent.name)
	assert.Equal(t, "100mg", sent.dosage)
	assert.Equal(t, "m1", sent.payload.MedicationID)
	assert.Equal(t, "09:00", sent.payload.ReminderTime)
	assert.Empty(t, sent.payload.Action, "outbound payload carries no action")
}

func TestDeliverReminderSkipsDisabledAndRemoved(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	req := createRequest()
	req.Enabled = boolPtr(false)
	created, err := env.service.CreateReminder(ctx, req)
	require.NoError(t, err)

	require.NoError(t, env.service.DeliverReminder(ctx, created.ID))
	require.NoError(t, env.service.DeliverReminder(ctx, "long-gone"))
	assert.Empty(t, env.notifier.reminders)
}

func TestDeliverReminderThroughWiredCallback(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)

	// The constructor wires delivery into the scheduler; firing the
	// callback delivers against current data.
	require.NotNil(t, env.sched.deliverFunc)
	env.sched.deliverFunc(ctx, created.ID)
	assert.Len(t, env.notifier.reminders, 1)
}

func TestSendTestNotification(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, env.service.SendTestNotification(ctx, created.ID))
	assert.Len(t, env.notifier.reminders, 1)

	err = env.service.SendTestNotification(ctx, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrReminderNotFound))

	env.notifier.sendErr = errors.New("channel down")
	err = env.service.SendTestNotification(ctx, created.ID)
	assert.Error(t, err, "test notification failures surface to the caller")
}

func TestListReminders(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	list, err := env.service.ListReminders(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.service.CreateReminder(ctx, createRequest())
	require.NoError(t, err)
	second := createRequest()
	second.MedicationID = "m2"
	second.Enabled = boolPtr(false)
	_, err = env.service.CreateReminder(ctx, second)
	require.NoError(t, err)

	list, err = env.service.ListReminders(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2, "listing is unfiltered")
}
