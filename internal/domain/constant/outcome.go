package constant

// ScheduleOutcome describes what scheduling a reminder actually did. The
// operation often succeeds without registering anything, so a bare error
// return could not tell these cases apart.
type ScheduleOutcome string

const (
	OutcomeScheduled        ScheduleOutcome = "scheduled"
	OutcomeSkippedDisabled  ScheduleOutcome = "skipped_disabled"
	OutcomeSkippedNoDays    ScheduleOutcome = "skipped_no_days"
	OutcomePermissionDenied ScheduleOutcome = "permission_denied"
	OutcomeSchedulerError   ScheduleOutcome = "scheduler_error"
	OutcomeStoreError       ScheduleOutcome = "store_error"
)
