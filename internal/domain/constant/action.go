package constant

// ResponseAction identifies how the recipient reacted to a delivered
// reminder.
type ResponseAction string

const (
	// ActionTaken records that the dose was taken.
	ActionTaken ResponseAction = "taken"
	// ActionSnooze defers the reminder by a fixed interval.
	ActionSnooze ResponseAction = "snooze"
	// ActionOpen means the notification was opened without answering.
	ActionOpen ResponseAction = "open"
)

// NotificationCategory tags every reminder notification so clients can route
// taps back to the response endpoint.
const NotificationCategory = "MEDICATION_REMINDER"

// KnownAction reports whether a is one of the actions this service handles.
func KnownAction(a ResponseAction) bool {
	switch a {
	case ActionTaken, ActionSnooze, ActionOpen:
		return true
	}
	return false
}
