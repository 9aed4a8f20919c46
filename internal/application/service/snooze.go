package service

import "context"

// SnoozeService defers a delivered reminder without touching adherence. The
// recurring weekly triggers keep running independently of any one-off defer.
type SnoozeService interface {
	// Snooze registers one one-shot follow-up trigger a fixed delay out,
	// carrying the original payload so a later acknowledge still attributes
	// correctly, then sends a best-effort confirmation.
	Snooze(ctx context.Context, medicationID, reminderTime string) error
	// DeliverSnoozed is the fire-time path of the follow-up trigger.
	DeliverSnoozed(ctx context.Context, medicationID, reminderTime string) error
}
