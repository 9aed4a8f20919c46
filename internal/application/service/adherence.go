package service

import "context"

// AdherenceService records acknowledged intakes.
type AdherenceService interface {
	// Acknowledge sets lastTaken and bumps the adherence score, clamped at
	// 100, then sends a best-effort confirmation. Unknown medications are a
	// logged no-op.
	Acknowledge(ctx context.Context, medicationID string) error
}
