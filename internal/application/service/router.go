package service

import (
	"context"

	"medremind/internal/application/dto"
)

// ResponseRouter is the single process-wide listener for delivered
// notification responses.
type ResponseRouter interface {
	// Initialize declares the notification action set once; repeated calls
	// are a no-op.
	Initialize(ctx context.Context) error
	// Route dispatches one response event. It never fails: malformed events
	// are dropped and handler errors are logged, so the delivering platform
	// callback is never poisoned.
	Route(ctx context.Context, evt *dto.ResponseEvent)
}
