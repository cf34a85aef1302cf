package authstate

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSessionInitialized ActivityEventType = "session.initialized"
	ActivityEventSessionRefreshed   ActivityEventType = "session.refreshed"
	ActivityEventSessionExpired     ActivityEventType = "session.expired"
	ActivityEventSessionCleared     ActivityEventType = "session.cleared"
	ActivityEventSignedIn           ActivityEventType = "auth.signed_in"
	ActivityEventSignedOut          ActivityEventType = "auth.signed_out"
	ActivityEventForcedSignOut      ActivityEventType = "auth.forced_sign_out"
	ActivityEventProfileUpdated     ActivityEventType = "profile.updated"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
