package authstate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Backend is the slice of the managed auth service this package consumes.
// Implementations hold the current session for the authenticated principal
// and push lifecycle events to subscribers.
type Backend interface {
	// Session returns the current session, or nil when the principal is
	// signed out. Transport failures are returned as errors so callers can
	// distinguish "no session" from "could not reach the backend".
	Session(ctx context.Context) (*Session, error)

	// Refresh exchanges the refresh token for a new session. A nil session
	// with a nil error is treated as a refresh failure by callers.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// SignOut terminates the session. Scope follows the backend semantics;
	// ScopeLocal only discards local credentials.
	SignOut(ctx context.Context, scope SignOutScope) error

	// Subscribe registers a handler for auth events. The returned function
	// removes the subscription.
	Subscribe(handler EventHandler) (func(), error)
}

// SignOutScope selects how far a sign-out reaches.
type SignOutScope string

const (
	// ScopeLocal discards the local session only.
	ScopeLocal SignOutScope = "local"
	// ScopeGlobal revokes every session for the principal.
	ScopeGlobal SignOutScope = "global"
)

// EventHandler receives backend auth events.
type EventHandler func(event AuthEvent)

// ProfileStore retrieves and updates profile rows for enrichment.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Profile, error)
}

// ProfileCache bounds backend reads during enrichment. Entries expire by
// TTL on the implementation side; Get never returns a stale entry.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*Profile, bool, error)
	Set(ctx context.Context, key string, profile *Profile) error
	Delete(ctx context.Context, key string) error
}

// Config holds session lifecycle options.
type Config interface {
	// GetRefreshThreshold is the window before expiry in which Validate
	// refreshes the session instead of reusing it.
	GetRefreshThreshold() time.Duration
	// GetProfileCacheTTL bounds how long enriched profile data is reused.
	GetProfileCacheTTL() time.Duration
	// GetEventQueueSize caps the deferred event queue of the listener.
	GetEventQueueSize() int
	// GetSignOutScope is the scope used for forced sign-outs.
	GetSignOutScope() SignOutScope
}

// SimpleConfig is a Config with sensible defaults for zero values.
type SimpleConfig struct {
	RefreshThreshold time.Duration
	ProfileCacheTTL  time.Duration
	EventQueueSize   int
	SignOutScope     SignOutScope
}

const (
	// DefaultRefreshThreshold refreshes sessions expiring within 5 minutes.
	DefaultRefreshThreshold = 5 * time.Minute
	// DefaultProfileCacheTTL keeps enriched profiles for one minute.
	DefaultProfileCacheTTL = time.Minute
	// DefaultEventQueueSize is the deferred event queue capacity.
	DefaultEventQueueSize = 64
)

func (c SimpleConfig) GetRefreshThreshold() time.Duration {
	if c.RefreshThreshold <= 0 {
		return DefaultRefreshThreshold
	}
	return c.RefreshThreshold
}

func (c SimpleConfig) GetProfileCacheTTL() time.Duration {
	if c.ProfileCacheTTL <= 0 {
		return DefaultProfileCacheTTL
	}
	return c.ProfileCacheTTL
}

func (c SimpleConfig) GetEventQueueSize() int {
	if c.EventQueueSize <= 0 {
		return DefaultEventQueueSize
	}
	return c.EventQueueSize
}

func (c SimpleConfig) GetSignOutScope() SignOutScope {
	if c.SignOutScope == "" {
		return ScopeLocal
	}
	return c.SignOutScope
}

var _ Config = SimpleConfig{}
