package authstate_test

import (
	"context"
	"sync"
	"sync/atomic"

	authstate "github.com/goliatone/go-authstate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore implements authstate.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, id uuid.UUID) (*authstate.Profile, error) {
	args := m.Called(ctx, id)
	var profile *authstate.Profile
	if v := args.Get(0); v != nil {
		profile = v.(*authstate.Profile)
	}
	return profile, args.Error(1)
}

func (m *MockProfileStore) UpdateProfile(ctx context.Context, id uuid.UUID, update authstate.ProfileUpdate) (*authstate.Profile, error) {
	args := m.Called(ctx, id, update)
	var profile *authstate.Profile
	if v := args.Get(0); v != nil {
		profile = v.(*authstate.Profile)
	}
	return profile, args.Error(1)
}

// stubBackend is a function-field Backend with call counters, for tests
// that need concurrency or custom behavior beyond canned returns.
type stubBackend struct {
	SessionFn   func(ctx context.Context) (*authstate.Session, error)
	RefreshFn   func(ctx context.Context, refreshToken string) (*authstate.Session, error)
	SignOutFn   func(ctx context.Context, scope authstate.SignOutScope) error
	SubscribeFn func(handler authstate.EventHandler) (func(), error)

	sessionCalls int64
	refreshCalls int64
	signOutCalls int64

	mu            sync.Mutex
	signOutScopes []authstate.SignOutScope
}

func (b *stubBackend) Session(ctx context.Context) (*authstate.Session, error) {
	atomic.AddInt64(&b.sessionCalls, 1)
	if b.SessionFn != nil {
		return b.SessionFn(ctx)
	}
	return nil, nil
}

func (b *stubBackend) Refresh(ctx context.Context, refreshToken string) (*authstate.Session, error) {
	atomic.AddInt64(&b.refreshCalls, 1)
	if b.RefreshFn != nil {
		return b.RefreshFn(ctx, refreshToken)
	}
	return nil, nil
}

func (b *stubBackend) SignOut(ctx context.Context, scope authstate.SignOutScope) error {
	atomic.AddInt64(&b.signOutCalls, 1)
	b.mu.Lock()
	b.signOutScopes = append(b.signOutScopes, scope)
	b.mu.Unlock()
	if b.SignOutFn != nil {
		return b.SignOutFn(ctx, scope)
	}
	return nil
}

func (b *stubBackend) Subscribe(handler authstate.EventHandler) (func(), error) {
	if b.SubscribeFn != nil {
		return b.SubscribeFn(handler)
	}
	return func() {}, nil
}

func (b *stubBackend) SessionCalls() int64 { return atomic.LoadInt64(&b.sessionCalls) }
func (b *stubBackend) RefreshCalls() int64 { return atomic.LoadInt64(&b.refreshCalls) }
func (b *stubBackend) SignOutCalls() int64 { return atomic.LoadInt64(&b.signOutCalls) }

func (b *stubBackend) SignOutScopes() []authstate.SignOutScope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]authstate.SignOutScope(nil), b.signOutScopes...)
}

// countingProfileStore counts fetches without testify bookkeeping, for
// concurrency assertions.
type countingProfileStore struct {
	profile *authstate.Profile
	err     error
	calls   int64
}

func (s *countingProfileStore) GetProfile(ctx context.Context, id uuid.UUID) (*authstate.Profile, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	profile := s.profile
	if profile == nil {
		profile = &authstate.Profile{ID: id, Role: authstate.RoleStudent}
	}
	return profile, nil
}

func (s *countingProfileStore) UpdateProfile(ctx context.Context, id uuid.UUID, update authstate.ProfileUpdate) (*authstate.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	profile := s.profile
	if profile == nil {
		profile = &authstate.Profile{ID: id, Role: authstate.RoleStudent}
	}
	return update.Apply(profile), nil
}

func (s *countingProfileStore) Calls() int64 { return atomic.LoadInt64(&s.calls) }

// capturingSink records activity events.
type capturingSink struct {
	mu     sync.Mutex
	events []authstate.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, event authstate.ActivityEvent) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	return nil
}

func (c *capturingSink) Events() []authstate.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]authstate.ActivityEvent(nil), c.events...)
}

func (c *capturingSink) Has(eventType authstate.ActivityEventType) bool {
	for _, event := range c.Events() {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}
