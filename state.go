package authstate

import "sync"

// StateSnapshot is a point-in-time view of the auth state. Components
// reading it observe the last committed values; in-flight backend calls
// do not tear snapshots.
type StateSnapshot struct {
	User    *EnrichedUser
	Session *Session
	Loading bool
}

// SignedIn reports whether the snapshot carries a session.
func (s StateSnapshot) SignedIn() bool {
	return s.Session != nil
}

// AuthState is the shared session/user store with an explicit lifecycle.
// It replaces free-floating module state so the re-initialization guard
// and cache can be exercised in isolation. All mutation goes through the
// manager and listener; consumers read snapshots or subscribe.
type AuthState struct {
	mu          sync.RWMutex
	user        *EnrichedUser
	session     *Session
	loading     bool
	subscribers map[int]func(StateSnapshot)
	nextID      int
	closed      bool
}

// NewAuthState creates an empty state store.
func NewAuthState() *AuthState {
	return &AuthState{
		subscribers: make(map[int]func(StateSnapshot)),
	}
}

// Snapshot returns the current state.
func (s *AuthState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StateSnapshot{
		User:    s.user,
		Session: s.session,
		Loading: s.loading,
	}
}

// Subscribe registers a callback invoked after every committed state
// change. The returned function removes the subscription.
func (s *AuthState) Subscribe(fn func(StateSnapshot)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Teardown clears state and drops every subscriber. The store must not be
// reused afterwards.
func (s *AuthState) Teardown() {
	s.mu.Lock()
	s.user = nil
	s.session = nil
	s.loading = false
	s.closed = true
	s.subscribers = make(map[int]func(StateSnapshot))
	s.mu.Unlock()
}

func (s *AuthState) setSession(session *Session) {
	s.commit(func() {
		s.session = session
	})
}

func (s *AuthState) setUser(user *EnrichedUser) {
	s.commit(func() {
		s.user = user
	})
}

func (s *AuthState) setLoading(loading bool) {
	s.commit(func() {
		s.loading = loading
	})
}

// clear resets to the signed-out state: no user, no session, not loading.
func (s *AuthState) clear() {
	s.commit(func() {
		s.user = nil
		s.session = nil
		s.loading = false
	})
}

func (s *AuthState) commit(mutate func()) {
	s.mu.Lock()
	mutate()
	snapshot := StateSnapshot{
		User:    s.user,
		Session: s.session,
		Loading: s.loading,
	}
	subscribers := make([]func(StateSnapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	// Subscribers run outside the lock so they can read state freely.
	for _, fn := range subscribers {
		fn(snapshot)
	}
}
