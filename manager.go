package authstate

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

// SessionManager maintains the single current session and decides whether
// it is still usable. It owns the refresh policy: sessions expiring inside
// the threshold window are refreshed in place, a rejected refresh is fatal
// and clears state, and transport failures never force a logout.
type SessionManager struct {
	backend  Backend
	enricher *ProfileEnricher
	state    *AuthState
	cfg      Config
	logger   Logger
	provider LoggerProvider
	activity ActivitySink
	now      func() time.Time

	// flight collapses overlapping bootstrap and enrichment calls; the
	// second caller relies on the first caller's state update instead of
	// issuing a duplicate fetch.
	flight singleflight.Group

	mu        sync.Mutex
	lastValid bool
}

// ManagerOption customizes manager construction.
type ManagerOption func(*SessionManager)

// WithManagerClock injects a custom clock (useful for tests).
func WithManagerClock(clock func() time.Time) ManagerOption {
	return func(m *SessionManager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithManagerState shares an existing state store, typically with an
// AuthEventListener driving the same application.
func WithManagerState(state *AuthState) ManagerOption {
	return func(m *SessionManager) {
		if state != nil {
			m.state = state
		}
	}
}

// WithManagerActivitySink sets the sink used for session lifecycle events.
func WithManagerActivitySink(sink ActivitySink) ManagerOption {
	return func(m *SessionManager) {
		m.activity = normalizeActivitySink(sink)
	}
}

// NewSessionManager returns a manager for the given backend and enricher.
func NewSessionManager(backend Backend, enricher *ProfileEnricher, cfg Config, opts ...ManagerOption) *SessionManager {
	if cfg == nil {
		cfg = SimpleConfig{}
	}

	loggerProvider, logger := ResolveLogger("authstate.manager", nil, nil)
	manager := &SessionManager{
		backend:  backend,
		enricher: enricher,
		state:    NewAuthState(),
		cfg:      cfg,
		logger:   logger,
		provider: loggerProvider,
		activity: noopActivitySink{},
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}

	return manager
}

func (m *SessionManager) WithLogger(l Logger) *SessionManager {
	m.provider, m.logger = ResolveLogger("authstate.manager", m.provider, l)
	return m
}

// WithLoggerProvider overrides the logger provider used by the manager.
func (m *SessionManager) WithLoggerProvider(provider LoggerProvider) *SessionManager {
	m.provider, m.logger = ResolveLogger("authstate.manager", provider, m.logger)
	return m
}

// State exposes the shared state store.
func (m *SessionManager) State() *AuthState {
	return m.state
}

// Initialize bootstraps session state once at startup. The call is
// idempotent: overlapping calls collapse into one backend round-trip and
// one profile fetch, later calls re-run the bootstrap.
func (m *SessionManager) Initialize(ctx context.Context) error {
	_, err, _ := m.flight.Do("initialize", func() (any, error) {
		return nil, m.initialize(ctx)
	})
	return err
}

func (m *SessionManager) initialize(ctx context.Context) error {
	m.state.setLoading(true)
	defer m.state.setLoading(false)

	session, err := m.backend.Session(ctx)
	if err != nil {
		m.logger.Error("initialize failed to fetch session", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to bootstrap session")
	}

	if session == nil {
		m.state.clear()
		m.setValid(false)
		return nil
	}

	if err := session.ResolveExpiry(); err != nil {
		m.logger.Warn("initialize could not resolve session expiry", "error", err)
	}

	m.state.setSession(session.Clone())
	if err := m.enrichSession(ctx, session); err != nil {
		return err
	}
	m.setValid(true)

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSessionInitialized,
		UserID:    session.UserID,
	})

	return nil
}

// Validate checks whether the current session is usable, refreshing it
// when it expires inside the threshold window. Transient backend failures
// return the previous validity so a network blip never signs the user
// out; a rejected refresh clears state and requires re-authentication.
func (m *SessionManager) Validate(ctx context.Context) (bool, error) {
	session, err := m.backend.Session(ctx)
	if err != nil {
		// Only a structured auth classification is fatal here; a flat
		// transport error stays transient no matter what its text says.
		if isStructuredAuthError(err) {
			m.clearSession(ctx, ActivityEventSessionExpired, session)
			return false, err
		}

		m.logger.Warn("session fetch failed, keeping previous validity", "error", err)
		return m.previousValidity(), nil
	}

	if session == nil {
		m.clearSession(ctx, ActivityEventSessionCleared, nil)
		return false, nil
	}

	if err := session.ResolveExpiry(); err != nil {
		m.logger.Warn("validate could not resolve session expiry", "error", err)
	}

	if session.ExpiresWithin(m.cfg.GetRefreshThreshold(), m.now()) {
		refreshed, err := m.backend.Refresh(ctx, session.RefreshToken)
		if err != nil || refreshed == nil {
			if err == nil {
				err = ErrRefreshFailed
			}
			m.logger.Error("session refresh rejected", "error", err)
			m.clearSession(ctx, ActivityEventSessionExpired, session)
			return false, goerrors.Wrap(err, goerrors.CategoryAuth, "session refresh failed")
		}

		if err := refreshed.ResolveExpiry(); err != nil {
			m.logger.Warn("validate could not resolve refreshed expiry", "error", err)
		}

		session = refreshed
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventSessionRefreshed,
			UserID:    session.UserID,
		})
	}

	m.state.setSession(session.Clone())

	if m.state.Snapshot().User == nil {
		if err := m.enrichSession(ctx, session); err != nil {
			return false, err
		}
	}

	m.setValid(true)
	return true, nil
}

// enrichSession resolves the enriched user for a session. Overlapping
// calls for the same user share one fetch. An auth-classified enrichment
// failure means the session itself is invalid: force a local sign-out and
// report the failure so callers do not mark the session valid.
func (m *SessionManager) enrichSession(ctx context.Context, session *Session) error {
	identity := sessionIdentity(session)
	if identity == nil {
		m.logger.Warn("session carries no resolvable identity", "user_id", session.UserID)
		return nil
	}

	user, err, _ := m.flight.Do("enrich:"+identity.ID.String(), func() (any, error) {
		return m.enricher.EnrichUser(ctx, identity)
	})
	if err != nil {
		m.logger.Error("enrichment rejected session, forcing sign out", "error", err)
		if signOutErr := m.backend.SignOut(ctx, m.cfg.GetSignOutScope()); signOutErr != nil {
			m.logger.Warn("forced sign out failed", "error", signOutErr)
		}
		m.clearSession(ctx, ActivityEventForcedSignOut, session)
		return err
	}

	if enriched, ok := user.(*EnrichedUser); ok {
		m.state.setUser(enriched)
	}

	return nil
}

func (m *SessionManager) clearSession(ctx context.Context, event ActivityEventType, session *Session) {
	userID := ""
	if session != nil {
		userID = session.UserID
	}

	m.state.clear()
	m.setValid(false)
	m.recordActivity(ctx, ActivityEvent{
		EventType: event,
		UserID:    userID,
	})
}

func (m *SessionManager) setValid(valid bool) {
	m.mu.Lock()
	m.lastValid = valid
	m.mu.Unlock()
}

func (m *SessionManager) previousValidity() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastValid
}

func (m *SessionManager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activity)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("session manager activity sink error", "error", err)
	}
}
