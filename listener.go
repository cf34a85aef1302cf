package authstate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AuthEventType identifies backend-pushed authentication events.
type AuthEventType string

const (
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventType = "USER_UPDATED"
)

// EventPriority declares how an event is scheduled. The distinction is an
// explicit field rather than a dispatch-time scheduling trick: sign-in is
// processed before Dispatch returns so dependent callers observe the new
// state immediately, everything else goes through the queue worker.
type EventPriority int

const (
	// PriorityQueued events are processed in order by the queue worker.
	PriorityQueued EventPriority = iota + 1
	// PriorityImmediate events are processed synchronously in Dispatch.
	PriorityImmediate
)

// AuthEvent is a backend auth notification plus its scheduling priority.
type AuthEvent struct {
	Type     AuthEventType
	Session  *Session
	Priority EventPriority
}

// defaultPriority assigns the sign-in fast path; every other event defers
// one turn so it cannot re-enter the backend client's own locks.
func defaultPriority(eventType AuthEventType) EventPriority {
	if eventType == EventSignedIn {
		return PriorityImmediate
	}
	return PriorityQueued
}

// AuthEventListener reacts to backend auth events and keeps the shared
// state consistent. Events are serialized through a single worker; only
// sign-out and sign-in take the synchronous path.
type AuthEventListener struct {
	backend  Backend
	enricher *ProfileEnricher
	state    *AuthState
	cfg      Config
	logger   Logger
	provider LoggerProvider
	activity ActivitySink

	started     atomic.Bool
	mu          sync.Mutex
	queue       chan AuthEvent
	quit        chan struct{}
	workerDone  chan struct{}
	unsubscribe func()
	runCtx      context.Context
}

// ListenerOption customizes listener construction.
type ListenerOption func(*AuthEventListener)

// WithListenerState shares an existing state store, typically with the
// SessionManager driving the same application.
func WithListenerState(state *AuthState) ListenerOption {
	return func(l *AuthEventListener) {
		if state != nil {
			l.state = state
		}
	}
}

// WithListenerActivitySink sets the sink used for auth lifecycle events.
func WithListenerActivitySink(sink ActivitySink) ListenerOption {
	return func(l *AuthEventListener) {
		l.activity = normalizeActivitySink(sink)
	}
}

// NewAuthEventListener returns a listener wired to the backend's event
// stream.
func NewAuthEventListener(backend Backend, enricher *ProfileEnricher, cfg Config, opts ...ListenerOption) *AuthEventListener {
	if cfg == nil {
		cfg = SimpleConfig{}
	}

	loggerProvider, logger := ResolveLogger("authstate.listener", nil, nil)
	listener := &AuthEventListener{
		backend:  backend,
		enricher: enricher,
		state:    NewAuthState(),
		cfg:      cfg,
		logger:   logger,
		provider: loggerProvider,
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(listener)
		}
	}

	return listener
}

func (l *AuthEventListener) WithLogger(logger Logger) *AuthEventListener {
	l.provider, l.logger = ResolveLogger("authstate.listener", l.provider, logger)
	return l
}

// WithLoggerProvider overrides the logger provider used by the listener.
func (l *AuthEventListener) WithLoggerProvider(provider LoggerProvider) *AuthEventListener {
	l.provider, l.logger = ResolveLogger("authstate.listener", provider, l.logger)
	return l
}

// State exposes the shared state store.
func (l *AuthEventListener) State() *AuthState {
	return l.state
}

// Start installs the backend subscription and the queue worker. A second
// Start returns ErrListenerStarted: the backend would otherwise
// accumulate duplicate subscriptions across restarts of the host app.
func (l *AuthEventListener) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrListenerStarted
	}

	if ctx == nil {
		ctx = context.Background()
	}

	queue := make(chan AuthEvent, l.cfg.GetEventQueueSize())
	quit := make(chan struct{})
	workerDone := make(chan struct{})

	l.mu.Lock()
	l.runCtx = ctx
	l.queue = queue
	l.quit = quit
	l.workerDone = workerDone
	l.mu.Unlock()

	go l.worker(ctx, queue, quit, workerDone)

	unsubscribe, err := l.backend.Subscribe(l.Dispatch)
	if err != nil {
		close(quit)
		<-workerDone
		l.started.Store(false)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to subscribe to auth events")
	}

	l.mu.Lock()
	l.unsubscribe = unsubscribe
	l.mu.Unlock()

	return nil
}

// Close removes the subscription and stops the worker. Pending queued
// events are drained before Close returns.
func (l *AuthEventListener) Close() {
	if !l.started.CompareAndSwap(true, false) {
		return
	}

	l.mu.Lock()
	unsubscribe := l.unsubscribe
	quit := l.quit
	workerDone := l.workerDone
	l.unsubscribe = nil
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	close(quit)
	<-workerDone
}

// Dispatch routes a backend auth event. Sign-out clears state before
// returning. Sign-in (PriorityImmediate) is processed before Dispatch
// returns. Any other event carrying a session is queued for the worker,
// decoupled from the caller's stack. Events without a session clear state.
func (l *AuthEventListener) Dispatch(event AuthEvent) {
	if event.Priority == 0 {
		event.Priority = defaultPriority(event.Type)
	}

	if event.Type == EventSignedOut {
		l.state.clear()
		l.recordActivity(l.context(), ActivityEvent{EventType: ActivityEventSignedOut})
		return
	}

	if event.Session == nil {
		l.state.clear()
		l.recordActivity(l.context(), ActivityEvent{
			EventType: ActivityEventSessionCleared,
			Metadata:  map[string]any{"event": string(event.Type)},
		})
		return
	}

	if event.Priority == PriorityImmediate {
		l.processSession(l.context(), event)
		return
	}

	// Snapshot the queue under the lock; Start swaps it on restart. A nil
	// queue (listener not started) falls through to inline processing.
	l.mu.Lock()
	queue := l.queue
	l.mu.Unlock()

	select {
	case queue <- event:
	default:
		// A full queue falls back to inline processing; auth events must
		// not be dropped.
		l.logger.Warn("event queue full, processing inline", "event", string(event.Type))
		l.processSession(l.context(), event)
	}
}

func (l *AuthEventListener) worker(ctx context.Context, queue chan AuthEvent, quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			// Drain what is already queued so Close leaves consistent state.
			for {
				select {
				case event := <-queue:
					l.processSession(ctx, event)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		case event := <-queue:
			l.processSession(ctx, event)
		}
	}
}

// processSession adopts the event's session and enriches its user. A
// missing profile is a normal case handled inside the enricher; an
// auth-classified failure means the session is stale, so the listener
// forces a sign-out instead of presenting a broken user.
func (l *AuthEventListener) processSession(ctx context.Context, event AuthEvent) {
	session := event.Session
	if err := session.ResolveExpiry(); err != nil {
		l.logger.Warn("could not resolve session expiry", "error", err)
	}

	l.state.setLoading(true)
	l.state.setSession(session.Clone())

	identity := sessionIdentity(session)
	user, err := l.enricher.EnrichUser(ctx, identity)
	if err != nil {
		l.logger.Error("enrichment rejected session, forcing sign out", "error", err, "event", string(event.Type))
		if err := l.backend.SignOut(ctx, l.cfg.GetSignOutScope()); err != nil {
			l.logger.Warn("forced sign out failed", "error", err)
		}
		l.state.clear()
		l.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventForcedSignOut,
			UserID:    session.UserID,
			Metadata:  map[string]any{"event": string(event.Type)},
		})
		return
	}

	l.state.setUser(user)
	l.state.setLoading(false)

	eventType := ActivityEventSessionRefreshed
	if event.Type == EventSignedIn {
		eventType = ActivityEventSignedIn
	}
	l.recordActivity(ctx, ActivityEvent{
		EventType: eventType,
		UserID:    session.UserID,
	})
}

func (l *AuthEventListener) context() context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.runCtx != nil {
		return l.runCtx
	}
	return context.Background()
}

func (l *AuthEventListener) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	sink := normalizeActivitySink(l.activity)
	if err := sink.Record(ctx, event); err != nil {
		l.logger.Warn("listener activity sink error", "error", err)
	}
}
