package authstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// HTTPBackend implements Backend against a REST auth service exposing the
// refresh-token grant and a logout endpoint. It holds the current session
// for the process and pushes refresh/sign-out events to subscribers.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
	apiKey  string
	logger  Logger

	mu       sync.RWMutex
	session  *Session
	handlers map[int]EventHandler
	nextID   int
}

var _ Backend = (*HTTPBackend)(nil)

// HTTPBackendOption customizes the HTTP backend.
type HTTPBackendOption func(*HTTPBackend)

// WithHTTPClient overrides the default client (10s timeout).
func WithHTTPClient(client *http.Client) HTTPBackendOption {
	return func(b *HTTPBackend) {
		if client != nil {
			b.client = client
		}
	}
}

// WithHTTPTimeout overrides the default client timeout.
func WithHTTPTimeout(timeout time.Duration) HTTPBackendOption {
	return func(b *HTTPBackend) {
		if timeout > 0 {
			b.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithAPIKey sends the given key as the apikey header on every request.
func WithAPIKey(key string) HTTPBackendOption {
	return func(b *HTTPBackend) {
		b.apiKey = key
	}
}

// WithHTTPLogger sets the backend logger.
func WithHTTPLogger(logger Logger) HTTPBackendOption {
	return func(b *HTTPBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewHTTPBackend creates a backend client for the given base URL.
func NewHTTPBackend(baseURL string, opts ...HTTPBackendOption) *HTTPBackend {
	backend := &HTTPBackend{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   defaultLogger(),
		handlers: make(map[int]EventHandler),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(backend)
		}
	}

	return backend
}

// SetSession adopts a session obtained out of band (login flows are owned
// by the application) and notifies subscribers of the sign-in.
func (b *HTTPBackend) SetSession(session *Session) {
	if session != nil {
		if err := session.ResolveExpiry(); err != nil {
			b.logger.Warn("could not resolve adopted session expiry", "error", err)
		}
	}

	b.mu.Lock()
	b.session = session.Clone()
	b.mu.Unlock()

	if session != nil {
		b.emit(AuthEvent{Type: EventSignedIn, Session: session.Clone()})
	} else {
		b.emit(AuthEvent{Type: EventSignedOut})
	}
}

// Session returns the currently held session, nil when signed out.
func (b *HTTPBackend) Session(ctx context.Context) (*Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session.Clone(), nil
}

// sessionPayload is the token endpoint response shape.
type sessionPayload struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *Identity `json:"user"`
}

// Refresh exchanges the refresh token for a new session via the
// refresh-token grant, stores it, and notifies subscribers.
func (b *HTTPBackend) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrRefreshFailed
	}

	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode refresh request")
	}

	url := b.baseURL + "/token?grant_type=refresh_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")
	b.decorate(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "refresh request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, goerrors.New(
			fmt.Sprintf("refresh token rejected with status %d", resp.StatusCode),
			goerrors.CategoryAuth,
		).WithTextCode(textCodeRefreshFailed).WithCode(goerrors.CodeUnauthorized)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, goerrors.New(
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
			goerrors.CategoryOperation,
		).WithTextCode(textCodeBackendUnavailable)
	}

	payload := sessionPayload{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode token response")
	}

	session := payload.toSession(time.Now())

	b.mu.Lock()
	b.session = session.Clone()
	b.mu.Unlock()

	b.emit(AuthEvent{Type: EventTokenRefreshed, Session: session.Clone()})

	return session, nil
}

func (p sessionPayload) toSession(now time.Time) *Session {
	session := &Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		User:         p.User,
	}

	switch {
	case p.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(p.ExpiresAt, 0)
	case p.ExpiresIn > 0:
		session.ExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second)
	}

	if p.User != nil {
		session.UserID = p.User.ID.String()
	}

	if session.ExpiresAt.IsZero() || session.UserID == "" {
		// Best effort; a zero expiry leaves the backend as the authority.
		_ = session.ResolveExpiry()
	}

	return session
}

// SignOut terminates the session. The local session is always discarded;
// for non-local scopes the revocation request error is propagated.
func (b *HTTPBackend) SignOut(ctx context.Context, scope SignOutScope) error {
	b.mu.Lock()
	session := b.session
	b.session = nil
	b.mu.Unlock()

	defer b.emit(AuthEvent{Type: EventSignedOut})

	if session == nil {
		return nil
	}

	url := b.baseURL + "/logout?scope=" + string(scope)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build logout request")
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	b.decorate(req)

	resp, err := b.client.Do(req)
	if err != nil {
		if scope == ScopeLocal {
			b.logger.Warn("logout request failed, local session discarded", "error", err)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "logout request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && scope != ScopeLocal {
		return goerrors.New(
			fmt.Sprintf("logout returned status %d", resp.StatusCode),
			goerrors.CategoryOperation,
		).WithTextCode(textCodeBackendUnavailable)
	}

	return nil
}

// Subscribe registers an event handler; the returned function removes it.
func (b *HTTPBackend) Subscribe(handler EventHandler) (func(), error) {
	if handler == nil {
		return nil, goerrors.New("event handler is nil", goerrors.CategoryBadInput)
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}

func (b *HTTPBackend) decorate(req *http.Request) {
	if b.apiKey != "" {
		req.Header.Set("apikey", b.apiKey)
	}
}

func (b *HTTPBackend) emit(event AuthEvent) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.handlers))
	for _, handler := range b.handlers {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
