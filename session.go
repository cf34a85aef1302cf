package authstate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the access/refresh token pair and expiry representing an
// authenticated connection to the backend. Sessions are replaced wholesale
// on refresh and cleared on sign-out; the tokens are opaque to this
// package except for expiry extraction.
type Session struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	// User is the minimal identity the backend attaches to the session.
	User *Identity `json:"user,omitempty"`
}

// sessionIdentity resolves the identity for a session, synthesizing one
// from the user id when the backend did not attach a record.
func sessionIdentity(s *Session) *Identity {
	if s == nil {
		return nil
	}
	if s.User != nil {
		return s.User
	}
	if s.UserID == "" {
		return nil
	}
	id, err := uuid.Parse(s.UserID)
	if err != nil {
		return nil
	}
	return &Identity{ID: id}
}

// Expired reports whether the session expiry is in the past.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// ExpiresWithin reports whether the session expires inside the given
// window from now. A session with no known expiry never matches; the
// backend remains the authority on its validity.
func (s *Session) ExpiresWithin(window time.Duration, now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.Before(now.Add(window))
}

// ResolveExpiry fills ExpiresAt from the access token's exp claim when the
// backend did not supply one. The token is parsed without verification;
// signature checks belong to the backend that issued it.
func (s *Session) ResolveExpiry() error {
	if s == nil || !s.ExpiresAt.IsZero() {
		return nil
	}

	if s.AccessToken == "" {
		return nil
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(s.AccessToken, claims); err != nil {
		return err
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil {
		return err
	}

	if expiry != nil {
		s.ExpiresAt = expiry.Time
	}

	if s.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			s.UserID = sub
		}
	}

	return nil
}

// Clone returns a copy so callers cannot mutate manager-owned state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (s Session) String() string {
	expiresAt := "<nil>"
	if !s.ExpiresAt.IsZero() {
		expiresAt = s.ExpiresAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("user=%s exp=%s refresh=%t", s.UserID, expiresAt, s.RefreshToken != "")
}
