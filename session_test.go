package authstate_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authstate "github.com/goliatone/go-authstate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	var nilSession *authstate.Session
	assert.True(t, nilSession.Expired(now))

	assert.False(t, (&authstate.Session{}).Expired(now), "unknown expiry is not expired")
	assert.True(t, (&authstate.Session{ExpiresAt: now.Add(-time.Second)}).Expired(now))
	assert.True(t, (&authstate.Session{ExpiresAt: now}).Expired(now))
	assert.False(t, (&authstate.Session{ExpiresAt: now.Add(time.Second)}).Expired(now))
}

func TestSessionExpiresWithin(t *testing.T) {
	now := time.Now()
	window := 5 * time.Minute

	var nilSession *authstate.Session
	assert.False(t, nilSession.ExpiresWithin(window, now))

	assert.False(t, (&authstate.Session{}).ExpiresWithin(window, now), "unknown expiry never matches")
	assert.True(t, (&authstate.Session{ExpiresAt: now.Add(window - time.Second)}).ExpiresWithin(window, now))
	assert.False(t, (&authstate.Session{ExpiresAt: now.Add(window)}).ExpiresWithin(window, now))
	assert.False(t, (&authstate.Session{ExpiresAt: now.Add(window + time.Second)}).ExpiresWithin(window, now))
	assert.True(t, (&authstate.Session{ExpiresAt: now.Add(-time.Hour)}).ExpiresWithin(window, now))
}

func TestResolveExpiryFromAccessToken(t *testing.T) {
	userID := uuid.New()
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	session := &authstate.Session{
		AccessToken: signedToken(t, jwt.MapClaims{
			"exp": expiry.Unix(),
			"sub": userID.String(),
		}),
	}

	require.NoError(t, session.ResolveExpiry())
	assert.True(t, session.ExpiresAt.Equal(expiry))
	assert.Equal(t, userID.String(), session.UserID)
}

func TestResolveExpiryKeepsExplicitValues(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	session := &authstate.Session{
		AccessToken: signedToken(t, jwt.MapClaims{
			"exp": time.Now().Add(time.Minute).Unix(),
			"sub": uuid.NewString(),
		}),
		ExpiresAt: expiry,
		UserID:    "explicit",
	}

	require.NoError(t, session.ResolveExpiry())
	assert.True(t, session.ExpiresAt.Equal(expiry))
	assert.Equal(t, "explicit", session.UserID)
}

func TestResolveExpiryWithoutToken(t *testing.T) {
	session := &authstate.Session{}
	require.NoError(t, session.ResolveExpiry())
	assert.True(t, session.ExpiresAt.IsZero())
}

func TestResolveExpiryRejectsMalformedToken(t *testing.T) {
	session := &authstate.Session{AccessToken: "not-a-jwt"}
	assert.Error(t, session.ResolveExpiry())
}

func TestSessionClone(t *testing.T) {
	var nilSession *authstate.Session
	assert.Nil(t, nilSession.Clone())

	session := &authstate.Session{AccessToken: "a", RefreshToken: "r", UserID: "u"}
	clone := session.Clone()

	require.NotSame(t, session, clone)
	assert.Equal(t, session, clone)

	clone.AccessToken = "changed"
	assert.Equal(t, "a", session.AccessToken)
}

func TestSessionStringRedactsTokens(t *testing.T) {
	session := authstate.Session{
		AccessToken:  "super-secret",
		RefreshToken: "even-more-secret",
		UserID:       "u1",
	}

	rendered := session.String()
	assert.NotContains(t, rendered, "super-secret")
	assert.NotContains(t, rendered, "even-more-secret")
	assert.Contains(t, rendered, "u1")
}
