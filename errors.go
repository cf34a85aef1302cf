package authstate

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeSessionNotFound    = "SESSION_NOT_FOUND"
	textCodeSessionExpired     = "SESSION_EXPIRED"
	textCodeRefreshFailed      = "SESSION_REFRESH_FAILED"
	textCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	textCodeListenerStarted    = "LISTENER_ALREADY_STARTED"
	textCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
)

// ErrSessionNotFound is returned when the backend reports no session.
var ErrSessionNotFound = goerrors.New("no session available", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired marks a session past its expiry with no usable refresh.
var ErrSessionExpired = goerrors.New("session is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshFailed is returned when the refresh token was rejected. This is
// fatal for the session; the caller must re-authenticate.
var ErrRefreshFailed = goerrors.New("session refresh failed", goerrors.CategoryAuth).
	WithTextCode(textCodeRefreshFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrProfileNotFound is returned by profile stores when no row exists for
// the user. Enrichment treats it as a normal case, not a failure.
var ErrProfileNotFound = goerrors.New("profile not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeProfileNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrListenerStarted is returned by Start when the listener subscription
// was already installed. The backend would otherwise accumulate duplicate
// subscriptions.
var ErrListenerStarted = goerrors.New("auth event listener already started", goerrors.CategoryConflict).
	WithTextCode(textCodeListenerStarted).
	WithCode(goerrors.CodeConflict)

// ErrBackendUnavailable wraps transport-level failures reaching the
// backend. Validate treats it as transient and keeps the prior validity.
var ErrBackendUnavailable = goerrors.New("auth backend unavailable", goerrors.CategoryOperation).
	WithTextCode(textCodeBackendUnavailable).
	WithCode(goerrors.CodeInternal)

// authErrorMarkers are the fallback substrings used to classify flat
// errors from backends that do not return structured categories.
var authErrorMarkers = []string{"jwt", "auth", "token is expired"}

// IsAuthClassified reports whether an error indicates the session itself
// is invalid, as opposed to an incidental failure. Structured information
// is authoritative: a go-errors auth category or an unauthorized code
// classifies the error, any other category rules it out. Only flat errors
// fall back to message markers.
func IsAuthClassified(err error) bool {
	if err == nil {
		return false
	}

	if matched, structured := structuredAuthClassification(err); structured {
		return matched
	}

	message := strings.ToLower(err.Error())
	for _, marker := range authErrorMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}

	return false
}

// isStructuredAuthError classifies from structured information only. The
// session-fetch path uses it: a flat transport error whose text happens
// to mention "auth" (an auth host in a *url.Error, say) must stay
// transient there, so the message markers never apply.
func isStructuredAuthError(err error) bool {
	matched, structured := structuredAuthClassification(err)
	return structured && matched
}

// structuredAuthClassification returns the auth verdict carried by the
// error's structured information, and whether any was present.
func structuredAuthClassification(err error) (matched, structured bool) {
	if err == nil {
		return false, false
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return true, true
	}

	var rich *goerrors.Error
	if errors.As(err, &rich) && rich != nil {
		switch rich.Category {
		case goerrors.CategoryAuth, goerrors.CategoryAuthz:
			return true, true
		}
		return rich.Code == goerrors.CodeUnauthorized, true
	}

	return false, false
}

// IsTransient reports whether an error is a transport-level failure that
// should not invalidate an otherwise good session.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if IsAuthClassified(err) {
		return false
	}

	var rich *goerrors.Error
	if errors.As(err, &rich) && rich != nil {
		return rich.Category == goerrors.CategoryOperation
	}

	return false
}

// IsProfileNotFound reports whether an error means the profile row simply
// does not exist yet.
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.IsNotFound(err) {
		return true
	}
	return errors.Is(err, ErrProfileNotFound)
}
