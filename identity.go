package authstate

import (
	"strings"

	"github.com/google/uuid"
)

// Identity is the minimal user record emitted by the backend's auth
// events, independent of application profile data. It is immutable from
// this package's perspective.
type Identity struct {
	ID       uuid.UUID      `json:"id,omitempty"`
	Email    string         `json:"email,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MetadataRole returns the role carried on the identity metadata, falling
// back to the student role when absent or invalid.
func (i *Identity) MetadataRole() UserRole {
	if i == nil || i.Metadata == nil {
		return RoleStudent
	}

	if raw, exists := i.Metadata["role"]; exists {
		if roleStr, ok := raw.(string); ok {
			if role, valid := ParseRole(roleStr); valid {
				return role
			}
		}
	}

	return RoleStudent
}

// EnrichedUser is an Identity merged with profile display fields for
// consumption by the application. It is recreated on every auth event and
// lives only in memory.
type EnrichedUser struct {
	ID        uuid.UUID      `json:"id,omitempty"`
	Email     string         `json:"email,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Name      string         `json:"name,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Role      UserRole       `json:"role,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Bio       string         `json:"bio,omitempty"`
}

// mergeProfile builds the enriched user from an identity and its profile
// row. Display name prefers the profile names and falls back to the email
// local part.
func mergeProfile(identity *Identity, profile *Profile) *EnrichedUser {
	user := fallbackUser(identity)
	if profile == nil {
		return user
	}

	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.AvatarURL = profile.AvatarURL
	user.Phone = profile.Phone
	user.Bio = profile.Bio

	if profile.Role != "" {
		user.Role = profile.Role
	}

	if name := strings.TrimSpace(profile.FirstName + " " + profile.LastName); name != "" {
		user.Name = name
	}

	return user
}

// fallbackUser builds the minimal enriched user used when no profile row
// is available: role from identity metadata, name derived from the email.
func fallbackUser(identity *Identity) *EnrichedUser {
	if identity == nil {
		return nil
	}

	return &EnrichedUser{
		ID:       identity.ID,
		Email:    identity.Email,
		Metadata: identity.Metadata,
		Name:     nameFromEmail(identity.Email),
		Role:     identity.MetadataRole(),
	}
}

func nameFromEmail(email string) string {
	if email == "" {
		return ""
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
