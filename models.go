package authstate

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is the application profile row merged onto identities during
// enrichment.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	Role          UserRole   `bun:"role,notnull" json:"role,omitempty"`
	AvatarURL     string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Phone         string     `bun:"phone" json:"phone,omitempty"`
	Bio           string     `bun:"bio" json:"bio,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureRole normalizes a missing role to the student default.
func (p *Profile) EnsureRole() *Profile {
	if p.Role == "" {
		p.Role = RoleStudent
	}
	return p
}

// Clone returns a copy so cached rows stay isolated from callers.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// ProfileUpdate is a partial field set applied to a profile row. Nil
// fields are left untouched.
type ProfileUpdate struct {
	// Name is a combined display name; it is split into first/last on the
	// first space before persisting.
	Name      *string `json:"name,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	// Avatar is mapped to the stored avatar_url column.
	Avatar *string `json:"avatar,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Bio    *string `json:"bio,omitempty"`
}

// Normalize resolves the combined display name and avatar aliases into
// their stored columns, returning the effective update.
func (u ProfileUpdate) Normalize() ProfileUpdate {
	if u.Name != nil {
		first, last := SplitDisplayName(*u.Name)
		if u.FirstName == nil {
			u.FirstName = &first
		}
		if u.LastName == nil {
			u.LastName = &last
		}
		u.Name = nil
	}

	return u
}

// IsEmpty reports whether the update carries no changes.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.FirstName == nil && u.LastName == nil &&
		u.Role == nil && u.Avatar == nil && u.Phone == nil && u.Bio == nil
}

// Apply writes the normalized update onto a profile row.
func (u ProfileUpdate) Apply(profile *Profile) *Profile {
	if profile == nil {
		return nil
	}

	update := u.Normalize()

	if update.FirstName != nil {
		profile.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		profile.LastName = *update.LastName
	}
	if update.Role != nil {
		profile.Role = *update.Role
	}
	if update.Avatar != nil {
		profile.AvatarURL = *update.Avatar
	}
	if update.Phone != nil {
		profile.Phone = *update.Phone
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}

	return profile
}

// SplitDisplayName splits a combined display name into first and last
// name on the first space. A single token becomes the first name.
func SplitDisplayName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	if idx := strings.Index(name, " "); idx > 0 {
		return name[:idx], strings.TrimSpace(name[idx+1:])
	}

	return name, ""
}
