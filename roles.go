package authstate

// UserRole is the application role carried on an enriched user.
type UserRole = string

const (
	// RoleStudent is the default role for new and unresolved users.
	RoleStudent UserRole = "student"
	// RoleInstructor can author and manage course content.
	RoleInstructor UserRole = "instructor"
	// RoleAdmin has full administrative access.
	RoleAdmin UserRole = "admin"
)

// IsValidRole checks if the role is one of the predefined valid roles.
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleIsAtLeast checks if the role meets the minimum required level.
func RoleIsAtLeast(r, minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleStudent:    0,
		RoleInstructor: 1,
		RoleAdmin:      2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// AllRoles returns the predefined roles in hierarchical order.
func AllRoles() []UserRole {
	return []UserRole{
		RoleStudent,
		RoleInstructor,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole. Invalid input yields
// the student role, matching the enrichment fallback.
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	if IsValidRole(role) {
		return role, true
	}
	return RoleStudent, false
}
