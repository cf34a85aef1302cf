package authstate_test

import (
	"testing"

	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	assert.True(t, authstate.IsValidRole(authstate.RoleStudent))
	assert.True(t, authstate.IsValidRole(authstate.RoleInstructor))
	assert.True(t, authstate.IsValidRole(authstate.RoleAdmin))
	assert.False(t, authstate.IsValidRole("superuser"))
	assert.False(t, authstate.IsValidRole(""))
}

func TestRoleIsAtLeast(t *testing.T) {
	assert.True(t, authstate.RoleIsAtLeast(authstate.RoleAdmin, authstate.RoleStudent))
	assert.True(t, authstate.RoleIsAtLeast(authstate.RoleInstructor, authstate.RoleInstructor))
	assert.False(t, authstate.RoleIsAtLeast(authstate.RoleStudent, authstate.RoleInstructor))
	assert.False(t, authstate.RoleIsAtLeast("superuser", authstate.RoleStudent))
	assert.False(t, authstate.RoleIsAtLeast(authstate.RoleAdmin, "superuser"))
}

func TestParseRole(t *testing.T) {
	role, ok := authstate.ParseRole("instructor")
	assert.True(t, ok)
	assert.Equal(t, authstate.RoleInstructor, role)

	role, ok = authstate.ParseRole("superuser")
	assert.False(t, ok)
	assert.Equal(t, authstate.RoleStudent, role, "invalid roles fall back to student")
}

func TestAllRoles(t *testing.T) {
	roles := authstate.AllRoles()
	assert.Equal(t, []authstate.UserRole{
		authstate.RoleStudent,
		authstate.RoleInstructor,
		authstate.RoleAdmin,
	}, roles)
}
