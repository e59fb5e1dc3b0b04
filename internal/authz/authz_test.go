package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetidy/timetidy-service/internal/models"
)

func user(id string, role models.UserRole) *models.User {
	return &models.User{ID: id, Role: role}
}

func TestRequireRole(t *testing.T) {
	allRoles := []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleEmployee}
	sets := [][]models.UserRole{
		{},
		{models.RoleAdmin},
		{models.RoleManager},
		{models.RoleAdmin, models.RoleManager},
		allRoles,
	}

	for _, set := range sets {
		assert.ErrorIs(t, RequireRole(nil, set...), ErrUnauthenticated)

		for _, role := range allRoles {
			err := RequireRole(user("u1", role), set...)
			member := false
			for _, r := range set {
				if r == role {
					member = true
				}
			}
			if member {
				assert.NoError(t, err, "role %s in %v", role, set)
			} else {
				assert.ErrorIs(t, err, ErrInsufficientPermissions, "role %s not in %v", role, set)
			}
		}
	}
}

func TestCanTable(t *testing.T) {
	admin := user("a", models.RoleAdmin)
	manager := user("m", models.RoleManager)
	employee := user("e", models.RoleEmployee)

	for _, action := range []Action{ManageUsers, CreateShifts, ManageShifts, ApproveRequests, ViewAllShifts, ViewAllReports} {
		assert.True(t, Can(admin, action), action)
		assert.True(t, Can(manager, action), action)
		assert.False(t, Can(employee, action), action)
	}

	for _, action := range []Action{ManageLocations, ManagePayroll, AccessAdminPanel} {
		assert.True(t, Can(admin, action), action)
		assert.False(t, Can(manager, action), action)
		assert.False(t, Can(employee, action), action)
	}

	assert.False(t, Can(nil, CreateShifts))
	assert.False(t, Can(admin, Action("launch_rockets")))
}

func TestRolesReturnsCopy(t *testing.T) {
	roles := Roles(ManageLocations)
	require.Len(t, roles, 1)
	roles[0] = models.RoleEmployee

	assert.Equal(t, []models.UserRole{models.RoleAdmin}, Roles(ManageLocations))
}

func TestCanEditUser(t *testing.T) {
	assert.True(t, CanEditUser(user("e1", models.RoleEmployee), "e1"))
	assert.False(t, CanEditUser(user("e1", models.RoleEmployee), "e2"))
	assert.True(t, CanEditUser(user("a1", models.RoleAdmin), "e2"))
	// managers only edit themselves
	assert.False(t, CanEditUser(user("m1", models.RoleManager), "e2"))
	assert.True(t, CanEditUser(user("m1", models.RoleManager), "m1"))
	assert.False(t, CanEditUser(nil, "e1"))
}

func TestCanViewUser(t *testing.T) {
	assert.True(t, CanViewUser(user("e1", models.RoleEmployee), "e1"))
	assert.False(t, CanViewUser(user("e1", models.RoleEmployee), "e2"))
	assert.True(t, CanViewUser(user("m1", models.RoleManager), "e2"))
	assert.True(t, CanViewUser(user("a1", models.RoleAdmin), "e2"))
	assert.False(t, CanViewUser(nil, "e1"))
}
