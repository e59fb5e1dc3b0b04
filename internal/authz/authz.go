// Package authz decides what a resolved user may do. Every role check in the
// service goes through this package so the role sets live in one table.
package authz

import (
	"errors"

	"github.com/timetidy/timetidy-service/internal/models"
)

// Action is a capability gated by role membership
type Action string

const (
	ManageUsers      Action = "manage_users"
	CreateShifts     Action = "create_shifts"
	ManageShifts     Action = "manage_shifts"
	ApproveRequests  Action = "approve_requests"
	ViewAllShifts    Action = "view_all_shifts"
	ViewAllReports   Action = "view_all_reports"
	ManageLocations  Action = "manage_locations"
	ManagePayroll    Action = "manage_payroll"
	AccessAdminPanel Action = "access_admin_panel"
)

var (
	ErrUnauthenticated         = errors.New("authentication required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

var (
	staff     = []models.UserRole{models.RoleAdmin, models.RoleManager}
	adminOnly = []models.UserRole{models.RoleAdmin}
)

var table = map[Action][]models.UserRole{
	ManageUsers:      staff,
	CreateShifts:     staff,
	ManageShifts:     staff,
	ApproveRequests:  staff,
	ViewAllShifts:    staff,
	ViewAllReports:   staff,
	ManageLocations:  adminOnly,
	ManagePayroll:    adminOnly,
	AccessAdminPanel: adminOnly,
}

// Roles returns the roles allowed to perform action. Unknown actions allow nobody.
func Roles(action Action) []models.UserRole {
	return append([]models.UserRole(nil), table[action]...)
}

// RequireRole returns nil when user holds one of roles.
func RequireRole(user *models.User, roles ...models.UserRole) error {
	if user == nil {
		return ErrUnauthenticated
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return ErrInsufficientPermissions
}

// Authorize is RequireRole against the role set of action
func Authorize(user *models.User, action Action) error {
	return RequireRole(user, table[action]...)
}

// Can reports whether user may perform action
func Can(user *models.User, action Action) bool {
	return Authorize(user, action) == nil
}

// CanEditUser allows a user to edit themselves and admins to edit anyone.
// Managers are deliberately not included.
func CanEditUser(actor *models.User, targetID string) bool {
	if actor == nil {
		return false
	}
	return actor.ID == targetID || actor.Role == models.RoleAdmin
}

// CanViewUser allows self-view and staff view of anyone
func CanViewUser(actor *models.User, targetID string) bool {
	if actor == nil {
		return false
	}
	return actor.ID == targetID || Can(actor, ManageUsers)
}
