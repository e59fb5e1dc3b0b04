package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/models"
)

func aliceRequest() models.UserRequest {
	return models.UserRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Jensen",
		Role:      models.RoleEmployee,
		Password:  "Password1",
	}
}

func TestCreateUser_UniqueUsernameAndEmail(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.User.CreateUser(f.ctx, f.manager, aliceRequest())
	require.NoError(t, err)
	assert.True(t, created.User.IsActive)
	assert.False(t, created.User.MustResetPassword)
	assert.Empty(t, created.TemporaryPassword)

	sameUsername := aliceRequest()
	sameUsername.Email = "alice2@example.com"
	_, err = f.svc.User.CreateUser(f.ctx, f.manager, sameUsername)
	se := requireKind(t, err, KindValidation)
	assert.Equal(t, "Username already exists", se.Message)

	sameEmail := aliceRequest()
	sameEmail.Username = "alice2"
	_, err = f.svc.User.CreateUser(f.ctx, f.manager, sameEmail)
	se = requireKind(t, err, KindValidation)
	assert.Equal(t, "Email already exists", se.Message)

	otherCase := aliceRequest()
	otherCase.Username = "ALICE"
	otherCase.Email = "Alice2@Example.com"
	_, err = f.svc.User.CreateUser(f.ctx, f.manager, otherCase)
	se = requireKind(t, err, KindValidation)
	assert.Equal(t, "Username already exists", se.Message)
}

func TestCreateUser_PasswordPolicy(t *testing.T) {
	f := newFixture(t)

	for _, password := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		t.Run(password, func(t *testing.T) {
			req := aliceRequest()
			req.Password = password
			_, err := f.svc.User.CreateUser(f.ctx, f.admin, req)
			se := requireKind(t, err, KindValidation)
			assert.NotEmpty(t, se.Fields["password"])
		})
	}

	created, err := f.svc.User.CreateUser(f.ctx, f.admin, aliceRequest())
	require.NoError(t, err)
	assert.Equal(t, "alice", created.User.Username)
}

func TestStoreError_ValueTooLong(t *testing.T) {
	err := storeError(fmt.Errorf("failed to create user: %w", repository.ErrValueTooLong), "User not found")
	se := requireKind(t, err, KindValidation)
	assert.Equal(t, "A value is longer than allowed", se.Message)
}

func TestCreateUser_GeneratedPassword(t *testing.T) {
	f := newFixture(t)

	req := aliceRequest()
	req.Password = ""
	created, err := f.svc.User.CreateUser(f.ctx, f.admin, req)
	require.NoError(t, err)
	assert.True(t, created.User.MustResetPassword)
	require.NotEmpty(t, created.TemporaryPassword)

	_, _, err = f.svc.Auth.Login(f.ctx, models.LoginRequest{Username: "alice", Password: created.TemporaryPassword})
	require.NoError(t, err)
}

func TestCreateUser_Permissions(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.User.CreateUser(f.ctx, f.employee, aliceRequest())
	assert.ErrorIs(t, err, ErrInsufficientPermissions)

	_, err = f.svc.User.CreateUser(f.ctx, nil, aliceRequest())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	req := aliceRequest()
	req.Role = models.RoleAdmin
	_, err = f.svc.User.CreateUser(f.ctx, f.manager, req)
	requireKind(t, err, KindValidation)

	_, err = f.svc.User.CreateUser(f.ctx, f.admin, req)
	require.NoError(t, err)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	f := newFixture(t)

	req := aliceRequest()
	req.Role = "owner"
	_, err := f.svc.User.CreateUser(f.ctx, f.admin, req)
	se := requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "role")
}

func TestCreateTemporaryUser(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.User.CreateTemporaryUser(f.ctx, f.manager, models.TemporaryUserRequest{})
	require.NoError(t, err)

	user := created.User
	assert.True(t, strings.HasPrefix(user.Username, "guest"))
	assert.Len(t, user.Username, len("guest")+5)
	assert.Equal(t, user.Username+"@temp.timetidy.com", user.Email)
	assert.Equal(t, "Temporary", user.FirstName)
	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.True(t, user.IsTemporary)
	assert.True(t, user.MustResetPassword)
	require.NotNil(t, user.HourlyRate)
	assert.Equal(t, 16.0, *user.HourlyRate)
	assert.NotEmpty(t, created.TemporaryPassword)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)

	updated, err := f.svc.User.UpdateUser(f.ctx, f.admin, f.employee.ID, models.UserUpdateRequest{
		FirstName:  ptr("Johnny"),
		Role:       ptr(models.RoleManager),
		HourlyRate: ptr(25.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", updated.FirstName)
	assert.Equal(t, models.RoleManager, updated.Role)
	assert.Equal(t, 2, updated.Version)

	// managers may not edit other people
	_, err = f.svc.User.UpdateUser(f.ctx, f.manager, f.other.ID, models.UserUpdateRequest{FirstName: ptr("X")})
	assert.ErrorIs(t, err, ErrInsufficientPermissions)

	_, err = f.svc.User.UpdateUser(f.ctx, f.admin, f.admin.ID, models.UserUpdateRequest{Role: ptr(models.RoleEmployee)})
	se := requireKind(t, err, KindValidation)
	assert.Equal(t, "You cannot change your own role", se.Message)

	_, err = f.svc.User.UpdateUser(f.ctx, f.admin, f.admin.ID, models.UserUpdateRequest{IsActive: ptr(false)})
	requireKind(t, err, KindValidation)

	_, err = f.svc.User.UpdateUser(f.ctx, f.admin, f.other.ID, models.UserUpdateRequest{Email: ptr("jsmith@example.com")})
	se = requireKind(t, err, KindValidation)
	assert.Equal(t, "Email already exists", se.Message)

	_, err = f.svc.User.UpdateUser(f.ctx, f.admin, "missing", models.UserUpdateRequest{FirstName: ptr("X")})
	requireKind(t, err, KindNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.User.DeleteUser(f.ctx, f.admin, f.admin.ID)
	requireKind(t, err, KindConflict)

	require.NoError(t, f.svc.User.DeleteUser(f.ctx, f.manager, f.other.ID))
	_, err = f.svc.User.GetUser(f.ctx, f.other.ID)
	requireKind(t, err, KindNotFound)

	err = f.svc.User.DeleteUser(f.ctx, f.manager, f.other.ID)
	requireKind(t, err, KindNotFound)
}

func TestListUsers_Filters(t *testing.T) {
	f := newFixture(t)

	employees, err := f.svc.User.ListUsers(f.ctx, models.UserFilter{Role: ptr(models.RoleEmployee)})
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	found, err := f.svc.User.ListUsers(f.ctx, models.UserFilter{Search: "JDO"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.employee.ID, found[0].ID)
}
