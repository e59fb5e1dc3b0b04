package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/models"
)

const (
	tempUsernamePrefix = "guest"
	tempEmailDomain    = "temp.timetidy.com"
	tempHourlyRate     = 16.00
	tempUsernameTries  = 5
)

// UserService handles user administration
type UserService struct {
	Deps
	auth *AuthService
}

// NewUserService creates a new user service
func NewUserService(deps Deps, auth *AuthService) *UserService {
	return &UserService{
		Deps: deps.withDefaults(),
		auth: auth,
	}
}

// CreatedUser carries a new account and, when the server generated it, its initial password
type CreatedUser struct {
	User              *models.User `json:"user"`
	TemporaryPassword string       `json:"temporaryPassword,omitempty"`
}

// ListUsers lists users matching filter
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users, err := s.Repos.User.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

// CreateUser creates an account. Without a password one is generated and the
// user must reset it on first login.
func (s *UserService) CreateUser(ctx context.Context, actor *models.User, req models.UserRequest) (*CreatedUser, error) {
	if err := authorize(actor, authz.ManageUsers); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return nil, invalidField("role", "Only administrators can create administrator accounts")
	}

	password := req.Password
	generated := password == ""
	if generated {
		password = generatePassword()
	} else if problems := checkPasswordPolicy(password); len(problems) > 0 {
		return nil, invalid("Validation failed", map[string][]string{"password": problems})
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	user := models.User{
		ID:                s.NewID(),
		Username:          strings.TrimSpace(req.Username),
		Email:             strings.TrimSpace(req.Email),
		PasswordHash:      hash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Role:              req.Role,
		IsActive:          true,
		IsTemporary:       req.IsTemporary,
		MustResetPassword: req.IsTemporary || generated,
		HourlyRate:        req.HourlyRate,
		Phone:             req.Phone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.Repos.User.Create(ctx, user)
	if err != nil {
		return nil, userStoreError(err)
	}

	s.Logger.Info("User created",
		zap.String("user_id", created.ID),
		zap.String("username", created.Username),
		zap.String("created_by", actor.ID),
	)

	result := &CreatedUser{User: created}
	if generated {
		result.TemporaryPassword = password
	}
	return result, nil
}

// CreateTemporaryUser creates a guestNNNNN employee account with a generated password
func (s *UserService) CreateTemporaryUser(ctx context.Context, actor *models.User, req models.TemporaryUserRequest) (*CreatedUser, error) {
	if err := authorize(actor, authz.ManageUsers); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	firstName, lastName := "Temporary", "Employee"
	if req.FirstName != "" {
		firstName = req.FirstName
	}
	if req.LastName != "" {
		lastName = req.LastName
	}
	rate := tempHourlyRate
	if req.HourlyRate != nil {
		rate = *req.HourlyRate
	}

	for attempt := 0; attempt < tempUsernameTries; attempt++ {
		username := fmt.Sprintf("%s%05d", tempUsernamePrefix, 10000+rand.Intn(90000))
		created, err := s.CreateUser(ctx, actor, models.UserRequest{
			Username:    username,
			Email:       username + "@" + tempEmailDomain,
			FirstName:   firstName,
			LastName:    lastName,
			Role:        models.RoleEmployee,
			HourlyRate:  &rate,
			IsTemporary: true,
		})
		if KindOf(err) == KindValidation && isDuplicate(err) {
			continue
		}
		return created, err
	}

	return nil, conflict("Could not allocate a temporary username, please retry")
}

// UpdateUser applies a partial update. Only the user themselves or an admin may edit.
func (s *UserService) UpdateUser(ctx context.Context, actor *models.User, id string, req models.UserUpdateRequest) (*models.User, error) {
	if err := authorize(actor, authz.ManageUsers); err != nil {
		return nil, err
	}
	if !authz.CanEditUser(actor, id) {
		return nil, ErrInsufficientPermissions
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.Repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found")
	}

	if req.Role != nil && *req.Role != user.Role {
		if actor.ID == id {
			return nil, invalidField("role", "You cannot change your own role")
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil && !*req.IsActive && actor.ID == id {
		return nil, invalidField("isActive", "You cannot deactivate your own account")
	}

	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.HourlyRate != nil {
		user.HourlyRate = req.HourlyRate
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	user.UpdatedAt = s.Now()

	updated, err := s.Repos.User.Update(ctx, *user)
	if err != nil {
		return nil, userStoreError(err)
	}

	return updated, nil
}

// DeleteUser removes an account together with its shifts and requests
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, id string) error {
	if err := authorize(actor, authz.ManageUsers); err != nil {
		return err
	}
	if actor.ID == id {
		return conflict("You cannot delete your own account")
	}

	if err := s.Repos.User.Delete(ctx, id); err != nil {
		return storeError(err, "User not found")
	}

	s.Logger.Info("User deleted", zap.String("user_id", id), zap.String("deleted_by", actor.ID))
	return nil
}

func userStoreError(err error) error {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		switch dup.Field {
		case "username":
			return invalidField("username", "Username already exists")
		case "email":
			return invalidField("email", "Email already exists")
		}
	}
	return storeError(err, "User not found")
}

func isDuplicate(err error) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	_, username := se.Fields["username"]
	return username && se.Message == "Username already exists"
}

// generatePassword returns a random password that satisfies the password policy
func generatePassword() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "Tt" + raw[:10] + "9"
}
