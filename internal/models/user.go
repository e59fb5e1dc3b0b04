package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID                string     `db:"id" json:"id"`
	Username          string     `db:"username" json:"username"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"` // Never expose in JSON
	FirstName         string     `db:"first_name" json:"firstName"`
	LastName          string     `db:"last_name" json:"lastName"`
	Role              UserRole   `db:"role" json:"role"`
	IsActive          bool       `db:"is_active" json:"isActive"`
	IsTemporary       bool       `db:"is_temporary" json:"isTemporary"`
	MustResetPassword bool       `db:"must_reset_password" json:"mustResetPassword"`
	HourlyRate        *float64   `db:"hourly_rate" json:"hourlyRate,omitempty"`
	Phone             *string    `db:"phone" json:"phone,omitempty"`
	LastLoginAt       *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	Version           int        `db:"version" json:"version"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserRequest is used for user creation requests
type UserRequest struct {
	Username    string   `json:"username" validate:"required,min=3,max=50"`
	Email       string   `json:"email" validate:"required,email,max=255"`
	FirstName   string   `json:"firstName" validate:"required,max=100"`
	LastName    string   `json:"lastName" validate:"required,max=100"`
	Role        UserRole `json:"role" validate:"required,oneof=admin manager employee"`
	HourlyRate  *float64 `json:"hourlyRate" validate:"omitempty,gte=0,lte=1000"`
	Phone       *string  `json:"phone" validate:"omitempty,max=32"`
	IsTemporary bool     `json:"isTemporary"`
	Password    string   `json:"password" validate:"omitempty,max=72"`
}

// UserUpdateRequest is used for updating user information. Nil fields are left untouched.
type UserUpdateRequest struct {
	Email      *string   `json:"email" validate:"omitempty,email,max=255"`
	FirstName  *string   `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName   *string   `json:"lastName" validate:"omitempty,min=1,max=100"`
	Role       *UserRole `json:"role" validate:"omitempty,oneof=admin manager employee"`
	IsActive   *bool     `json:"isActive"`
	HourlyRate *float64  `json:"hourlyRate" validate:"omitempty,gte=0,lte=1000"`
	Phone      *string   `json:"phone" validate:"omitempty,max=32"`
}

// TemporaryUserRequest overrides the defaults of a generated temporary account
type TemporaryUserRequest struct {
	FirstName  string   `json:"firstName" validate:"omitempty,max=100"`
	LastName   string   `json:"lastName" validate:"omitempty,max=100"`
	HourlyRate *float64 `json:"hourlyRate" validate:"omitempty,gte=0,lte=1000"`
}

// LoginRequest carries credentials for POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PasswordChangeRequest is used when a user changes their own password
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// UserFilter narrows user listings
type UserFilter struct {
	Role     *UserRole
	IsActive *bool
	Search   string
}
