package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/timetidy/timetidy-service/internal/models"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, role, is_active,
		is_temporary, must_reset_password, hourly_rate, phone, last_login_at, version, created_at, updated_at`

// UserRepository handles user data access
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err, "get user")
	}

	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, translate(err, "get user by username")
	}

	return &user, nil
}

// List retrieves users matching filter
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var w where
	if filter.Role != nil {
		w.add("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		w.add("(first_name ILIKE ? OR last_name ILIKE ? OR username ILIKE ? OR email ILIKE ?)", "%"+filter.Search+"%")
	}

	query := `SELECT ` + userColumns + ` FROM users ` + w.String() + ` ORDER BY username ASC`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, w.args...); err != nil {
		return nil, translate(err, "list users")
	}

	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, is_active,
			is_temporary, must_reset_password, hourly_rate, phone, version, created_at, updated_at)
		VALUES (:id, :username, :email, :password_hash, :first_name, :last_name, :role, :is_active,
			:is_temporary, :must_reset_password, :hourly_rate, :phone, 1, :created_at, :updated_at)
		RETURNING ` + userColumns

	created, err := namedGet[models.User](ctx, r.db, query, user)
	if err != nil {
		return nil, translate(err, "create user")
	}

	return created, nil
}

// Update updates a user if its version is unchanged
func (r *UserRepository) Update(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET email = :email, password_hash = :password_hash, first_name = :first_name, last_name = :last_name,
			role = :role, is_active = :is_active, is_temporary = :is_temporary,
			must_reset_password = :must_reset_password, hourly_rate = :hourly_rate, phone = :phone,
			last_login_at = :last_login_at, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version
		RETURNING ` + userColumns

	updated, err := namedGet[models.User](ctx, r.db, query, user)
	if err != nil {
		if err = translate(err, "update user"); err == ErrNotFound {
			return nil, versionMiss(ctx, r.db, "users", user.ID)
		}
		return nil, err
	}

	return updated, nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
