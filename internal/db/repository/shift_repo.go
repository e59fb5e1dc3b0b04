package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/timetidy/timetidy-service/internal/models"
)

const shiftColumns = `id, user_id, location_id, date, start_time, end_time, role, status, notes,
		version, created_at, updated_at`

const insertShift = `
	INSERT INTO shifts (id, user_id, location_id, date, start_time, end_time, role, status, notes,
		version, created_at, updated_at)
	VALUES (:id, :user_id, :location_id, :date, :start_time, :end_time, :role, :status, :notes,
		1, :created_at, :updated_at)
	RETURNING ` + shiftColumns

// ShiftRepository handles shift data access
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// GetByID retrieves a shift by ID
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.GetContext(ctx, &shift, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get shift")
	}

	return &shift, nil
}

// List retrieves shifts matching filter, ordered by date and start time
func (r *ShiftRepository) List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.LocationID != "" {
		w.add("location_id = ?", filter.LocationID)
	}
	if filter.StartDate != nil {
		w.add("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		w.add("date <= ?", *filter.EndDate)
	}
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}

	shifts := []models.Shift{}
	query := `SELECT ` + shiftColumns + ` FROM shifts ` + w.String() + ` ORDER BY date ASC, start_time ASC`
	if err := r.db.SelectContext(ctx, &shifts, query, w.args...); err != nil {
		return nil, translate(err, "list shifts")
	}

	return shifts, nil
}

// Create creates a new shift
func (r *ShiftRepository) Create(ctx context.Context, shift models.Shift) (*models.Shift, error) {
	created, err := namedGet[models.Shift](ctx, r.db, insertShift, shift)
	if err != nil {
		return nil, translate(err, "create shift")
	}

	return created, nil
}

// CreateBatch creates all shifts in one transaction
func (r *ShiftRepository) CreateBatch(ctx context.Context, shifts []models.Shift) ([]models.Shift, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, insertShift)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare shift insert: %w", err)
	}
	defer stmt.Close()

	created := make([]models.Shift, 0, len(shifts))
	for _, shift := range shifts {
		var row models.Shift
		if err = stmt.GetContext(ctx, &row, shift); err != nil {
			return nil, translate(err, "create shift batch")
		}
		created = append(created, row)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// Update updates a shift if its version is unchanged
func (r *ShiftRepository) Update(ctx context.Context, shift models.Shift) (*models.Shift, error) {
	query := `
		UPDATE shifts
		SET user_id = :user_id, location_id = :location_id, date = :date, start_time = :start_time,
			end_time = :end_time, role = :role, status = :status, notes = :notes,
			version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version
		RETURNING ` + shiftColumns

	updated, err := namedGet[models.Shift](ctx, r.db, query, shift)
	if err != nil {
		if err = translate(err, "update shift"); err == ErrNotFound {
			return nil, versionMiss(ctx, r.db, "shifts", shift.ID)
		}
		return nil, err
	}

	return updated, nil
}

// Delete deletes a shift
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
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
