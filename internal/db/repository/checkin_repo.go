package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/timetidy/timetidy-service/internal/models"
)

const checkInColumns = `id, user_id, shift_id, location_id, check_in_time, check_out_time, latitude, longitude,
		notes, break_duration, overtime_minutes, version, created_at, updated_at`

// CheckInRepository handles check-in data access. The one-open-check-in rule is
// enforced by a partial unique index on check_ins(user_id) WHERE check_out_time IS NULL.
type CheckInRepository struct {
	db *sqlx.DB
}

// NewCheckInRepository creates a new check-in repository
func NewCheckInRepository(db *sqlx.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// GetByID retrieves a check-in by ID
func (r *CheckInRepository) GetByID(ctx context.Context, id string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	err := r.db.GetContext(ctx, &checkIn, `SELECT `+checkInColumns+` FROM check_ins WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get check-in")
	}

	return &checkIn, nil
}

// GetOpenByUser retrieves the user's check-in that has no check-out yet
func (r *CheckInRepository) GetOpenByUser(ctx context.Context, userID string) (*models.CheckIn, error) {
	query := `SELECT ` + checkInColumns + ` FROM check_ins WHERE user_id = $1 AND check_out_time IS NULL`

	var checkIn models.CheckIn
	if err := r.db.GetContext(ctx, &checkIn, query, userID); err != nil {
		return nil, translate(err, "get open check-in")
	}

	return &checkIn, nil
}

// List retrieves check-ins matching filter, newest first
func (r *CheckInRepository) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckIn, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.LocationID != "" {
		w.add("location_id = ?", filter.LocationID)
	}
	if filter.ShiftID != "" {
		w.add("shift_id = ?", filter.ShiftID)
	}
	if filter.StartDate != nil {
		w.add("check_in_time >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		w.add("check_in_time <= ?", *filter.EndDate)
	}
	if !filter.IncludeActive {
		w.addRaw("check_out_time IS NOT NULL")
	}

	checkIns := []models.CheckIn{}
	query := `SELECT ` + checkInColumns + ` FROM check_ins ` + w.String() + ` ORDER BY check_in_time DESC`
	if err := r.db.SelectContext(ctx, &checkIns, query, w.args...); err != nil {
		return nil, translate(err, "list check-ins")
	}

	return checkIns, nil
}

// Create creates a new check-in
func (r *CheckInRepository) Create(ctx context.Context, checkIn models.CheckIn) (*models.CheckIn, error) {
	query := `
		INSERT INTO check_ins (id, user_id, shift_id, location_id, check_in_time, latitude, longitude,
			notes, break_duration, overtime_minutes, version, created_at, updated_at)
		VALUES (:id, :user_id, :shift_id, :location_id, :check_in_time, :latitude, :longitude,
			:notes, :break_duration, :overtime_minutes, 1, :created_at, :updated_at)
		RETURNING ` + checkInColumns

	created, err := namedGet[models.CheckIn](ctx, r.db, query, checkIn)
	if err != nil {
		return nil, translate(err, "create check-in")
	}

	return created, nil
}

// Update updates a check-in if its version is unchanged
func (r *CheckInRepository) Update(ctx context.Context, checkIn models.CheckIn) (*models.CheckIn, error) {
	query := `
		UPDATE check_ins
		SET check_out_time = :check_out_time, notes = :notes, break_duration = :break_duration,
			overtime_minutes = :overtime_minutes, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version
		RETURNING ` + checkInColumns

	updated, err := namedGet[models.CheckIn](ctx, r.db, query, checkIn)
	if err != nil {
		if err = translate(err, "update check-in"); err == ErrNotFound {
			return nil, versionMiss(ctx, r.db, "check_ins", checkIn.ID)
		}
		return nil, err
	}

	return updated, nil
}
