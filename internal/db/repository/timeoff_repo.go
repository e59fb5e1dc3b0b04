package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/timetidy/timetidy-service/internal/models"
)

const timeOffColumns = `id, user_id, shift_id, reason, status, reviewed_by, reviewed_at, review_notes,
		version, created_at, updated_at`

// TimeOffRepository handles time-off request data access
type TimeOffRepository struct {
	db *sqlx.DB
}

// NewTimeOffRepository creates a new time-off repository
func NewTimeOffRepository(db *sqlx.DB) *TimeOffRepository {
	return &TimeOffRepository{db: db}
}

// GetByID retrieves a time-off request by ID
func (r *TimeOffRepository) GetByID(ctx context.Context, id string) (*models.TimeOffRequest, error) {
	var request models.TimeOffRequest
	err := r.db.GetContext(ctx, &request, `SELECT `+timeOffColumns+` FROM time_off_requests WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get time-off request")
	}

	return &request, nil
}

// List retrieves time-off requests matching filter, newest first
func (r *TimeOffRepository) List(ctx context.Context, filter models.TimeOffFilter) ([]models.TimeOffRequest, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}

	requests := []models.TimeOffRequest{}
	query := `SELECT ` + timeOffColumns + ` FROM time_off_requests ` + w.String() + ` ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &requests, query, w.args...); err != nil {
		return nil, translate(err, "list time-off requests")
	}

	return requests, nil
}

// Create creates a new time-off request
func (r *TimeOffRepository) Create(ctx context.Context, request models.TimeOffRequest) (*models.TimeOffRequest, error) {
	query := `
		INSERT INTO time_off_requests (id, user_id, shift_id, reason, status, version, created_at, updated_at)
		VALUES (:id, :user_id, :shift_id, :reason, :status, 1, :created_at, :updated_at)
		RETURNING ` + timeOffColumns

	created, err := namedGet[models.TimeOffRequest](ctx, r.db, query, request)
	if err != nil {
		return nil, translate(err, "create time-off request")
	}

	return created, nil
}

// Update updates a time-off request if its version is unchanged
func (r *TimeOffRepository) Update(ctx context.Context, request models.TimeOffRequest) (*models.TimeOffRequest, error) {
	query := `
		UPDATE time_off_requests
		SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at,
			review_notes = :review_notes, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version
		RETURNING ` + timeOffColumns

	updated, err := namedGet[models.TimeOffRequest](ctx, r.db, query, request)
	if err != nil {
		if err = translate(err, "update time-off request"); err == ErrNotFound {
			return nil, versionMiss(ctx, r.db, "time_off_requests", request.ID)
		}
		return nil, err
	}

	return updated, nil
}
