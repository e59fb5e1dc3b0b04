package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/timetidy/timetidy-service/internal/models"
)

const swapColumns = `id, requester_id, original_shift_id, target_user_id, target_shift_id, reason, status,
		deadline, reviewed_by, reviewed_at, review_notes, version, created_at, updated_at`

// SwapRepository handles shift swap data access
type SwapRepository struct {
	db *sqlx.DB
}

// NewSwapRepository creates a new swap repository
func NewSwapRepository(db *sqlx.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

// GetByID retrieves a swap by ID
func (r *SwapRepository) GetByID(ctx context.Context, id string) (*models.ShiftSwap, error) {
	var swap models.ShiftSwap
	err := r.db.GetContext(ctx, &swap, `SELECT `+swapColumns+` FROM shift_swaps WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get swap")
	}

	return &swap, nil
}

// List retrieves swaps where the user is requester or target, newest first
func (r *SwapRepository) List(ctx context.Context, filter models.SwapFilter) ([]models.ShiftSwap, error) {
	var w where
	if filter.UserID != "" {
		w.add("(requester_id = ? OR target_user_id = ?)", filter.UserID)
	}
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}

	swaps := []models.ShiftSwap{}
	query := `SELECT ` + swapColumns + ` FROM shift_swaps ` + w.String() + ` ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &swaps, query, w.args...); err != nil {
		return nil, translate(err, "list swaps")
	}

	return swaps, nil
}

// Create creates a new swap request
func (r *SwapRepository) Create(ctx context.Context, swap models.ShiftSwap) (*models.ShiftSwap, error) {
	query := `
		INSERT INTO shift_swaps (id, requester_id, original_shift_id, target_user_id, target_shift_id, reason,
			status, deadline, version, created_at, updated_at)
		VALUES (:id, :requester_id, :original_shift_id, :target_user_id, :target_shift_id, :reason,
			:status, :deadline, 1, :created_at, :updated_at)
		RETURNING ` + swapColumns

	created, err := namedGet[models.ShiftSwap](ctx, r.db, query, swap)
	if err != nil {
		return nil, translate(err, "create swap")
	}

	return created, nil
}

// Update updates a swap if its version is unchanged
func (r *SwapRepository) Update(ctx context.Context, swap models.ShiftSwap) (*models.ShiftSwap, error) {
	query := `
		UPDATE shift_swaps
		SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at,
			review_notes = :review_notes, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version
		RETURNING ` + swapColumns

	updated, err := namedGet[models.ShiftSwap](ctx, r.db, query, swap)
	if err != nil {
		if err = translate(err, "update swap"); err == ErrNotFound {
			return nil, versionMiss(ctx, r.db, "shift_swaps", swap.ID)
		}
		return nil, err
	}

	return updated, nil
}
