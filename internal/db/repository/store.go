package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timetidy/timetidy-service/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the requested id or key
	ErrNotFound = errors.New("record not found")
	// ErrStaleWrite is returned when an update's version no longer matches the stored row
	ErrStaleWrite = errors.New("stale write: version mismatch")
	// ErrOpenCheckIn is returned when a user already has a check-in without a check-out
	ErrOpenCheckIn = errors.New("user already has an open check-in")
	// ErrValueTooLong is returned when a value exceeds its column size
	ErrValueTooLong = errors.New("value too long for column")
)

// DuplicateError reports a unique constraint violation on Field
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// Updates take the caller's copy of the entity and apply it only when
// entity.Version still matches the stored version. On success the stored
// version is incremented and the new row is returned.

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Create(ctx context.Context, user models.User) (*models.User, error)
	Update(ctx context.Context, user models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type LocationStore interface {
	GetByID(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context, activeOnly bool) ([]models.Location, error)
	Create(ctx context.Context, location models.Location) (*models.Location, error)
	Update(ctx context.Context, location models.Location) (*models.Location, error)
}

type ShiftStore interface {
	GetByID(ctx context.Context, id string) (*models.Shift, error)
	List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error)
	Create(ctx context.Context, shift models.Shift) (*models.Shift, error)
	// CreateBatch stores all shifts or none
	CreateBatch(ctx context.Context, shifts []models.Shift) ([]models.Shift, error)
	Update(ctx context.Context, shift models.Shift) (*models.Shift, error)
	Delete(ctx context.Context, id string) error
}

type CheckInStore interface {
	GetByID(ctx context.Context, id string) (*models.CheckIn, error)
	// GetOpenByUser returns ErrNotFound when the user is not checked in
	GetOpenByUser(ctx context.Context, userID string) (*models.CheckIn, error)
	List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckIn, error)
	// Create fails with ErrOpenCheckIn when the user already has an open check-in
	Create(ctx context.Context, checkIn models.CheckIn) (*models.CheckIn, error)
	Update(ctx context.Context, checkIn models.CheckIn) (*models.CheckIn, error)
}

type SwapStore interface {
	GetByID(ctx context.Context, id string) (*models.ShiftSwap, error)
	List(ctx context.Context, filter models.SwapFilter) ([]models.ShiftSwap, error)
	Create(ctx context.Context, swap models.ShiftSwap) (*models.ShiftSwap, error)
	Update(ctx context.Context, swap models.ShiftSwap) (*models.ShiftSwap, error)
}

type TimeOffStore interface {
	GetByID(ctx context.Context, id string) (*models.TimeOffRequest, error)
	List(ctx context.Context, filter models.TimeOffFilter) ([]models.TimeOffRequest, error)
	Create(ctx context.Context, request models.TimeOffRequest) (*models.TimeOffRequest, error)
	Update(ctx context.Context, request models.TimeOffRequest) (*models.TimeOffRequest, error)
}

type SettingsStore interface {
	// Get returns the stored settings, or the defaults at version 0 when none were saved
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, settings models.Settings) (*models.Settings, error)
}
