package service

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/models"
)

// dailyOvertimeHours is the fixed threshold used at check-out. The weekly
// overtimeThreshold setting only drives payroll estimates.
const dailyOvertimeHours = 8

// CheckInService records clock-in and clock-out events
type CheckInService struct {
	Deps
}

// NewCheckInService creates a new check-in service
func NewCheckInService(deps Deps) *CheckInService {
	return &CheckInService{Deps: deps.withDefaults()}
}

// ListCheckIns returns check-ins with user and location attached.
// Callers without report access only see their own.
func (s *CheckInService) ListCheckIns(ctx context.Context, actor *models.User, filter models.CheckInFilter) ([]models.CheckIn, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !authz.Can(actor, authz.ViewAllReports) && !authz.CanViewUser(actor, filter.UserID) {
		filter.UserID = actor.ID
	}

	checkIns, err := s.Repos.CheckIn.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "Check-in not found")
	}

	rel := s.relations(ctx)
	for i := range checkIns {
		checkIns[i].User = rel.user(checkIns[i].UserID)
		checkIns[i].Location = rel.location(checkIns[i].LocationID)
	}
	return checkIns, nil
}

// ActiveCheckIn returns the actor's open check-in, or nil when checked out
func (s *CheckInService) ActiveCheckIn(ctx context.Context, actor *models.User) (*models.CheckIn, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	checkIn, err := s.Repos.CheckIn.GetOpenByUser(ctx, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "Check-in not found")
	}

	checkIn.Location = s.relations(ctx).location(checkIn.LocationID)
	return checkIn, nil
}

// CheckIn opens a check-in for actor. A user holds at most one open check-in.
// With geofencing enabled, reported coordinates must lie inside the location's radius.
func (s *CheckInService) CheckIn(ctx context.Context, actor *models.User, req models.CheckInRequest) (*models.CheckIn, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, invalid("Validation failed", map[string][]string{
			"latitude":  {"Latitude and longitude must be provided together"},
			"longitude": {"Latitude and longitude must be provided together"},
		})
	}

	location, err := s.Repos.Location.GetByID(ctx, req.LocationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &Error{Kind: KindValidation, Message: "Location not found"}
	}
	if err != nil {
		return nil, storeError(err, "Location not found")
	}
	if !location.IsActive {
		return nil, invalidField("locationId", "Location is not active")
	}

	if req.ShiftID != nil {
		if _, err := s.lookupShift(ctx, "shiftId", *req.ShiftID, "Shift not found"); err != nil {
			return nil, err
		}
	}

	if _, err := s.Repos.CheckIn.GetOpenByUser(ctx, actor.ID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err, "Check-in not found")
	}

	settings, err := s.Repos.Settings.Get(ctx)
	if err != nil {
		return nil, storeError(err, "Settings not found")
	}
	if settings.GeofencingEnabled {
		if req.Latitude == nil {
			s.Logger.Warn("Check-in without coordinates, geofence not verified",
				zap.String("user_id", actor.ID),
				zap.String("location_id", location.ID),
			)
		} else if err := checkGeofence(location, *req.Latitude, *req.Longitude, float64(settings.DefaultGeofenceRadius)); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	// the store rejects a second open check-in that raced past the lookup above
	created, err := s.Repos.CheckIn.Create(ctx, models.CheckIn{
		ID:          s.NewID(),
		UserID:      actor.ID,
		ShiftID:     req.ShiftID,
		LocationID:  location.ID,
		CheckInTime: now,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, storeError(err, "Check-in not found")
	}

	created.User = actor
	created.Location = location
	s.Metrics.Transition("checkin", "open")
	s.publish(models.EventCheckedIn, created, created.UserID)
	s.Logger.Info("User checked in",
		zap.String("check_in_id", created.ID),
		zap.String("user_id", actor.ID),
		zap.String("location_id", location.ID),
	)

	return created, nil
}

// CheckOut closes a check-in and records overtime beyond eight hours.
// Closing an already closed check-in is a conflict.
func (s *CheckInService) CheckOut(ctx context.Context, actor *models.User, id string, req models.CheckOutRequest) (*models.CheckIn, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	checkIn, err := s.Repos.CheckIn.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Check-in not found")
	}
	if !checkIn.IsOpen() {
		return nil, ErrAlreadyCheckedOut
	}

	now := s.Now()
	if now.Before(checkIn.CheckInTime) {
		now = checkIn.CheckInTime
	}
	checkIn.CheckOutTime = &now
	if req.Notes != nil {
		checkIn.Notes = req.Notes
	}
	if req.BreakDuration != nil {
		checkIn.BreakDuration = *req.BreakDuration
	}
	checkIn.OvertimeMinutes = OvertimeMinutes(checkIn.HoursWorked())
	checkIn.UpdatedAt = now

	updated, err := s.Repos.CheckIn.Update(ctx, *checkIn)
	if err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			// a concurrent checkout won
			return nil, ErrAlreadyCheckedOut
		}
		return nil, storeError(err, "Check-in not found")
	}

	rel := s.relations(ctx)
	updated.User = rel.user(updated.UserID)
	updated.Location = rel.location(updated.LocationID)
	s.Metrics.Transition("checkin", "closed")
	s.publish(models.EventCheckedOut, updated, updated.UserID)
	s.Logger.Info("User checked out",
		zap.String("check_in_id", updated.ID),
		zap.String("user_id", updated.UserID),
		zap.Int("overtime_minutes", updated.OvertimeMinutes),
	)

	return updated, nil
}

// CountOpen returns the number of open check-ins and records it on the gauge
func (s *CheckInService) CountOpen(ctx context.Context) (int, error) {
	checkIns, err := s.Repos.CheckIn.List(ctx, models.CheckInFilter{IncludeActive: true})
	if err != nil {
		return 0, storeError(err, "Check-in not found")
	}

	open := 0
	for _, checkIn := range checkIns {
		if checkIn.IsOpen() {
			open++
		}
	}
	if s.Metrics != nil {
		s.Metrics.OpenCheckIns.Set(float64(open))
	}
	return open, nil
}

// OvertimeMinutes returns the minutes worked beyond eight hours, rounded to the nearest minute
func OvertimeMinutes(hoursWorked float64) int {
	return int(math.Round(math.Max(0, hoursWorked-dailyOvertimeHours) * 60))
}
