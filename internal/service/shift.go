package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
)

const (
	defaultRecurringDays = 30
	maxRecurringDays     = 366
)

// weekdays maps 0 = Sunday .. 6 = Saturday onto rrule weekdays
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ShiftService manages the shift schedule and its status transitions
type ShiftService struct {
	Deps
}

// NewShiftService creates a new shift service
func NewShiftService(deps Deps) *ShiftService {
	return &ShiftService{Deps: deps.withDefaults()}
}

// ListShifts returns shifts matching filter with their user and location attached
func (s *ShiftService) ListShifts(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	shifts, err := s.Repos.Shift.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}

	rel := s.relations(ctx)
	for i := range shifts {
		shifts[i].User = rel.user(shifts[i].UserID)
		shifts[i].Location = rel.location(shifts[i].LocationID)
	}
	return shifts, nil
}

// GetShift retrieves a shift by ID
func (s *ShiftService) GetShift(ctx context.Context, id string) (*models.Shift, error) {
	shift, err := s.Repos.Shift.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}

	rel := s.relations(ctx)
	shift.User = rel.user(shift.UserID)
	shift.Location = rel.location(shift.LocationID)
	return shift, nil
}

// CreateShift schedules a single shift
func (s *ShiftService) CreateShift(ctx context.Context, actor *models.User, req models.ShiftRequest) (*models.Shift, error) {
	if err := authorize(actor, authz.CreateShifts); err != nil {
		return nil, err
	}
	shift, err := s.buildShift(ctx, req)
	if err != nil {
		return nil, err
	}

	created, err := s.Repos.Shift.Create(ctx, *shift)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}

	s.Metrics.Transition("shift", string(created.Status))
	s.publish(models.EventShiftCreated, created, created.UserID)
	s.Logger.Info("Shift created",
		zap.String("shift_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("date", created.Date.Format(models.DateLayout)),
	)

	return created, nil
}

// CreateRecurringShifts expands req into one shift per matching weekday
// between the start date and the end date, both inclusive. Without an end
// date the range runs 30 days. Interval skips weeks, 2 means every other week.
func (s *ShiftService) CreateRecurringShifts(ctx context.Context, actor *models.User, req models.RecurringShiftRequest) ([]models.Shift, error) {
	if err := authorize(actor, authz.CreateShifts); err != nil {
		return nil, err
	}
	template, err := s.buildShift(ctx, req.ShiftRequest)
	if err != nil {
		return nil, err
	}

	dates, err := recurringDates(template.Date, req)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, invalidField("daysOfWeek", "No dates in the range fall on the selected days")
	}

	shifts := make([]models.Shift, 0, len(dates))
	for _, date := range dates {
		shift := *template
		shift.ID = s.NewID()
		shift.Date = date
		shifts = append(shifts, shift)
	}

	created, err := s.Repos.Shift.CreateBatch(ctx, shifts)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}

	for i := range created {
		s.Metrics.Transition("shift", string(created[i].Status))
	}
	s.publish(models.EventShiftCreated, created, template.UserID)
	s.Logger.Info("Recurring shifts created",
		zap.String("user_id", template.UserID),
		zap.Int("count", len(created)),
	)

	return created, nil
}

func recurringDates(start time.Time, req models.RecurringShiftRequest) ([]time.Time, error) {
	end := start.AddDate(0, 0, defaultRecurringDays)
	if req.EndDate != "" {
		parsed, err := parseDate("recurringEndDate", req.EndDate)
		if err != nil {
			return nil, err
		}
		end = parsed
	}
	if end.Before(start) {
		return nil, invalidField("recurringEndDate", "Recurring end date must not be before the start date")
	}
	if end.Sub(start) > maxRecurringDays*24*time.Hour {
		return nil, invalidField("recurringEndDate", fmt.Sprintf("Recurring range cannot exceed %d days", maxRecurringDays))
	}

	interval := req.Interval
	if interval == 0 {
		interval = 1
	}

	byweekday := make([]rrule.Weekday, 0, len(req.DaysOfWeek))
	for _, day := range req.DaysOfWeek {
		byweekday = append(byweekday, weekdays[day])
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  interval,
		Wkst:      rrule.MO,
		Byweekday: byweekday,
		Dtstart:   start,
		Until:     end,
	})
	if err != nil {
		return nil, internal("Internal server error", fmt.Errorf("failed to build recurrence: %w", err))
	}

	return rule.All(), nil
}

// buildShift validates a request and resolves its user and location
func (s *ShiftService) buildShift(ctx context.Context, req models.ShiftRequest) (*models.Shift, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	if !models.ValidWindow(req.StartTime, req.EndTime) {
		return nil, invalidField("endTime", "End time must be after start time")
	}
	if _, err := s.lookupUser(ctx, "userId", req.UserID); err != nil {
		return nil, err
	}
	if _, err := s.lookupLocation(ctx, "locationId", req.LocationID); err != nil {
		return nil, err
	}

	now := s.Now()
	return &models.Shift{
		ID:         s.NewID(),
		UserID:     req.UserID,
		LocationID: req.LocationID,
		Date:       date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Role:       req.Role,
		Status:     models.ShiftStatusScheduled,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// UpdateShift edits a shift that has not reached a terminal status.
// A status change must follow the shift state machine.
func (s *ShiftService) UpdateShift(ctx context.Context, actor *models.User, id string, req models.ShiftUpdateRequest) (*models.Shift, error) {
	if err := authorize(actor, authz.ManageShifts); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	shift, err := s.Repos.Shift.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}
	if shift.Status.Terminal() {
		return nil, conflict(fmt.Sprintf("Shift is already %s", shift.Status))
	}

	if req.UserID != nil && *req.UserID != shift.UserID {
		if _, err := s.lookupUser(ctx, "userId", *req.UserID); err != nil {
			return nil, err
		}
		shift.UserID = *req.UserID
	}
	if req.LocationID != nil && *req.LocationID != shift.LocationID {
		if _, err := s.lookupLocation(ctx, "locationId", *req.LocationID); err != nil {
			return nil, err
		}
		shift.LocationID = *req.LocationID
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		shift.Date = date
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if !models.ValidWindow(shift.StartTime, shift.EndTime) {
		return nil, invalidField("endTime", "End time must be after start time")
	}
	if req.Role != nil {
		shift.Role = *req.Role
	}
	if req.Notes != nil {
		shift.Notes = req.Notes
	}
	if req.Status != nil && *req.Status != shift.Status {
		if !shift.Status.CanTransitionTo(*req.Status) {
			return nil, conflict(fmt.Sprintf("Cannot change shift status from %s to %s", shift.Status, *req.Status))
		}
		shift.Status = *req.Status
	}
	shift.UpdatedAt = s.Now()

	updated, err := s.Repos.Shift.Update(ctx, *shift)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}

	if req.Status != nil {
		s.Metrics.Transition("shift", string(updated.Status))
	}
	s.publish(models.EventShiftUpdated, updated, updated.UserID)
	return updated, nil
}

// CancelShift moves a scheduled or pending shift to cancelled.
// Cancelling twice is a conflict.
func (s *ShiftService) CancelShift(ctx context.Context, actor *models.User, id string) (*models.Shift, error) {
	return s.transition(ctx, actor, id, models.ShiftStatusCancelled)
}

// CompleteShift moves a scheduled shift to completed
func (s *ShiftService) CompleteShift(ctx context.Context, actor *models.User, id string) (*models.Shift, error) {
	return s.transition(ctx, actor, id, models.ShiftStatusCompleted)
}

// MarkNoShow moves a scheduled shift to no_show
func (s *ShiftService) MarkNoShow(ctx context.Context, actor *models.User, id string) (*models.Shift, error) {
	return s.transition(ctx, actor, id, models.ShiftStatusNoShow)
}

func (s *ShiftService) transition(ctx context.Context, actor *models.User, id string, next models.ShiftStatus) (*models.Shift, error) {
	if err := authorize(actor, authz.ManageShifts); err != nil {
		return nil, err
	}

	shift, err := s.Repos.Shift.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}

	return s.applyTransition(ctx, shift, next)
}

func (s *ShiftService) applyTransition(ctx context.Context, shift *models.Shift, next models.ShiftStatus) (*models.Shift, error) {
	if shift.Status == next {
		return nil, conflict(fmt.Sprintf("Shift is already %s", next))
	}
	if !shift.Status.CanTransitionTo(next) {
		return nil, conflict(fmt.Sprintf("Cannot change shift status from %s to %s", shift.Status, next))
	}

	shift.Status = next
	shift.UpdatedAt = s.Now()
	updated, err := s.Repos.Shift.Update(ctx, *shift)
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}

	s.Metrics.Transition("shift", string(next))
	s.publish(models.EventShiftUpdated, updated, updated.UserID)
	return updated, nil
}

// DeleteShift removes a shift with its swap and time-off requests
func (s *ShiftService) DeleteShift(ctx context.Context, actor *models.User, id string) error {
	if err := authorize(actor, authz.ManageShifts); err != nil {
		return err
	}

	shift, err := s.Repos.Shift.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "Shift not found")
	}
	if err := s.Repos.Shift.Delete(ctx, id); err != nil {
		return storeError(err, "Shift not found")
	}

	s.publish(models.EventShiftDeleted, shift, shift.UserID)
	s.Logger.Info("Shift deleted", zap.String("shift_id", id), zap.String("deleted_by", actor.ID))
	return nil
}

// MarkNoShows marks scheduled shifts that ended before asOf without any
// check-in as no_show. Shift times are read in the company time zone.
// Shifts changed concurrently are skipped and picked up by the next run.
func (s *ShiftService) MarkNoShows(ctx context.Context, asOf time.Time) (int, error) {
	_, loc, err := s.settingsLocation(ctx)
	if err != nil {
		return 0, err
	}

	status := models.ShiftStatusScheduled
	until := asOf
	shifts, err := s.Repos.Shift.List(ctx, models.ShiftFilter{Status: &status, EndDate: &until})
	if err != nil {
		return 0, storeError(err, "Shift not found")
	}

	marked := 0
	for i := range shifts {
		shift := shifts[i]
		if !shift.EndsAt(loc).Before(asOf) {
			continue
		}

		checkIns, err := s.Repos.CheckIn.List(ctx, models.CheckInFilter{ShiftID: shift.ID, IncludeActive: true})
		if err != nil {
			return marked, storeError(err, "Check-in not found")
		}
		if len(checkIns) > 0 {
			continue
		}

		if _, err := s.applyTransition(ctx, &shift, models.ShiftStatusNoShow); err != nil {
			if errors.Is(err, ErrStaleWrite) || KindOf(err) == KindNotFound {
				s.Logger.Debug("Skipping shift changed during sweep", zap.String("shift_id", shift.ID))
				continue
			}
			return marked, err
		}
		marked++
	}

	if marked > 0 && s.Metrics != nil {
		s.Metrics.NoShowsMarkedTotal.Add(float64(marked))
	}
	return marked, nil
}
