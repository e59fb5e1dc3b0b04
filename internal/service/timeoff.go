package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
)

// TimeOffService manages time-off requests and availability
type TimeOffService struct {
	Deps
}

// NewTimeOffService creates a new time-off service
func NewTimeOffService(deps Deps) *TimeOffService {
	return &TimeOffService{Deps: deps.withDefaults()}
}

// ListTimeOff returns time-off requests. Callers who cannot approve requests only see their own.
func (s *TimeOffService) ListTimeOff(ctx context.Context, actor *models.User, filter models.TimeOffFilter) ([]models.TimeOffRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !authz.Can(actor, authz.ApproveRequests) {
		filter.UserID = actor.ID
	}

	requests, err := s.Repos.TimeOff.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}

	rel := s.relations(ctx)
	for i := range requests {
		attachTimeOff(rel, &requests[i])
	}
	return requests, nil
}

// GetTimeOff retrieves a time-off request visible to actor
func (s *TimeOffService) GetTimeOff(ctx context.Context, actor *models.User, id string) (*models.TimeOffRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	request, err := s.Repos.TimeOff.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}
	if request.UserID != actor.ID && !authz.Can(actor, authz.ApproveRequests) {
		return nil, notFound("Time off request not found")
	}

	attachTimeOff(s.relations(ctx), request)
	return request, nil
}

// RequestTimeOff asks for the referenced shift off
func (s *TimeOffService) RequestTimeOff(ctx context.Context, actor *models.User, input models.TimeOffInput) (*models.TimeOffRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	shift, err := s.lookupShift(ctx, "shiftId", input.ShiftID, "Shift not found")
	if err != nil {
		return nil, err
	}
	if shift.Status.Terminal() {
		return nil, invalidField("shiftId", fmt.Sprintf("Shift is already %s", shift.Status))
	}

	pending := models.RequestStatusPending
	existing, err := s.Repos.TimeOff.List(ctx, models.TimeOffFilter{UserID: actor.ID, Status: &pending})
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}
	for _, request := range existing {
		if request.ShiftID == shift.ID {
			return nil, conflict("A time off request for this shift is already pending")
		}
	}

	now := s.Now()
	created, err := s.Repos.TimeOff.Create(ctx, models.TimeOffRequest{
		ID:        s.NewID(),
		UserID:    actor.ID,
		ShiftID:   shift.ID,
		Reason:    input.Reason,
		Status:    models.RequestStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}

	attachTimeOff(s.relations(ctx), created)
	s.Metrics.Transition("timeoff", string(created.Status))
	s.publish(models.EventTimeOffRequested, created, created.UserID)
	return created, nil
}

// ReviewTimeOff approves or rejects a pending request exactly once
func (s *TimeOffService) ReviewTimeOff(ctx context.Context, reviewer *models.User, id string, req models.ReviewRequest) (*models.TimeOffRequest, error) {
	if err := authorize(reviewer, authz.ApproveRequests); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	request, err := s.Repos.TimeOff.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}
	if request.Status.Terminal() {
		return nil, ErrAlreadyReviewed
	}

	request.Status = models.RequestStatusRejected
	if req.Approved {
		request.Status = models.RequestStatusApproved
	}
	request.Review = stamp(reviewer.ID, s.Now(), request.CreatedAt, req.Notes)
	request.UpdatedAt = *request.ReviewedAt

	updated, err := s.Repos.TimeOff.Update(ctx, *request)
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}

	attachTimeOff(s.relations(ctx), updated)
	s.Metrics.Transition("timeoff", string(updated.Status))
	s.publish(models.EventTimeOffReviewed, updated, updated.UserID)
	s.Logger.Info("Time off reviewed",
		zap.String("request_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("reviewer_id", reviewer.ID),
	)

	return updated, nil
}

// IsUserAvailable reports whether userID can work on date. The most recently
// approved time-off request counts as leave through the date of its shift.
func (s *TimeOffService) IsUserAvailable(ctx context.Context, userID, date string) (*models.Availability, error) {
	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repos.User.GetByID(ctx, userID); err != nil {
		return nil, storeError(err, "User not found")
	}

	availability := &models.Availability{UserID: userID, Date: day.Format(models.DateLayout), Available: true}

	approved := models.RequestStatusApproved
	requests, err := s.Repos.TimeOff.List(ctx, models.TimeOffFilter{UserID: userID, Status: &approved})
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}

	var latest *models.TimeOffRequest
	for i := range requests {
		r := &requests[i]
		if r.ReviewedAt == nil {
			continue
		}
		if latest == nil || r.ReviewedAt.After(*latest.ReviewedAt) {
			latest = r
		}
	}
	if latest == nil {
		return availability, nil
	}

	shift, err := s.Repos.Shift.GetByID(ctx, latest.ShiftID)
	if err != nil {
		// shift gone, nothing to measure the leave against
		return availability, nil
	}

	if !day.After(shift.Date) {
		warning := fmt.Sprintf("User is on time off until %s", shift.Date.Format(models.DateLayout))
		if latest.Reason != nil && *latest.Reason != "" {
			warning += ". Reason: " + *latest.Reason
		}
		availability.Available = false
		availability.Warning = &warning
	}

	return availability, nil
}

func attachTimeOff(rel *relations, request *models.TimeOffRequest) {
	request.User = rel.user(request.UserID)
	request.Shift = rel.shift(request.ShiftID)
	request.Reviewer = rel.optionalUser(request.ReviewedBy)
}

// stamp builds a review record. The review instant never precedes the request's creation.
func stamp(reviewerID string, now, createdAt time.Time, notes *string) models.Review {
	if now.Before(createdAt) {
		now = createdAt
	}
	return models.Review{
		ReviewedBy:  &reviewerID,
		ReviewedAt:  &now,
		ReviewNotes: notes,
	}
}
