package service

import (
	"context"
	"time"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
)

// DashboardService computes the figures shown on the landing page
type DashboardService struct {
	Deps
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(deps Deps) *DashboardService {
	return &DashboardService{Deps: deps.withDefaults()}
}

// PendingApprovals lists every swap and time-off request awaiting review
func (s *DashboardService) PendingApprovals(ctx context.Context, actor *models.User) (*models.PendingApprovals, error) {
	if err := authorize(actor, authz.ApproveRequests); err != nil {
		return nil, err
	}

	pending := models.RequestStatusPending
	swaps, err := s.Repos.Swap.List(ctx, models.SwapFilter{Status: &pending})
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}
	requests, err := s.Repos.TimeOff.List(ctx, models.TimeOffFilter{Status: &pending})
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}

	rel := s.relations(ctx)
	for i := range swaps {
		swaps[i].Requester = rel.user(swaps[i].RequesterID)
		swaps[i].OriginalShift = rel.shift(swaps[i].OriginalShiftID)
		swaps[i].TargetUser = rel.optionalUser(swaps[i].TargetUserID)
		swaps[i].TargetShift = rel.optionalShift(swaps[i].TargetShiftID)
	}
	for i := range requests {
		attachTimeOff(rel, &requests[i])
	}

	return &models.PendingApprovals{
		ShiftSwaps:      swaps,
		TimeOffRequests: requests,
		Total:           len(swaps) + len(requests),
	}, nil
}

// Stats summarises the actor's hours and the schedule. Shift and approval
// counts cover the whole team for managers and admins, the actor otherwise.
func (s *DashboardService) Stats(ctx context.Context, actor *models.User) (*models.DashboardStats, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	_, loc, err := s.settingsLocation(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))

	stats := &models.DashboardStats{}

	own, err := s.Repos.CheckIn.List(ctx, models.CheckInFilter{UserID: actor.ID, StartDate: &weekStart, IncludeActive: true})
	if err != nil {
		return nil, storeError(err, "Check-in not found")
	}
	for _, checkIn := range own {
		end := now
		if checkIn.CheckOutTime != nil {
			end = *checkIn.CheckOutTime
		}
		hours := end.Sub(checkIn.CheckInTime).Hours()
		stats.HoursThisWeek += hours
		if !checkIn.CheckInTime.Before(today) {
			stats.HoursToday += hours
		}
	}
	stats.HoursToday = roundTo(stats.HoursToday, 2)
	stats.HoursThisWeek = roundTo(stats.HoursThisWeek, 2)

	all, err := s.Repos.CheckIn.List(ctx, models.CheckInFilter{IncludeActive: true})
	if err != nil {
		return nil, storeError(err, "Check-in not found")
	}
	online := make(map[string]struct{})
	for _, checkIn := range all {
		if checkIn.IsOpen() {
			online[checkIn.UserID] = struct{}{}
		}
	}
	stats.TeamOnline = len(online)

	team := authz.Can(actor, authz.ViewAllReports)
	scope := ""
	if !team {
		scope = actor.ID
	}

	completed := models.ShiftStatusCompleted
	// shift dates are calendar dates stored at UTC midnight
	firstDay := calendarDate(weekStart)
	lastDay := firstDay.AddDate(0, 0, 6)
	done, err := s.Repos.Shift.List(ctx, models.ShiftFilter{UserID: scope, Status: &completed, StartDate: &firstDay, EndDate: &lastDay})
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}
	stats.TasksCompleted = len(done)

	scheduled := models.ShiftStatusScheduled
	todayDate := calendarDate(today)
	upcoming, err := s.Repos.Shift.List(ctx, models.ShiftFilter{UserID: scope, Status: &scheduled, StartDate: &todayDate})
	if err != nil {
		return nil, storeError(err, "Shift not found")
	}
	stats.UpcomingShifts = len(upcoming)

	pending := models.RequestStatusPending
	swaps, err := s.Repos.Swap.List(ctx, models.SwapFilter{UserID: scope, Status: &pending})
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}
	requests, err := s.Repos.TimeOff.List(ctx, models.TimeOffFilter{UserID: scope, Status: &pending})
	if err != nil {
		return nil, storeError(err, "Time off request not found")
	}
	stats.PendingApprovals = len(swaps) + len(requests)

	return stats, nil
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// timeIn reads a calendar date as midnight in loc
func timeIn(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}
