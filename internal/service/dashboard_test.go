package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetidy/timetidy-service/internal/models"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)

	// Monday, and an open check-in an hour before "now" on Friday
	f.worked(f.employee, time.Date(2024, 12, 16, 8, 0, 0, 0, time.UTC), 8*time.Hour, 0)
	_, err := f.repos.CheckIn.Create(f.ctx, models.CheckIn{
		ID:          "ci-open",
		UserID:      f.employee.ID,
		LocationID:  f.downtown.ID,
		CheckInTime: f.now.Add(-time.Hour),
	})
	require.NoError(t, err)

	done := f.shiftFor(f.employee, "2024-12-18", "09:00", "17:00")
	_, err = f.svc.Shift.CompleteShift(f.ctx, f.manager, done.ID)
	require.NoError(t, err)
	f.shiftFor(f.employee, "2024-12-20", "09:00", "17:00")
	upcoming := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	f.shiftFor(f.other, "2024-12-23", "09:00", "17:00")

	_, err = f.svc.TimeOff.RequestTimeOff(f.ctx, f.employee, models.TimeOffInput{ShiftID: upcoming.ID})
	require.NoError(t, err)

	stats, err := f.svc.Dashboard.Stats(f.ctx, f.employee)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.HoursToday)
	assert.Equal(t, 9.0, stats.HoursThisWeek)
	assert.Equal(t, 1, stats.TeamOnline)
	assert.Equal(t, 1, stats.TasksCompleted)
	assert.Equal(t, 2, stats.UpcomingShifts)
	assert.Equal(t, 1, stats.PendingApprovals)

	team, err := f.svc.Dashboard.Stats(f.ctx, f.manager)
	require.NoError(t, err)
	assert.Zero(t, team.HoursThisWeek)
	assert.Equal(t, 3, team.UpcomingShifts)
	assert.Equal(t, 1, team.PendingApprovals)

	_, err = f.svc.Dashboard.Stats(f.ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPendingApprovals(t *testing.T) {
	f := newFixture(t)
	first := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	second := f.shiftFor(f.employee, "2024-12-24", "09:00", "17:00")

	_, err := f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: first.ID})
	require.NoError(t, err)
	request, err := f.svc.TimeOff.RequestTimeOff(f.ctx, f.employee, models.TimeOffInput{ShiftID: second.ID})
	require.NoError(t, err)
	reviewed, err := f.svc.TimeOff.RequestTimeOff(f.ctx, f.employee, models.TimeOffInput{ShiftID: first.ID})
	require.NoError(t, err)
	_, err = f.svc.TimeOff.ReviewTimeOff(f.ctx, f.manager, reviewed.ID, models.ReviewRequest{Approved: true})
	require.NoError(t, err)

	pending, err := f.svc.Dashboard.PendingApprovals(f.ctx, f.manager)
	require.NoError(t, err)
	assert.Equal(t, 2, pending.Total)
	require.Len(t, pending.TimeOffRequests, 1)
	assert.Equal(t, request.ID, pending.TimeOffRequests[0].ID)
	require.Len(t, pending.ShiftSwaps, 1)
	require.NotNil(t, pending.ShiftSwaps[0].Requester)

	_, err = f.svc.Dashboard.PendingApprovals(f.ctx, f.employee)
	assert.ErrorIs(t, err, ErrInsufficientPermissions)
}
