package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetidy/timetidy-service/internal/models"
)

func dates(shifts []models.Shift) []string {
	out := make([]string, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, s.Date.Format(models.DateLayout))
	}
	return out
}

func recurringRequest(f *fixture, days []int) models.RecurringShiftRequest {
	return models.RecurringShiftRequest{
		ShiftRequest: models.ShiftRequest{
			UserID:     f.employee.ID,
			LocationID: f.downtown.ID,
			Date:       "2024-12-23",
			StartTime:  "09:00",
			EndTime:    "17:00",
			Role:       "Cashier",
		},
		DaysOfWeek: days,
	}
}

func TestCreateShift(t *testing.T) {
	f := newFixture(t)

	shift := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	assert.Equal(t, models.ShiftStatusScheduled, shift.Status)
	assert.Equal(t, time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), shift.Date)
	assert.Equal(t, 1, shift.Version)
	assert.Contains(t, f.events.types(), models.EventShiftCreated)
}

func TestCreateShift_Validation(t *testing.T) {
	f := newFixture(t)

	base := models.ShiftRequest{
		UserID:     f.employee.ID,
		LocationID: f.downtown.ID,
		Date:       "2024-12-23",
		StartTime:  "09:00",
		EndTime:    "17:00",
		Role:       "Cashier",
	}

	tests := []struct {
		name   string
		mutate func(*models.ShiftRequest)
		field  string
	}{
		{"bad date", func(r *models.ShiftRequest) { r.Date = "23/12/2024" }, "date"},
		{"bad time", func(r *models.ShiftRequest) { r.StartTime = "9am" }, "startTime"},
		{"end before start", func(r *models.ShiftRequest) { r.EndTime = "08:00" }, "endTime"},
		{"end equals start", func(r *models.ShiftRequest) { r.EndTime = "09:00" }, "endTime"},
		{"unpadded start", func(r *models.ShiftRequest) { r.StartTime = "9:00" }, "startTime"},
		{"unpadded end before start", func(r *models.ShiftRequest) { r.StartTime, r.EndTime = "10:00", "9:30" }, "endTime"},
		{"hour out of range", func(r *models.ShiftRequest) { r.EndTime = "24:00" }, "endTime"},
		{"unknown user", func(r *models.ShiftRequest) { r.UserID = "missing" }, "userId"},
		{"unknown location", func(r *models.ShiftRequest) { r.LocationID = "missing" }, "locationId"},
		{"missing role", func(r *models.ShiftRequest) { r.Role = "" }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.svc.Shift.CreateShift(f.ctx, f.manager, req)
			se := requireKind(t, err, KindValidation)
			assert.Contains(t, se.Fields, tt.field)
		})
	}

	_, err := f.svc.Shift.CreateShift(f.ctx, f.employee, base)
	assert.ErrorIs(t, err, ErrInsufficientPermissions)
}

func TestCreateRecurringShifts_DefaultRange(t *testing.T) {
	f := newFixture(t)

	shifts, err := f.svc.Shift.CreateRecurringShifts(f.ctx, f.manager, recurringRequest(f, []int{1, 3}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-12-23", "2024-12-25",
		"2024-12-30", "2025-01-01",
		"2025-01-06", "2025-01-08",
		"2025-01-13", "2025-01-15",
		"2025-01-20", "2025-01-22",
	}, dates(shifts))

	ids := make(map[string]bool)
	for _, s := range shifts {
		assert.Equal(t, models.ShiftStatusScheduled, s.Status)
		assert.Equal(t, f.employee.ID, s.UserID)
		ids[s.ID] = true
	}
	assert.Len(t, ids, len(shifts))
}

func TestCreateRecurringShifts_IntervalAndEndDate(t *testing.T) {
	f := newFixture(t)

	req := recurringRequest(f, []int{1, 3})
	req.Interval = 2
	shifts, err := f.svc.Shift.CreateRecurringShifts(f.ctx, f.manager, req)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2024-12-23", "2024-12-25",
		"2025-01-06", "2025-01-08",
		"2025-01-20", "2025-01-22",
	}, dates(shifts))

	req = recurringRequest(f, []int{5})
	req.EndDate = "2025-01-03"
	shifts, err = f.svc.Shift.CreateRecurringShifts(f.ctx, f.manager, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-27", "2025-01-03"}, dates(shifts))
}

func TestCreateRecurringShifts_Invalid(t *testing.T) {
	f := newFixture(t)

	req := recurringRequest(f, []int{1})
	req.EndDate = "2024-12-01"
	_, err := f.svc.Shift.CreateRecurringShifts(f.ctx, f.manager, req)
	se := requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "recurringEndDate")

	req = recurringRequest(f, []int{1})
	req.EndDate = "2026-12-23"
	_, err = f.svc.Shift.CreateRecurringShifts(f.ctx, f.manager, req)
	requireKind(t, err, KindValidation)

	req = recurringRequest(f, []int{7})
	_, err = f.svc.Shift.CreateRecurringShifts(f.ctx, f.manager, req)
	requireKind(t, err, KindValidation)

	// a Sunday-only rule over two days never matches
	req = recurringRequest(f, []int{0})
	req.EndDate = "2024-12-24"
	_, err = f.svc.Shift.CreateRecurringShifts(f.ctx, f.manager, req)
	se = requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "daysOfWeek")

	all, err := f.svc.Shift.ListShifts(f.ctx, models.ShiftFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCancelShift_Twice(t *testing.T) {
	f := newFixture(t)
	shift := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")

	cancelled, err := f.svc.Shift.CancelShift(f.ctx, f.manager, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusCancelled, cancelled.Status)

	_, err = f.svc.Shift.CancelShift(f.ctx, f.manager, shift.ID)
	se := requireKind(t, err, KindConflict)
	assert.Equal(t, "Shift is already cancelled", se.Message)

	stored, err := f.svc.Shift.GetShift(f.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusCancelled, stored.Status)
}

func TestShiftTransitions(t *testing.T) {
	f := newFixture(t)

	completed := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	_, err := f.svc.Shift.CompleteShift(f.ctx, f.manager, completed.ID)
	require.NoError(t, err)

	_, err = f.svc.Shift.CancelShift(f.ctx, f.manager, completed.ID)
	se := requireKind(t, err, KindConflict)
	assert.Equal(t, "Cannot change shift status from completed to cancelled", se.Message)

	_, err = f.svc.Shift.MarkNoShow(f.ctx, f.manager, completed.ID)
	requireKind(t, err, KindConflict)

	_, err = f.svc.Shift.UpdateShift(f.ctx, f.manager, completed.ID, models.ShiftUpdateRequest{Role: ptr("Manager")})
	requireKind(t, err, KindConflict)

	noShow := f.shiftFor(f.employee, "2024-12-24", "09:00", "17:00")
	updated, err := f.svc.Shift.MarkNoShow(f.ctx, f.manager, noShow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusNoShow, updated.Status)

	_, err = f.svc.Shift.CancelShift(f.ctx, f.employee, noShow.ID)
	assert.ErrorIs(t, err, ErrInsufficientPermissions)

	_, err = f.svc.Shift.CancelShift(f.ctx, f.manager, "missing")
	requireKind(t, err, KindNotFound)
}

func TestUpdateShift(t *testing.T) {
	f := newFixture(t)
	shift := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")

	updated, err := f.svc.Shift.UpdateShift(f.ctx, f.manager, shift.ID, models.ShiftUpdateRequest{
		UserID:    ptr(f.other.ID),
		StartTime: ptr("10:00"),
		Notes:     ptr("Moved"),
	})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, updated.UserID)
	assert.Equal(t, "10:00", updated.StartTime)
	assert.Equal(t, 2, updated.Version)

	_, err = f.svc.Shift.UpdateShift(f.ctx, f.manager, shift.ID, models.ShiftUpdateRequest{EndTime: ptr("09:30")})
	requireKind(t, err, KindValidation)

	_, err = f.svc.Shift.UpdateShift(f.ctx, f.manager, shift.ID, models.ShiftUpdateRequest{Status: ptr(models.ShiftStatusPending)})
	requireKind(t, err, KindConflict)

	updated, err = f.svc.Shift.UpdateShift(f.ctx, f.manager, shift.ID, models.ShiftUpdateRequest{Status: ptr(models.ShiftStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusCompleted, updated.Status)
}

func TestCreateShift_WindowComparesClockTime(t *testing.T) {
	f := newFixture(t)

	shift := f.shiftFor(f.employee, "2024-12-23", "09:30", "17:00")
	assert.Equal(t, "09:30", shift.StartTime)

	_, err := f.svc.Shift.CreateShift(f.ctx, f.manager, models.ShiftRequest{
		UserID:     f.employee.ID,
		LocationID: f.downtown.ID,
		Date:       "2024-12-24",
		StartTime:  "10:00",
		EndTime:    "9:30",
		Role:       "Cashier",
	})
	se := requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "endTime")

	_, err = f.svc.Shift.UpdateShift(f.ctx, f.manager, shift.ID, models.ShiftUpdateRequest{StartTime: ptr("9:00")})
	se = requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "startTime")
}

func TestMinuteOfDay(t *testing.T) {
	tests := []struct {
		value string
		want  int
		ok    bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"17:00", 1020, true},
		{"23:59", 1439, true},
		{"9:00", 0, false},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12:3", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := models.MinuteOfDay(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, models.ValidWindow("09:00", "17:00"))
	assert.False(t, models.ValidWindow("9:00", "17:00"))
	assert.False(t, models.ValidWindow("10:00", "9:30"))
}

func TestUpdateShift_StaleWrite(t *testing.T) {
	f := newFixture(t)
	shift := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")

	// another writer bumps the version between our read and our write
	stale := *shift
	_, err := f.repos.Shift.Update(f.ctx, *shift)
	require.NoError(t, err)

	_, err = f.svc.Shift.applyTransition(f.ctx, &stale, models.ShiftStatusCompleted)
	assert.ErrorIs(t, err, ErrStaleWrite)
}

func TestDeleteShift(t *testing.T) {
	f := newFixture(t)
	shift := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")

	require.NoError(t, f.svc.Shift.DeleteShift(f.ctx, f.manager, shift.ID))
	_, err := f.svc.Shift.GetShift(f.ctx, shift.ID)
	requireKind(t, err, KindNotFound)
	assert.Contains(t, f.events.types(), models.EventShiftDeleted)
}

func TestListShifts_AttachesRelations(t *testing.T) {
	f := newFixture(t)
	f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	f.shiftFor(f.other, "2024-12-24", "09:00", "17:00")

	shifts, err := f.svc.Shift.ListShifts(f.ctx, models.ShiftFilter{UserID: f.employee.ID})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	require.NotNil(t, shifts[0].User)
	require.NotNil(t, shifts[0].Location)
	assert.Equal(t, "jdoe", shifts[0].User.Username)
	assert.Equal(t, f.downtown.Name, shifts[0].Location.Name)
}

func TestMarkNoShows(t *testing.T) {
	f := newFixture(t)
	f.settings(func(s *models.Settings) { s.TimeZone = "UTC" })

	missed := f.shiftFor(f.employee, "2024-12-19", "09:00", "17:00")
	attended := f.shiftFor(f.other, "2024-12-19", "09:00", "17:00")
	running := f.shiftFor(f.employee, "2024-12-20", "08:00", "17:00")
	cancelled := f.shiftFor(f.other, "2024-12-18", "09:00", "17:00")
	_, err := f.svc.Shift.CancelShift(f.ctx, f.manager, cancelled.ID)
	require.NoError(t, err)

	_, err = f.repos.CheckIn.Create(f.ctx, models.CheckIn{
		ID:          "ci-attended",
		UserID:      f.other.ID,
		ShiftID:     &attended.ID,
		LocationID:  f.downtown.ID,
		CheckInTime: time.Date(2024, 12, 19, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	marked, err := f.svc.Shift.MarkNoShows(f.ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	statuses := map[string]models.ShiftStatus{}
	for _, id := range []string{missed.ID, attended.ID, running.ID, cancelled.ID} {
		s, err := f.svc.Shift.GetShift(f.ctx, id)
		require.NoError(t, err)
		statuses[id] = s.Status
	}
	assert.Equal(t, models.ShiftStatusNoShow, statuses[missed.ID])
	assert.Equal(t, models.ShiftStatusScheduled, statuses[attended.ID])
	assert.Equal(t, models.ShiftStatusScheduled, statuses[running.ID])
	assert.Equal(t, models.ShiftStatusCancelled, statuses[cancelled.ID])

	marked, err = f.svc.Shift.MarkNoShows(f.ctx, f.now)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestShiftEndsAt(t *testing.T) {
	copenhagen, err := time.LoadLocation("Europe/Copenhagen")
	require.NoError(t, err)

	shift := models.Shift{Date: time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), EndTime: "17:00"}
	assert.Equal(t, time.Date(2024, 12, 23, 16, 0, 0, 0, time.UTC), shift.EndsAt(copenhagen).UTC())
}
