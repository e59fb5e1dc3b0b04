package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetidy/timetidy-service/internal/models"
)

func TestDirectSwap_Approve(t *testing.T) {
	f := newFixture(t)
	mine := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	theirs := f.shiftFor(f.other, "2024-12-24", "09:00", "17:00")

	swap, err := f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{
		OriginalShiftID: mine.ID,
		TargetShiftID:   &theirs.ID,
		Reason:          ptr("Doctor appointment"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, swap.Status)
	require.NotNil(t, swap.TargetUserID)
	assert.Equal(t, f.other.ID, *swap.TargetUserID)
	assert.False(t, swap.IsOpen())

	f.advance(2 * time.Hour)
	reviewed, err := f.svc.Swap.ReviewSwap(f.ctx, f.manager, swap.ID, models.ReviewRequest{Approved: true, Notes: ptr("Fine")})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, f.manager.ID, *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.False(t, reviewed.ReviewedAt.Before(reviewed.CreatedAt))
	require.NotNil(t, reviewed.Reviewer)
	assert.Equal(t, "jsmith", reviewed.Reviewer.Username)

	// approval records the decision only
	for id, owner := range map[string]string{mine.ID: f.employee.ID, theirs.ID: f.other.ID} {
		shift, err := f.svc.Shift.GetShift(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, owner, shift.UserID)
	}

	_, err = f.svc.Swap.ReviewSwap(f.ctx, f.admin, swap.ID, models.ReviewRequest{Approved: false})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	assert.Contains(t, f.events.types(), models.EventSwapRequested)
	assert.Contains(t, f.events.types(), models.EventSwapReviewed)
}

func TestOpenSwap_Reject(t *testing.T) {
	f := newFixture(t)
	mine := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")

	swap, err := f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: mine.ID})
	require.NoError(t, err)
	assert.True(t, swap.IsOpen())

	_, err = f.svc.Swap.ReviewSwap(f.ctx, f.other, swap.ID, models.ReviewRequest{Approved: true})
	assert.ErrorIs(t, err, ErrInsufficientPermissions)

	reviewed, err := f.svc.Swap.ReviewSwap(f.ctx, f.manager, swap.ID, models.ReviewRequest{Approved: false})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, reviewed.Status)
}

func TestRequestSwap_Rules(t *testing.T) {
	f := newFixture(t)
	mine := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	theirs := f.shiftFor(f.other, "2024-12-24", "09:00", "17:00")

	_, err := f.svc.Swap.RequestSwap(f.ctx, f.other, models.SwapRequest{OriginalShiftID: mine.ID})
	requireKind(t, err, KindForbidden)

	_, err = f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: "missing"})
	se := requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "originalShiftId")

	_, err = f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: mine.ID, TargetUserID: &f.employee.ID})
	requireKind(t, err, KindValidation)

	_, err = f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{
		OriginalShiftID: mine.ID,
		TargetShiftID:   &theirs.ID,
		TargetUserID:    &f.manager.ID,
	})
	se = requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "targetUserId")

	past := f.now.Add(-time.Hour)
	_, err = f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: mine.ID, Deadline: &past})
	se = requireKind(t, err, KindValidation)
	assert.Contains(t, se.Fields, "deadline")

	_, err = f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: mine.ID})
	require.NoError(t, err)
	_, err = f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: mine.ID})
	requireKind(t, err, KindConflict)

	cancelled := f.shiftFor(f.employee, "2024-12-25", "09:00", "17:00")
	_, err = f.svc.Shift.CancelShift(f.ctx, f.manager, cancelled.ID)
	require.NoError(t, err)
	_, err = f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: cancelled.ID})
	requireKind(t, err, KindValidation)
}

func TestCancelSwap(t *testing.T) {
	f := newFixture(t)
	mine := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	swap, err := f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: mine.ID})
	require.NoError(t, err)

	_, err = f.svc.Swap.CancelSwap(f.ctx, f.manager, swap.ID)
	requireKind(t, err, KindForbidden)

	cancelled, err := f.svc.Swap.CancelSwap(f.ctx, f.employee, swap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.ReviewedAt)

	_, err = f.svc.Swap.CancelSwap(f.ctx, f.employee, swap.ID)
	requireKind(t, err, KindConflict)

	_, err = f.svc.Swap.ReviewSwap(f.ctx, f.manager, swap.ID, models.ReviewRequest{Approved: true})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestSwapVisibility(t *testing.T) {
	f := newFixture(t)
	mine := f.shiftFor(f.employee, "2024-12-23", "09:00", "17:00")
	theirs := f.shiftFor(f.other, "2024-12-24", "09:00", "17:00")
	managers := f.shiftFor(f.manager, "2024-12-24", "09:00", "17:00")

	direct, err := f.svc.Swap.RequestSwap(f.ctx, f.employee, models.SwapRequest{OriginalShiftID: mine.ID, TargetShiftID: &theirs.ID})
	require.NoError(t, err)
	unrelated, err := f.svc.Swap.RequestSwap(f.ctx, f.manager, models.SwapRequest{OriginalShiftID: managers.ID})
	require.NoError(t, err)

	swaps, err := f.svc.Swap.ListSwaps(f.ctx, f.other, models.SwapFilter{})
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, direct.ID, swaps[0].ID)
	require.NotNil(t, swaps[0].Requester)
	require.NotNil(t, swaps[0].TargetShift)

	swaps, err = f.svc.Swap.ListSwaps(f.ctx, f.admin, models.SwapFilter{})
	require.NoError(t, err)
	assert.Len(t, swaps, 2)

	_, err = f.svc.Swap.GetSwap(f.ctx, f.other, unrelated.ID)
	requireKind(t, err, KindNotFound)

	got, err := f.svc.Swap.GetSwap(f.ctx, f.other, direct.ID)
	require.NoError(t, err)
	assert.Equal(t, direct.ID, got.ID)

	_, err = f.svc.Swap.ListSwaps(f.ctx, nil, models.SwapFilter{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
