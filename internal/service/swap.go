package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
)

// SwapService manages shift swap requests
type SwapService struct {
	Deps
}

// NewSwapService creates a new swap service
func NewSwapService(deps Deps) *SwapService {
	return &SwapService{Deps: deps.withDefaults()}
}

// ListSwaps returns swaps with their parties attached. Callers who cannot
// view all shifts only see swaps they requested or were offered.
func (s *SwapService) ListSwaps(ctx context.Context, actor *models.User, filter models.SwapFilter) ([]models.ShiftSwap, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !authz.Can(actor, authz.ViewAllShifts) {
		filter.UserID = actor.ID
	}

	swaps, err := s.Repos.Swap.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}

	rel := s.relations(ctx)
	for i := range swaps {
		s.attach(rel, &swaps[i])
	}
	return swaps, nil
}

// GetSwap retrieves a swap visible to actor. Swaps the actor may not see are reported as not found.
func (s *SwapService) GetSwap(ctx context.Context, actor *models.User, id string) (*models.ShiftSwap, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	swap, err := s.Repos.Swap.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}
	if !authz.Can(actor, authz.ViewAllShifts) && !involves(swap, actor.ID) {
		return nil, notFound("Swap request not found")
	}

	s.attach(s.relations(ctx), swap)
	return swap, nil
}

// RequestSwap offers one of the requester's own shifts for a swap. Naming a
// target shift makes it a direct swap with that shift's owner.
func (s *SwapService) RequestSwap(ctx context.Context, requester *models.User, req models.SwapRequest) (*models.ShiftSwap, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	original, err := s.lookupShift(ctx, "originalShiftId", req.OriginalShiftID, "Original shift not found")
	if err != nil {
		return nil, err
	}
	if original.UserID != requester.ID {
		return nil, &Error{Kind: KindForbidden, Message: "You can only swap your own shifts"}
	}
	if original.Status.Terminal() {
		return nil, invalidField("originalShiftId", fmt.Sprintf("Shift is already %s", original.Status))
	}

	targetUserID := req.TargetUserID
	if req.TargetShiftID != nil {
		if *req.TargetShiftID == original.ID {
			return nil, invalidField("targetShiftId", "Target shift must differ from the original shift")
		}
		target, err := s.lookupShift(ctx, "targetShiftId", *req.TargetShiftID, "Target shift not found")
		if err != nil {
			return nil, err
		}
		if target.Status.Terminal() {
			return nil, invalidField("targetShiftId", fmt.Sprintf("Target shift is already %s", target.Status))
		}
		if targetUserID == nil {
			targetUserID = &target.UserID
		} else if *targetUserID != target.UserID {
			return nil, invalidField("targetUserId", "Target user does not own the target shift")
		}
	}
	if targetUserID != nil {
		if *targetUserID == requester.ID {
			return nil, invalidField("targetUserId", "You cannot swap a shift with yourself")
		}
		if _, err := s.lookupUser(ctx, "targetUserId", *targetUserID); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	if req.Deadline != nil && !req.Deadline.After(now) {
		return nil, invalidField("deadline", "Deadline must be in the future")
	}

	pending := models.RequestStatusPending
	existing, err := s.Repos.Swap.List(ctx, models.SwapFilter{UserID: requester.ID, Status: &pending})
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}
	for _, swap := range existing {
		if swap.OriginalShiftID == original.ID {
			return nil, conflict("A swap request for this shift is already pending")
		}
	}

	created, err := s.Repos.Swap.Create(ctx, models.ShiftSwap{
		ID:              s.NewID(),
		RequesterID:     requester.ID,
		OriginalShiftID: original.ID,
		TargetUserID:    targetUserID,
		TargetShiftID:   req.TargetShiftID,
		Reason:          req.Reason,
		Status:          models.RequestStatusPending,
		Deadline:        req.Deadline,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}

	s.attach(s.relations(ctx), created)
	s.Metrics.Transition("swap", string(created.Status))
	s.publish(models.EventSwapRequested, created, recipients(created)...)
	s.Logger.Info("Swap requested",
		zap.String("swap_id", created.ID),
		zap.String("requester_id", requester.ID),
		zap.Bool("open", created.IsOpen()),
	)

	return created, nil
}

// ReviewSwap approves or rejects a pending swap. A swap is reviewed once;
// later reviews fail with ErrAlreadyReviewed. Shift ownership is not changed.
func (s *SwapService) ReviewSwap(ctx context.Context, reviewer *models.User, id string, req models.ReviewRequest) (*models.ShiftSwap, error) {
	if err := authorize(reviewer, authz.ApproveRequests); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	swap, err := s.Repos.Swap.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}
	if swap.Status.Terminal() {
		return nil, ErrAlreadyReviewed
	}

	swap.Status = models.RequestStatusRejected
	if req.Approved {
		swap.Status = models.RequestStatusApproved
	}
	swap.Review = stamp(reviewer.ID, s.Now(), swap.CreatedAt, req.Notes)
	swap.UpdatedAt = *swap.ReviewedAt

	updated, err := s.Repos.Swap.Update(ctx, *swap)
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}

	s.attach(s.relations(ctx), updated)
	s.Metrics.Transition("swap", string(updated.Status))
	s.publish(models.EventSwapReviewed, updated, recipients(updated)...)
	s.Logger.Info("Swap reviewed",
		zap.String("swap_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("reviewer_id", reviewer.ID),
	)

	return updated, nil
}

// CancelSwap lets the requester withdraw a pending swap
func (s *SwapService) CancelSwap(ctx context.Context, actor *models.User, id string) (*models.ShiftSwap, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	swap, err := s.Repos.Swap.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}
	if swap.RequesterID != actor.ID {
		return nil, &Error{Kind: KindForbidden, Message: "Only the requester can cancel a swap request"}
	}
	if swap.Status.Terminal() {
		return nil, conflict(fmt.Sprintf("Swap request is already %s", swap.Status))
	}

	swap.Status = models.RequestStatusCancelled
	swap.Review = stamp(actor.ID, s.Now(), swap.CreatedAt, nil)
	swap.UpdatedAt = *swap.ReviewedAt

	updated, err := s.Repos.Swap.Update(ctx, *swap)
	if err != nil {
		return nil, storeError(err, "Swap request not found")
	}

	s.Metrics.Transition("swap", string(updated.Status))
	s.publish(models.EventSwapCancelled, updated, recipients(updated)...)
	return updated, nil
}

func (s *SwapService) attach(rel *relations, swap *models.ShiftSwap) {
	swap.Requester = rel.user(swap.RequesterID)
	swap.OriginalShift = rel.shift(swap.OriginalShiftID)
	swap.TargetUser = rel.optionalUser(swap.TargetUserID)
	swap.TargetShift = rel.optionalShift(swap.TargetShiftID)
	swap.Reviewer = rel.optionalUser(swap.ReviewedBy)
}

func involves(swap *models.ShiftSwap, userID string) bool {
	return swap.RequesterID == userID || (swap.TargetUserID != nil && *swap.TargetUserID == userID)
}

func recipients(swap *models.ShiftSwap) []string {
	ids := []string{swap.RequesterID}
	if swap.TargetUserID != nil {
		ids = append(ids, *swap.TargetUserID)
	}
	return ids
}
