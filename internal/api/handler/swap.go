package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// SwapHandler handles shift swap requests
type SwapHandler struct {
	swapService *service.SwapService
	logger      *zap.Logger
}

// NewSwapHandler creates a new swap handler
func NewSwapHandler(swapService *service.SwapService, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{
		swapService: swapService,
		logger:      orNop(logger),
	}
}

// HandleSwaps handles requests for shift swaps
func (h *SwapHandler) HandleSwaps(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/swaps")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.listSwaps(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.requestSwap(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getSwap(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "approve" && r.Method == http.MethodPut:
		h.reviewSwap(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPut:
		h.cancelSwap(w, r, parts[0])
	case len(parts) <= 1, len(parts) == 2 && (parts[1] == "approve" || parts[1] == "cancel"):
		api.MethodNotAllowed(w)
	default:
		api.NotFound(w, "Not found")
	}
}

// listSwaps lists swaps filtered by ?userId=&status=
func (h *SwapHandler) listSwaps(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	filter := models.SwapFilter{UserID: q.String("userId")}
	filter.Status = requestStatus(q)
	if !q.Valid(w) {
		return
	}

	swaps, err := h.swapService.ListSwaps(r.Context(), actor, filter)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, swaps, "Shift swaps retrieved successfully")
}

func (h *SwapHandler) getSwap(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	swap, err := h.swapService.GetSwap(r.Context(), actor, id)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, swap, "Swap request retrieved successfully")
}

func (h *SwapHandler) requestSwap(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.SwapRequest
	if !api.Decode(w, r, &req) {
		return
	}

	swap, err := h.swapService.RequestSwap(r.Context(), actor, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, swap, "Swap request created successfully")
}

func (h *SwapHandler) reviewSwap(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.ReviewRequest
	if !api.Decode(w, r, &req) {
		return
	}

	swap, err := h.swapService.ReviewSwap(r.Context(), actor, id, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, swap, fmt.Sprintf("Swap request %s successfully", swap.Status))
}

func (h *SwapHandler) cancelSwap(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	swap, err := h.swapService.CancelSwap(r.Context(), actor, id)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, swap, "Swap request cancelled successfully")
}

func requestStatus(q *queryParams) *models.RequestStatus {
	raw := q.String("status")
	if raw == "" {
		return nil
	}
	status := models.RequestStatus(raw)
	switch status {
	case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected, models.RequestStatusCancelled:
	default:
		q.errors["status"] = append(q.errors["status"], "Must be one of: pending, approved, rejected, cancelled")
	}
	return &status
}
