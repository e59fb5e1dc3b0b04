package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// TimeOffHandler handles time-off requests
type TimeOffHandler struct {
	timeOffService *service.TimeOffService
	logger         *zap.Logger
}

// NewTimeOffHandler creates a new time-off handler
func NewTimeOffHandler(timeOffService *service.TimeOffService, logger *zap.Logger) *TimeOffHandler {
	return &TimeOffHandler{
		timeOffService: timeOffService,
		logger:         orNop(logger),
	}
}

// HandleTimeOff handles requests for time off
func (h *TimeOffHandler) HandleTimeOff(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/timeoff")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.listTimeOff(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.requestTimeOff(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getTimeOff(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "approve" && r.Method == http.MethodPut:
		h.reviewTimeOff(w, r, parts[0])
	case len(parts) <= 1, len(parts) == 2 && parts[1] == "approve":
		api.MethodNotAllowed(w)
	default:
		api.NotFound(w, "Not found")
	}
}

func (h *TimeOffHandler) listTimeOff(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	filter := models.TimeOffFilter{UserID: q.String("userId")}
	filter.Status = requestStatus(q)
	if !q.Valid(w) {
		return
	}

	requests, err := h.timeOffService.ListTimeOff(r.Context(), actor, filter)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, requests, "Time off requests retrieved successfully")
}

func (h *TimeOffHandler) getTimeOff(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	request, err := h.timeOffService.GetTimeOff(r.Context(), actor, id)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, request, "Time off request retrieved successfully")
}

func (h *TimeOffHandler) requestTimeOff(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input models.TimeOffInput
	if !api.Decode(w, r, &input) {
		return
	}

	request, err := h.timeOffService.RequestTimeOff(r.Context(), actor, input)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, request, "Time off request created successfully")
}

func (h *TimeOffHandler) reviewTimeOff(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.ReviewRequest
	if !api.Decode(w, r, &req) {
		return
	}

	request, err := h.timeOffService.ReviewTimeOff(r.Context(), actor, id, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, request, fmt.Sprintf("Time off request %s successfully", request.Status))
}
