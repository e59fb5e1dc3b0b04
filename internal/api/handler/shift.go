package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// ShiftHandler handles shift-related requests
type ShiftHandler struct {
	shiftService *service.ShiftService
	logger       *zap.Logger
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shiftService *service.ShiftService, logger *zap.Logger) *ShiftHandler {
	return &ShiftHandler{
		shiftService: shiftService,
		logger:       orNop(logger),
	}
}

// HandleShifts handles requests for shifts
func (h *ShiftHandler) HandleShifts(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/shifts")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.listShifts(w, r)
		case http.MethodPost:
			h.createShift(w, r)
		default:
			api.MethodNotAllowed(w)
		}

	case 1:
		if parts[0] == "recurring" {
			if r.Method != http.MethodPost {
				api.MethodNotAllowed(w)
				return
			}
			h.createRecurring(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			h.getShift(w, r, parts[0])
		case http.MethodPut:
			h.updateShift(w, r, parts[0])
		case http.MethodDelete:
			h.deleteShift(w, r, parts[0])
		default:
			api.MethodNotAllowed(w)
		}

	case 2:
		if r.Method != http.MethodPut {
			api.MethodNotAllowed(w)
			return
		}
		h.transition(w, r, parts[0], parts[1])

	default:
		api.NotFound(w, "Not found")
	}
}

// listShifts lists shifts filtered by ?userId=&locationId=&startDate=&endDate=&status=&role=
func (h *ShiftHandler) listShifts(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	q := newQueryParams(r)
	filter := models.ShiftFilter{
		UserID:     q.String("userId"),
		LocationID: q.String("locationId"),
		StartDate:  q.Date("startDate"),
		EndDate:    q.Date("endDate"),
		Role:       q.String("role"),
	}
	if status := q.String("status"); status != "" {
		shiftStatus := models.ShiftStatus(status)
		if !shiftStatus.Valid() {
			q.errors["status"] = append(q.errors["status"], "Must be one of: scheduled, pending, completed, cancelled, no_show")
		}
		filter.Status = &shiftStatus
	}
	if !q.Valid(w) {
		return
	}

	shifts, err := h.shiftService.ListShifts(r.Context(), filter)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, shifts, "Shifts retrieved successfully")
}

func (h *ShiftHandler) getShift(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	shift, err := h.shiftService.GetShift(r.Context(), id)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, shift, "Shift retrieved successfully")
}

func (h *ShiftHandler) createShift(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.ShiftRequest
	if !api.Decode(w, r, &req) {
		return
	}

	shift, err := h.shiftService.CreateShift(r.Context(), actor, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, shift, "Shift created successfully")
}

func (h *ShiftHandler) createRecurring(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.RecurringShiftRequest
	if !api.Decode(w, r, &req) {
		return
	}

	shifts, err := h.shiftService.CreateRecurringShifts(r.Context(), actor, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, shifts, "Recurring shifts created successfully")
}

func (h *ShiftHandler) updateShift(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.ShiftUpdateRequest
	if !api.Decode(w, r, &req) {
		return
	}

	shift, err := h.shiftService.UpdateShift(r.Context(), actor, id, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, shift, "Shift updated successfully")
}

func (h *ShiftHandler) deleteShift(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	if err := h.shiftService.DeleteShift(r.Context(), actor, id); err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, nil, "Shift deleted successfully")
}

// transition handles PUT /shifts/:id/{cancel,complete,no-show}
func (h *ShiftHandler) transition(w http.ResponseWriter, r *http.Request, id, action string) {
	var (
		shift   *models.Shift
		err     error
		message string
	)

	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	switch action {
	case "cancel":
		shift, err = h.shiftService.CancelShift(r.Context(), actor, id)
		message = "Shift cancelled successfully"
	case "complete":
		shift, err = h.shiftService.CompleteShift(r.Context(), actor, id)
		message = "Shift completed successfully"
	case "no-show":
		shift, err = h.shiftService.MarkNoShow(r.Context(), actor, id)
		message = "Shift marked as no-show"
	default:
		api.NotFound(w, "Not found")
		return
	}
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, shift, message)
}
