package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// CheckInHandler handles clock-in and clock-out requests
type CheckInHandler struct {
	checkInService *service.CheckInService
	logger         *zap.Logger
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkInService *service.CheckInService, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
		logger:         orNop(logger),
	}
}

// HandleCheckIns handles requests for check-ins
func (h *CheckInHandler) HandleCheckIns(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/checkins")

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.listCheckIns(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.checkIn(w, r)
	case len(parts) == 1 && parts[0] == "active" && r.Method == http.MethodGet:
		h.active(w, r)
	case len(parts) == 2 && parts[1] == "checkout" && r.Method == http.MethodPut:
		h.checkOut(w, r, parts[0])
	case len(parts) == 0, len(parts) == 1 && parts[0] == "active", len(parts) == 2 && parts[1] == "checkout":
		api.MethodNotAllowed(w)
	default:
		api.NotFound(w, "Not found")
	}
}

// listCheckIns lists check-ins filtered by ?userId=&locationId=&shiftId=&startDate=&endDate=&includeActive=
func (h *CheckInHandler) listCheckIns(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	filter := models.CheckInFilter{
		UserID:        q.String("userId"),
		LocationID:    q.String("locationId"),
		ShiftID:       q.String("shiftId"),
		StartDate:     q.Date("startDate"),
		EndDate:       q.Date("endDate"),
		IncludeActive: true,
	}
	if includeActive := q.Bool("includeActive"); includeActive != nil {
		filter.IncludeActive = *includeActive
	}
	if filter.EndDate != nil {
		// whole end day
		endOfDay := filter.EndDate.AddDate(0, 0, 1).Add(-1)
		filter.EndDate = &endOfDay
	}
	if !q.Valid(w) {
		return
	}

	checkIns, err := h.checkInService.ListCheckIns(r.Context(), actor, filter)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, checkIns, "Check-ins retrieved successfully")
}

func (h *CheckInHandler) active(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	checkIn, err := h.checkInService.ActiveCheckIn(r.Context(), actor)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, checkIn, "Active check-in retrieved successfully")
}

func (h *CheckInHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CheckInRequest
	if !api.Decode(w, r, &req) {
		return
	}

	checkIn, err := h.checkInService.CheckIn(r.Context(), actor, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, checkIn, "Check-in successful")
}

func (h *CheckInHandler) checkOut(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CheckOutRequest
	if !api.Decode(w, r, &req) {
		return
	}

	checkIn, err := h.checkInService.CheckOut(r.Context(), actor, id, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, checkIn, "Check-out successful")
}
