package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// LocationHandler handles work location requests
type LocationHandler struct {
	locationService *service.LocationService
	logger          *zap.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationService *service.LocationService, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		logger:          orNop(logger),
	}
}

// HandleLocations handles requests for locations
func (h *LocationHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/locations")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.listLocations(w, r)
		case http.MethodPost:
			h.createLocation(w, r)
		default:
			api.MethodNotAllowed(w)
		}
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.getLocation(w, r, parts[0])
		case http.MethodPut:
			h.updateLocation(w, r, parts[0])
		default:
			api.MethodNotAllowed(w)
		}
	default:
		api.NotFound(w, "Not found")
	}
}

// listLocations lists locations; ?all=true includes inactive ones
func (h *LocationHandler) listLocations(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	q := newQueryParams(r)
	all := q.Bool("all")
	if !q.Valid(w) {
		return
	}

	locations, err := h.locationService.ListLocations(r.Context(), all == nil || !*all)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, locations, "Locations retrieved successfully")
}

func (h *LocationHandler) getLocation(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	location, err := h.locationService.GetLocation(r.Context(), id)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, location, "Location retrieved successfully")
}

func (h *LocationHandler) createLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	var req models.LocationRequest
	if !api.Decode(w, r, &req) {
		return
	}

	location, err := h.locationService.CreateLocation(r.Context(), actor, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, location, "Location created successfully")
}

func (h *LocationHandler) updateLocation(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	var req models.LocationRequest
	if !api.Decode(w, r, &req) {
		return
	}

	location, err := h.locationService.UpdateLocation(r.Context(), actor, id, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, location, "Location updated successfully")
}
