package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// UserHandler handles user-related requests
type UserHandler struct {
	userService    *service.UserService
	timeOffService *service.TimeOffService
	logger         *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, timeOffService *service.TimeOffService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:    userService,
		timeOffService: timeOffService,
		logger:         orNop(logger),
	}
}

// HandleUsers handles requests for users
func (h *UserHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/users")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.listUsers(w, r)
		case http.MethodPost:
			h.createUser(w, r)
		default:
			api.MethodNotAllowed(w)
		}

	case 1:
		if parts[0] == "temporary" {
			if r.Method != http.MethodPost {
				api.MethodNotAllowed(w)
				return
			}
			h.createTemporaryUser(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			h.getUser(w, r, parts[0])
		case http.MethodPut:
			h.updateUser(w, r, parts[0])
		case http.MethodDelete:
			h.deleteUser(w, r, parts[0])
		default:
			api.MethodNotAllowed(w)
		}

	case 2:
		if parts[1] != "availability" {
			api.NotFound(w, "Not found")
			return
		}
		if r.Method != http.MethodGet {
			api.MethodNotAllowed(w)
			return
		}
		h.availability(w, r, parts[0])

	default:
		api.NotFound(w, "Not found")
	}
}

// listUsers lists users, filtered by ?role=&isActive=&search=
func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	q := newQueryParams(r)
	filter := models.UserFilter{
		IsActive: q.Bool("isActive"),
		Search:   q.String("search"),
	}
	if role := q.String("role"); role != "" {
		userRole := models.UserRole(role)
		if !userRole.Valid() {
			q.errors["role"] = append(q.errors["role"], "Must be one of: admin, manager, employee")
		}
		filter.Role = &userRole
	}
	if !q.Valid(w) {
		return
	}

	users, err := h.userService.ListUsers(r.Context(), filter)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, users, "Users retrieved successfully")
}

// getUser gets a user by ID
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, user, "User retrieved successfully")
}

// createUser creates a new user
func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.UserRequest
	if !api.Decode(w, r, &req) {
		return
	}

	created, err := h.userService.CreateUser(r.Context(), actor, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, created, "User created successfully")
}

// createTemporaryUser creates a guest account with a generated password
func (h *UserHandler) createTemporaryUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.TemporaryUserRequest
	if !api.Decode(w, r, &req) {
		return
	}

	created, err := h.userService.CreateTemporaryUser(r.Context(), actor, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.Created(w, created, "Temporary user created successfully")
}

// updateUser updates a user
func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	var req models.UserUpdateRequest
	if !api.Decode(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), actor, id, req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, user, "User updated successfully")
}

// deleteUser deletes a user
func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), actor, id); err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, nil, "User deleted successfully")
}

// availability answers GET /users/:id/availability?date=YYYY-MM-DD
func (h *UserHandler) availability(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		api.Fail(w, http.StatusBadRequest, "Validation failed", map[string][]string{"date": {"Date is required"}})
		return
	}

	availability, err := h.timeOffService.IsUserAvailable(r.Context(), id, date)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, availability, "Availability retrieved successfully")
}
