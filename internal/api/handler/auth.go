package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/middleware"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// AuthHandler handles login and session requests
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      orNop(logger),
	}
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.MethodNotAllowed(w)
		return
	}

	var req models.LoginRequest
	if !api.Decode(w, r, &req) {
		return
	}

	token, user, err := h.authService.Login(r.Context(), req)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, tokenResponse{Token: token, User: user}, "Login successful")
}

// HandleAuth handles the authenticated /auth endpoints
func (h *AuthHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/auth")
	if len(parts) != 1 {
		api.NotFound(w, "Not found")
		return
	}

	switch {
	case parts[0] == "logout" && r.Method == http.MethodPost:
		h.logout(w, r)
	case parts[0] == "me" && r.Method == http.MethodGet:
		h.me(w, r)
	case parts[0] == "refresh" && r.Method == http.MethodPost:
		h.refresh(w, r)
	case parts[0] == "password" && r.Method == http.MethodPut:
		h.changePassword(w, r)
	case parts[0] == "logout", parts[0] == "me", parts[0] == "refresh", parts[0] == "password":
		api.MethodNotAllowed(w)
	default:
		api.NotFound(w, "Not found")
	}
}

// logout is stateless, the client discards its token
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	h.logger.Info("User logged out", zap.String("user_id", user.ID))
	api.OK(w, nil, "Logout successful")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	api.OK(w, user, "User retrieved successfully")
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetToken(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "Access token required", nil)
		return
	}

	newToken, user, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, tokenResponse{Token: newToken, User: user}, "Token refreshed successfully")
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.PasswordChangeRequest
	if !api.Decode(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user, req); err != nil {
		api.Error(w, h.logger, err)
		return
	}

	api.OK(w, nil, "Password changed successfully")
}
