package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/models"
	"github.com/timetidy/timetidy-service/internal/service"
)

// SettingsHandler serves the company settings document
type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          orNop(logger),
	}
}

// HandleSettings handles GET and PUT on /settings
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if len(segments(r.URL.Path, "/settings")) != 0 {
		api.NotFound(w, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := currentUser(w, r); !ok {
			return
		}
		settings, err := h.settingsService.GetSettings(r.Context())
		if err != nil {
			api.Error(w, h.logger, err)
			return
		}
		api.OK(w, settings, "Settings retrieved successfully")

	case http.MethodPut:
		actor, ok := requireRole(w, r, models.RoleAdmin)
		if !ok {
			return
		}
		var settings models.Settings
		if !api.Decode(w, r, &settings) {
			return
		}
		updated, err := h.settingsService.UpdateSettings(r.Context(), actor, settings)
		if err != nil {
			api.Error(w, h.logger, err)
			return
		}
		api.OK(w, updated, "Settings updated successfully")

	default:
		api.MethodNotAllowed(w)
	}
}
