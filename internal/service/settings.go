package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
)

// SettingsService reads and writes the company policy document
type SettingsService struct {
	Deps
}

// NewSettingsService creates a new settings service
func NewSettingsService(deps Deps) *SettingsService {
	return &SettingsService{Deps: deps.withDefaults()}
}

// GetSettings returns the current settings
func (s *SettingsService) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings, err := s.Repos.Settings.Get(ctx)
	if err != nil {
		return nil, storeError(err, "Settings not found")
	}
	return settings, nil
}

// UpdateSettings replaces the settings. settings.Version must match the stored version.
func (s *SettingsService) UpdateSettings(ctx context.Context, actor *models.User, settings models.Settings) (*models.Settings, error) {
	if err := authorize(actor, authz.AccessAdminPanel); err != nil {
		return nil, err
	}
	if err := validateStruct(settings); err != nil {
		return nil, err
	}

	settings.UpdatedAt = s.Now()
	updated, err := s.Repos.Settings.Update(ctx, settings)
	if err != nil {
		return nil, storeError(err, "Settings not found")
	}

	s.Events.Publish(models.Event{
		Type:      models.EventSettingsUpdated,
		Data:      updated,
		Broadcast: true,
		At:        updated.UpdatedAt,
	})
	s.Logger.Info("Settings updated", zap.String("updated_by", actor.ID), zap.Int("version", updated.Version))
	return updated, nil
}
