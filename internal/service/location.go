package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
)

// LocationService manages workplaces
type LocationService struct {
	Deps
}

// NewLocationService creates a new location service
func NewLocationService(deps Deps) *LocationService {
	return &LocationService{Deps: deps.withDefaults()}
}

// ListLocations returns all locations, or only active ones
func (s *LocationService) ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	locations, err := s.Repos.Location.List(ctx, activeOnly)
	if err != nil {
		return nil, storeError(err, "Location not found")
	}
	return locations, nil
}

// GetLocation retrieves a location by ID
func (s *LocationService) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	location, err := s.Repos.Location.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Location not found")
	}
	return location, nil
}

// CreateLocation adds a workplace
func (s *LocationService) CreateLocation(ctx context.Context, actor *models.User, req models.LocationRequest) (*models.Location, error) {
	if err := authorize(actor, authz.ManageLocations); err != nil {
		return nil, err
	}
	if err := validateLocation(req); err != nil {
		return nil, err
	}

	now := s.Now()
	created, err := s.Repos.Location.Create(ctx, models.Location{
		ID:             s.NewID(),
		Name:           req.Name,
		Address:        req.Address,
		City:           req.City,
		PostalCode:     req.PostalCode,
		Country:        req.Country,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		GeofenceRadius: req.GeofenceRadius,
		IsActive:       req.IsActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, storeError(err, "Location not found")
	}

	s.Logger.Info("Location created", zap.String("location_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// UpdateLocation replaces a location's fields
func (s *LocationService) UpdateLocation(ctx context.Context, actor *models.User, id string, req models.LocationRequest) (*models.Location, error) {
	if err := authorize(actor, authz.ManageLocations); err != nil {
		return nil, err
	}
	if err := validateLocation(req); err != nil {
		return nil, err
	}

	location, err := s.Repos.Location.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Location not found")
	}

	location.Name = req.Name
	location.Address = req.Address
	location.City = req.City
	location.PostalCode = req.PostalCode
	location.Country = req.Country
	location.Latitude = req.Latitude
	location.Longitude = req.Longitude
	location.GeofenceRadius = req.GeofenceRadius
	location.IsActive = req.IsActive
	location.UpdatedAt = s.Now()

	updated, err := s.Repos.Location.Update(ctx, *location)
	if err != nil {
		return nil, storeError(err, "Location not found")
	}
	return updated, nil
}

func validateLocation(req models.LocationRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return invalid("Validation failed", map[string][]string{
			"latitude":  {"Latitude and longitude must be provided together"},
			"longitude": {"Latitude and longitude must be provided together"},
		})
	}
	return nil
}
