package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/timetidy/timetidy-service/internal/models"
)

const locationColumns = `id, name, address, city, postal_code, country, latitude, longitude,
		geofence_radius, is_active, version, created_at, updated_at`

// LocationRepository handles location data access
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// GetByID retrieves a location by ID
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*models.Location, error) {
	var location models.Location
	err := r.db.GetContext(ctx, &location, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "get location")
	}

	return &location, nil
}

// List retrieves all locations, optionally only the active ones
func (r *LocationRepository) List(ctx context.Context, activeOnly bool) ([]models.Location, error) {
	var w where
	if activeOnly {
		w.addRaw("is_active")
	}

	locations := []models.Location{}
	query := `SELECT ` + locationColumns + ` FROM locations ` + w.String() + ` ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &locations, query, w.args...); err != nil {
		return nil, translate(err, "list locations")
	}

	return locations, nil
}

// Create creates a new location
func (r *LocationRepository) Create(ctx context.Context, location models.Location) (*models.Location, error) {
	query := `
		INSERT INTO locations (id, name, address, city, postal_code, country, latitude, longitude,
			geofence_radius, is_active, version, created_at, updated_at)
		VALUES (:id, :name, :address, :city, :postal_code, :country, :latitude, :longitude,
			:geofence_radius, :is_active, 1, :created_at, :updated_at)
		RETURNING ` + locationColumns

	created, err := namedGet[models.Location](ctx, r.db, query, location)
	if err != nil {
		return nil, translate(err, "create location")
	}

	return created, nil
}

// Update updates a location if its version is unchanged
func (r *LocationRepository) Update(ctx context.Context, location models.Location) (*models.Location, error) {
	query := `
		UPDATE locations
		SET name = :name, address = :address, city = :city, postal_code = :postal_code, country = :country,
			latitude = :latitude, longitude = :longitude, geofence_radius = :geofence_radius,
			is_active = :is_active, version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version
		RETURNING ` + locationColumns

	updated, err := namedGet[models.Location](ctx, r.db, query, location)
	if err != nil {
		if err = translate(err, "update location"); err == ErrNotFound {
			return nil, versionMiss(ctx, r.db, "locations", location.ID)
		}
		return nil, err
	}

	return updated, nil
}
