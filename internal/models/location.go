package models

import (
	"time"
)

// Location represents a workplace employees check in at
type Location struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Address        string    `db:"address" json:"address"`
	City           string    `db:"city" json:"city"`
	PostalCode     string    `db:"postal_code" json:"postalCode"`
	Country        string    `db:"country" json:"country"`
	Latitude       *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude      *float64  `db:"longitude" json:"longitude,omitempty"`
	GeofenceRadius *float64  `db:"geofence_radius" json:"geofenceRadius,omitempty"` // meters
	IsActive       bool      `db:"is_active" json:"isActive"`
	Version        int       `db:"version" json:"version"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// HasGeofence reports whether the location defines a center and a radius
func (l Location) HasGeofence() bool {
	return l.Latitude != nil && l.Longitude != nil && l.GeofenceRadius != nil && *l.GeofenceRadius > 0
}

// LocationRequest is used for location creation/update
type LocationRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	Address        string   `json:"address" validate:"required,max=200"`
	City           string   `json:"city" validate:"required,max=100"`
	PostalCode     string   `json:"postalCode" validate:"required,max=20"`
	Country        string   `json:"country" validate:"required,max=100"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,longitude"`
	GeofenceRadius *float64 `json:"geofenceRadius" validate:"omitempty,gt=0"`
	IsActive       bool     `json:"isActive"`
}
