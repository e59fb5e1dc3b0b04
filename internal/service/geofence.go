package service

import (
	"fmt"
	"math"

	"github.com/timetidy/timetidy-service/internal/models"
)

const earthRadiusMeters = 6371e3

// Distance returns the great-circle distance in meters between two coordinates
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// checkGeofence rejects coordinates outside the location's radius. Locations
// with coordinates but no radius of their own use defaultRadius.
func checkGeofence(location *models.Location, lat, lon float64, defaultRadius float64) error {
	if location.Latitude == nil || location.Longitude == nil {
		return nil
	}
	radius := defaultRadius
	if location.GeofenceRadius != nil && *location.GeofenceRadius > 0 {
		radius = *location.GeofenceRadius
	}
	if radius <= 0 {
		return nil
	}

	distance := Distance(lat, lon, *location.Latitude, *location.Longitude)
	if distance <= radius {
		return nil
	}

	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("You are %dm away from %s. Please move closer to check in.", int(math.Round(distance)), location.Name),
	}
}
