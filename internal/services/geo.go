package services

import (
	"math"

	"github.com/golang/geo/s2"

	"venuemap/internal/models"
)

// EarthRadiusKm is the mean Earth radius used for all distance figures.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b in kilometres.
func DistanceKm(a, b models.Coordinates) float64 {
	pa := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	pb := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return pa.Distance(pb).Radians() * EarthRadiusKm
}

// RoundTo rounds f to the given number of decimal places.
func RoundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
