package services

import (
	"context"

	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/metrics"
	"venuemap/internal/models"
)

const nearbyStrategy = "nearby"

// NearbyPlacesService lists points of interest around a coordinate.
type NearbyPlacesService struct {
	geocoder Geocoder
	log      *zap.Logger
}

func NewNearbyPlacesService(g Geocoder, log *zap.Logger) *NearbyPlacesService {
	return &NearbyPlacesService{geocoder: g, log: logger.OrNop(log)}
}

// Nearby makes a single poi lookup biased to origin and annotates each result
// with its distance in km rounded to one decimal. Upstream errors are
// returned unchanged.
func (s *NearbyPlacesService) Nearby(ctx context.Context, origin models.Coordinates) ([]models.NearbyPlace, error) {
	if !s.geocoder.Configured() {
		return nil, ErrGeocoderNotConfigured
	}

	places, err := s.geocoder.Forward(ctx, GeocodeParams{
		Query:     "poi",
		Types:     []string{"poi"},
		Limit:     defaultGeocodeLimit,
		Proximity: &origin,
	})
	metrics.ObserveGeocode(nearbyStrategy, err)
	if err != nil {
		s.log.Warn("nearby lookup failed", zap.Error(err))
		return nil, err
	}

	out := make([]models.NearbyPlace, 0, len(places))
	for _, p := range places {
		out = append(out, models.NearbyPlace{
			Name:      p.Name,
			Address:   p.FullName,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Distance:  RoundTo(DistanceKm(origin, p.Coordinates()), 1),
		})
	}
	return out, nil
}
