package routes

import (
	"github.com/go-chi/chi/v5"

	"venuemap/internal/handlers"
	"venuemap/internal/services"
)

// RegisterLocationRoutes mounts the public autocomplete endpoints.
func RegisterLocationRoutes(r chi.Router, deps Dependencies) {
	handler := handlers.NewLocationHandler(
		services.NewLocationSearchService(deps.Geocoder, deps.Logger),
		services.NewNearbyPlacesService(deps.Geocoder, deps.Logger),
		deps.Logger,
	)

	r.Get("/location_search", handler.Search)
	r.Get("/nearby_places", handler.Nearby)
}
