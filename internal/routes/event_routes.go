package routes

import (
	"github.com/go-chi/chi/v5"

	"venuemap/internal/config"
	"venuemap/internal/handlers"
	"venuemap/internal/middleware"
	"venuemap/internal/services"
)

func RegisterEventRoutes(r chi.Router, repos repositories, cfg *config.Config, deps Dependencies) {
	handler := handlers.NewEventHandler(
		repos.events,
		repos.venues,
		repos.users,
		services.NewEventGeocoder(deps.Geocoder, deps.Zones, cfg.GeocodeCacheTTL, deps.Logger),
		services.NewPhotoUploader(deps.Photos, deps.Logger),
		deps.Logger,
	)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/map", handler.Map)
		r.Get("/categories", handler.Categories)
		r.Get("/{id}", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			r.Post("/", handler.Create)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
		})
	})
}
