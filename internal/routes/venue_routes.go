package routes

import (
	"github.com/go-chi/chi/v5"

	"venuemap/internal/config"
	"venuemap/internal/handlers"
	"venuemap/internal/middleware"
	"venuemap/internal/services"
)

func RegisterVenueRoutes(r chi.Router, repos repositories, cfg *config.Config, deps Dependencies) {
	handler := handlers.NewVenueHandler(
		repos.venues,
		repos.events,
		repos.users,
		services.NewPhotoUploader(deps.Photos, deps.Logger),
		deps.Logger,
	)

	r.Route("/venues", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/{id}", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			r.Post("/", handler.Create)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
		})
	})
}
