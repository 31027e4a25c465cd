package routes

import (
	"github.com/go-chi/chi/v5"

	"venuemap/internal/config"
	"venuemap/internal/handlers"
	"venuemap/internal/middleware"
	"venuemap/internal/services"
)

func RegisterUserRoutes(router chi.Router, repos repositories, cfg *config.Config, deps Dependencies) {
	userHandler := handlers.NewUserHandler(
		repos.users,
		repos.venues,
		services.NewPhotoUploader(deps.Photos, deps.Logger),
		deps.Logger,
	)

	router.Route("/me", func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret))
		r.Get("/", userHandler.Me)
		r.Put("/", userHandler.UpdateMe)
		r.Delete("/", userHandler.DeleteMe)
		r.Put("/password", userHandler.ChangePassword)
	})
}
