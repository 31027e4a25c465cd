package routes

import (
	"github.com/go-chi/chi/v5"

	"venuemap/internal/config"
	"venuemap/internal/handlers"
)

func RegisterAuthRoutes(router chi.Router, repos repositories, cfg *config.Config, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(repos.users, repos.venues, repos.resets, deps.Mailer, cfg, deps.Logger)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})
}
