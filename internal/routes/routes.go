package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"venuemap/internal/config"
	"venuemap/internal/logger"
	"venuemap/internal/metrics"
	"venuemap/internal/repository"
	"venuemap/internal/services"
)

const healthTimeout = 2 * time.Second

// Dependencies are the external collaborators of the API. Nil fields get
// defaults built from the config.
type Dependencies struct {
	Logger   *zap.Logger
	Geocoder services.Geocoder
	Zones    services.TimezoneFinder
	Photos   services.PhotoStore
	Mailer   services.EmailSender
}

func (d Dependencies) withDefaults(cfg *config.Config) Dependencies {
	d.Logger = logger.OrNop(d.Logger)
	if d.Geocoder == nil {
		d.Geocoder = services.NewMapboxClient(cfg.MapboxBaseURL, cfg.MapboxToken, d.Logger).
			WithTimeout(cfg.GeocodeTimeout)
	}
	if d.Photos == nil {
		d.Photos = services.DisabledPhotoStore{}
	}
	if d.Mailer == nil {
		d.Mailer = &services.LogEmailSender{Log: d.Logger}
	}
	return d
}

// repositories groups the data access used by the route groups.
type repositories struct {
	users  repository.UserRepository
	venues repository.VenueRepository
	events repository.EventRepository
	resets repository.PasswordResetRepository
}

func newRepositories(db *sql.DB) repositories {
	return repositories{
		users:  repository.NewUserRepository(db),
		venues: repository.NewVenueRepository(db),
		events: repository.NewEventRepository(db),
		resets: repository.NewPasswordResetRepository(db),
	}
}

func SetupRoutes(db *sql.DB, cfg *config.Config, deps Dependencies) *chi.Mux {
	deps = deps.withDefaults(cfg)
	repos := newRepositories(db)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(corsOptions(cfg)))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "venuemap API",
			"docs":    "/swagger/index.html",
		})
	})
	r.Get("/health", healthHandler(db))
	r.Handle("/metrics", metrics.Handler())
	RegisterSwaggerRoutes(r)

	r.Route("/api", func(r chi.Router) {
		RegisterLocationRoutes(r, deps)

		r.Route("/v1", func(r chi.Router) {
			RegisterAuthRoutes(r, repos, cfg, deps)
			RegisterUserRoutes(r, repos, cfg, deps)
			RegisterVenueRoutes(r, repos, cfg, deps)
			RegisterEventRoutes(r, repos, cfg, deps)
		})
	})

	return r
}

func corsOptions(cfg *config.Config) cors.Options {
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

type dbHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"db":     dbHealth{Status: "down", Error: err.Error()},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"db":     dbHealth{Status: "ok"},
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
