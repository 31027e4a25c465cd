package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ringsaturn/tzf"
	"go.uber.org/zap"

	"venuemap/internal/config"
	"venuemap/internal/db"
	"venuemap/internal/db/migrations"
	"venuemap/internal/logger"
	"venuemap/internal/routes"
	"venuemap/internal/services"
)

// @title venuemap API
// @version 1.0
// @description Venues, scheduled events and location search for the event map.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Load()

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel),
		zap.String("service", "venuemap-api"),
		zap.String("environment", cfg.Environment),
	); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Log.Sync() }()
	lg := logger.Log

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	created, err := db.CreateDatabaseIfNotExists(startCtx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("failed to ensure database exists", zap.Error(err))
	}
	if created {
		lg.Info("created database")
	}

	database, err := db.New(startCtx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	applied, err := migrations.RunMigrations(startCtx, database.DB)
	if err != nil {
		lg.Fatal("failed to run migrations", zap.Error(err))
	}
	for _, name := range applied {
		lg.Info("applied migration", zap.String("migration", name))
	}

	deps := routes.Dependencies{Logger: lg}

	deps.Geocoder = services.NewMapboxClient(cfg.MapboxBaseURL, cfg.MapboxToken, lg).WithTimeout(cfg.GeocodeTimeout)
	if cfg.MapboxToken == "" {
		lg.Warn("MAPBOX_API_KEY not set, location search and event geocoding are disabled")
	}

	if finder, err := tzf.NewDefaultFinder(); err != nil {
		lg.Warn("timezone finder unavailable, events will be saved without a time zone", zap.Error(err))
	} else {
		deps.Zones = finder
	}

	s3Config, err := config.NewS3Config(startCtx)
	if err != nil {
		lg.Fatal("failed to configure S3", zap.Error(err))
	}
	if s3Config.Bucket != "" {
		deps.Photos = services.NewS3PhotoStore(s3Config.Client, s3Config.Bucket, s3Config.PublicBaseURL)
	} else {
		lg.Warn("S3_BUCKET_NAME not set, event photo uploads are disabled")
	}

	smtpSender := &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}
	if smtpSender.Configured() {
		deps.Mailer = smtpSender
	}

	router := routes.SetupRoutes(database.DB, cfg, deps)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		lg.Fatal("server forced to shutdown", zap.Error(err))
	}
	lg.Info("server exiting")
}
