package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ringsaturn/tzf"
	"github.com/schollz/progressbar/v3"

	"venuemap/internal/models"
	"venuemap/internal/repository"
	"venuemap/internal/services"
)

type geocodeEventsCmd struct {
	Force bool          `help:"Re-geocode events that already have coordinates."`
	Pace  time.Duration `help:"Pause between geocoding requests." default:"100ms"`
	Quiet bool          `help:"Hide the progress bar."`
}

func (c *geocodeEventsCmd) Run(g *globalCmd) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, lg, err := g.mapbox()
	if err != nil {
		return err
	}
	database, err := g.database(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	var zones services.TimezoneFinder
	if finder, err := tzf.NewDefaultFinder(); err != nil {
		fmt.Fprintf(os.Stderr, "timezone finder unavailable, time zones will be cleared: %v\n", err)
	} else {
		zones = finder
	}

	cfg := g.cfg
	backfill := services.NewGeocodeBackfill(
		repository.NewEventRepository(database.DB),
		services.NewEventGeocoder(client, zones, cfg.GeocodeCacheTTL, lg),
		lg,
	)

	var bar *progressbar.ProgressBar
	res, err := backfill.Run(ctx, services.BackfillOptions{
		Force: c.Force,
		Pace:  c.Pace,
		OnStart: func(total int) {
			bar = progressbar.NewOptions64(int64(total),
				progressbar.OptionSetDescription("geocoding events"),
				progressbar.OptionSetVisibility(!c.Quiet),
				progressbar.OptionShowCount(),
			)
		},
		OnEvent: func(ev *models.ScheduledEvent, err error) {
			bar.Add(1)
		},
	})
	if bar != nil {
		bar.Finish()
	}
	fmt.Printf("\n%d events selected, %d updated, %d failed\n", res.Total, res.Updated, res.Failed)
	return err
}
