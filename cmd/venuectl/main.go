package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"venuemap/internal/config"
	"venuemap/internal/db"
	"venuemap/internal/logger"
	"venuemap/internal/services"
)

type globalCmd struct {
	LogLevel string `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL" default:"warn"`

	cfg *config.Config
}

var CLI struct {
	globalCmd

	GeocodeEvents geocodeEventsCmd `cmd:"" help:"Geocode stored events and save their coordinates and time zones."`
	Search        searchCmd        `cmd:"" help:"Run a location search."`
	Nearby        nearbyCmd        `cmd:"" help:"List places near a coordinate."`
	Migrate       migrateCmd       `cmd:"" help:"Apply pending database migrations."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("venuectl"),
		kong.Description("Maintenance and diagnostics for the venuemap API."),
	)
	err := ctx.Run(&CLI.globalCmd)
	ctx.FatalIfErrorf(err)
}

// setup loads configuration and initializes the global logger. It is safe to
// call more than once.
func (g *globalCmd) setup() (*config.Config, *zap.Logger, error) {
	if g.cfg == nil {
		g.cfg = config.Load()
		if err := logger.Init(logger.ParseLevel(g.LogLevel),
			zap.String("service", "venuectl"),
			zap.String("environment", g.cfg.Environment),
		); err != nil {
			return nil, nil, fmt.Errorf("initializing logger: %w", err)
		}
	}
	return g.cfg, logger.Log, nil
}

func (g *globalCmd) database(ctx context.Context) (*db.Database, error) {
	cfg, _, err := g.setup()
	if err != nil {
		return nil, err
	}
	return db.New(ctx, cfg.DatabaseURL)
}

func (g *globalCmd) mapbox() (*services.MapboxClient, *zap.Logger, error) {
	cfg, lg, err := g.setup()
	if err != nil {
		return nil, nil, err
	}
	if cfg.MapboxToken == "" {
		return nil, nil, fmt.Errorf("MAPBOX_API_KEY is not set")
	}
	return services.NewMapboxClient(cfg.MapboxBaseURL, cfg.MapboxToken, lg).WithTimeout(cfg.GeocodeTimeout), lg, nil
}
