package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"venuemap/internal/models"
	"venuemap/internal/services"
)

type searchCmd struct {
	Query string  `arg:"" help:"Free-text place query."`
	Lat   float64 `help:"Latitude to bias results toward."`
	Lng   float64 `help:"Longitude to bias results toward."`
}

func (c *searchCmd) Run(g *globalCmd) error {
	client, lg, err := g.mapbox()
	if err != nil {
		return err
	}

	q := models.SearchQuery{Text: c.Query}
	if c.Lat != 0 || c.Lng != 0 {
		q.Bias = &models.Coordinates{Latitude: c.Lat, Longitude: c.Lng}
	}

	fmt.Printf("strategies: %s\n", strings.Join(services.AppliedStrategies(c.Query), ", "))

	places, err := services.NewLocationSearchService(client, lg).Search(context.Background(), q)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Name", "Type", "Relevance", "Latitude", "Longitude", "Address"})
	for i, p := range places {
		t.AppendRow(table.Row{i + 1, p.Name, p.Type, fmt.Sprintf("%.3f", p.Relevance), p.Latitude, p.Longitude, p.Address})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

type nearbyCmd struct {
	Lat float64 `help:"Latitude of the origin." required:""`
	Lng float64 `help:"Longitude of the origin." required:""`
}

func (c *nearbyCmd) Run(g *globalCmd) error {
	client, lg, err := g.mapbox()
	if err != nil {
		return err
	}

	origin := models.Coordinates{Latitude: c.Lat, Longitude: c.Lng}
	places, err := services.NewNearbyPlacesService(client, lg).Nearby(context.Background(), origin)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Name", "Distance (km)", "Latitude", "Longitude", "Address"})
	for _, p := range places {
		t.AppendRow(table.Row{p.Name, p.Distance, p.Latitude, p.Longitude, p.Address})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
