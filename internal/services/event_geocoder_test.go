package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuemap/internal/models"
)

type staticZones string

func (z staticZones) GetTimezoneName(lng, lat float64) string { return string(z) }

func TestLocationContextQuery(t *testing.T) {
	assert.Equal(t, "Markthal, Rotterdam, Netherlands",
		LocationContext{Location: "Markthal", City: "Rotterdam", Country: "Netherlands"}.Query())
	assert.Equal(t, "Markthal, Rotterdam", LocationContext{Location: "Markthal", City: "Rotterdam"}.Query())
	assert.Equal(t, "Markthal", LocationContext{Location: "Markthal", Country: "Netherlands"}.Query())
}

func TestLocatePicksCandidateClosestToOwner(t *testing.T) {
	g := newFakeGeocoder()
	g.on("Central Park, Rotterdam", nil,
		place("1", "Central Park", "Central Park, New York", "poi", 40.78, -73.96, 0.9),
		place("2", "Central Park", "Central Park, Rotterdam", "poi", 51.93, 4.48, 0.7),
	)
	eg := NewEventGeocoder(g, nil, time.Hour, nil)

	c, err := eg.Locate(context.Background(), LocationContext{
		Location: "Central Park",
		City:     "Rotterdam",
		Owner:    &models.Coordinates{Latitude: 51.92, Longitude: 4.47},
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, models.Coordinates{Latitude: 51.93, Longitude: 4.48}, *c)
}

func TestLocateWithoutOwnerUsesFirstAndCaches(t *testing.T) {
	g := newFakeGeocoder()
	g.on("Markthal", nil,
		place("1", "Markthal", "Markthal, Rotterdam", "poi", 51.92, 4.48, 0.9),
		place("2", "Markthal", "Markthal, Elsewhere", "poi", 10, 10, 0.5),
	)
	eg := NewEventGeocoder(g, nil, time.Hour, nil)

	for i := 0; i < 2; i++ {
		c, err := eg.Locate(context.Background(), LocationContext{Location: "Markthal"})
		require.NoError(t, err)
		assert.Equal(t, 51.92, c.Latitude)
	}
	assert.Len(t, g.calls, 1)
}

func TestApplyKeepsClientCoordinates(t *testing.T) {
	g := newFakeGeocoder()
	eg := NewEventGeocoder(g, staticZones("Europe/Amsterdam"), time.Hour, nil)

	ev := &models.ScheduledEvent{Location: "Markthal"}
	ev.SetCoordinates(&models.Coordinates{Latitude: 51.92, Longitude: 4.48})
	eg.Apply(context.Background(), ev, nil)

	assert.Empty(t, g.calls)
	assert.Equal(t, "Europe/Amsterdam", ev.Timezone)
}

func TestApplyGeocodesWithOwnerContext(t *testing.T) {
	g := newFakeGeocoder()
	g.on("Markthal, Rotterdam, Netherlands", nil,
		place("1", "Markthal", "Markthal, Rotterdam", "poi", 51.92, 4.48, 0.9))
	eg := NewEventGeocoder(g, staticZones("Europe/Amsterdam"), time.Hour, nil)

	ev := &models.ScheduledEvent{Location: "Markthal"}
	owner := &models.User{City: "Rotterdam", Country: "Netherlands"}
	eg.Apply(context.Background(), ev, owner)

	require.NotNil(t, ev.Coordinates())
	assert.Equal(t, 51.92, *ev.Latitude)
	assert.Equal(t, "Europe/Amsterdam", ev.Timezone)
}

func TestApplyFailureLeavesCoordinatesEmpty(t *testing.T) {
	g := newFakeGeocoder()
	g.fail("Nowhere", nil, &StatusError{StatusCode: 500})
	eg := NewEventGeocoder(g, staticZones("Europe/Amsterdam"), time.Hour, nil)

	ev := &models.ScheduledEvent{Location: "Nowhere"}
	eg.Apply(context.Background(), ev, nil)
	assert.Nil(t, ev.Coordinates())
	assert.Empty(t, ev.Timezone)
}

func TestRefreshRestoresOnFailure(t *testing.T) {
	g := newFakeGeocoder()
	eg := NewEventGeocoder(g, nil, time.Hour, nil)

	ev := &models.ScheduledEvent{Location: "Unknown place"}
	ev.SetCoordinates(&models.Coordinates{Latitude: 1, Longitude: 2})
	err := eg.Refresh(context.Background(), ev, nil)
	assert.ErrorIs(t, err, ErrNoGeocodeMatch)
	assert.Equal(t, &models.Coordinates{Latitude: 1, Longitude: 2}, ev.Coordinates())
}

func TestRefreshOverwritesCoordinates(t *testing.T) {
	g := newFakeGeocoder()
	g.on("Markthal", nil, place("1", "Markthal", "Markthal", "poi", 51.92, 4.48, 0.9))
	eg := NewEventGeocoder(g, staticZones("Europe/Amsterdam"), time.Hour, nil)

	ev := &models.ScheduledEvent{Location: "Markthal"}
	ev.SetCoordinates(&models.Coordinates{Latitude: 1, Longitude: 2})
	require.NoError(t, eg.Refresh(context.Background(), ev, nil))
	assert.Equal(t, &models.Coordinates{Latitude: 51.92, Longitude: 4.48}, ev.Coordinates())
	assert.Equal(t, "Europe/Amsterdam", ev.Timezone)
}
