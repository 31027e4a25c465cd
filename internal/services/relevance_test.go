package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuemap/internal/models"
)

func TestDedupePlacesKeepsFirst(t *testing.T) {
	in := []models.Place{
		place("a", "A", "A", "poi", 1, 2, 0.1),
		place("b", "B", "B", "poi", 3, 4, 0.2),
		place("c", "C", "C", "poi", 1, 2, 0.9),
		place("d", "D", "D", "poi", 1.0000001, 2, 0.3),
	}
	out := DedupePlaces(in)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "d", out[2].ID)
}

func TestScorePlacesSortsDescending(t *testing.T) {
	in := []models.Place{
		place("low", "Alpha", "Alpha, Town", "address", 0, 0, 0.9),
		place("high", "Beta", "Beta, Town", "address", 0, 1, 0.95),
	}
	out := ScorePlaces(in, "zzz", nil)
	require.Len(t, out, 2)
	assert.Equal(t, "high", out[0].ID)
	assert.Equal(t, "low", out[1].ID)
}

func TestScorePlacesStableOnTies(t *testing.T) {
	in := []models.Place{
		place("first", "Alpha", "Alpha", "address", 0, 0, 0.5),
		place("second", "Beta", "Beta", "address", 0, 1, 0.5),
	}
	out := ScorePlaces(in, "zzz", nil)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "second", out[1].ID)
}

func TestScorePlacesClampsToOne(t *testing.T) {
	in := []models.Place{
		place("p", "Rotterdam Centraal Station", "Rotterdam Centraal Station, Rotterdam", "poi", 51.92, 4.47, 0.99),
		place("q", "Zuidplein", "Zuidplein, Rotterdam", "poi", 51.88, 4.49, 0.1),
	}
	out := ScorePlaces(in, "rotterdam centraal station", &models.Coordinates{Latitude: 51.92, Longitude: 4.47})
	for _, p := range out {
		assert.LessOrEqual(t, p.Relevance, 1.0)
	}
	assert.Equal(t, 1.0, out[0].Relevance)
}

func TestScorePlacesBoosts(t *testing.T) {
	cases := []struct {
		name  string
		place models.Place
		query string
		want  float64
	}{
		{"no match", place("1", "Alpha", "Alpha, Town", "address", 0, 0, 0.1), "zzz", 0.1},
		{"exact name", place("1", "Markthal", "Somewhere else", "address", 0, 0, 0.1), "markthal", 0.8},
		{"full name contains query", place("1", "Hall", "Markthal, Rotterdam", "address", 0, 0, 0.1), "markthal", 0.5},
		{"query contains name", place("1", "Blaak", "Station Blaak", "address", 0, 0, 0.1), "blaak 31", 0.4},
		{"station poi", place("1", "Foo", "Foo Bar", "poi", 0, 0, 0.1), "some station", 0.6},
		{"station in full name", place("1", "Foo", "Foo Station", "address", 0, 0, 0.1), "some station", 0.6},
		{"park poi", place("1", "Foo", "Foo Bar", "poi", 0, 0, 0.1), "big park", 0.5},
		{"airport poi", place("1", "Foo", "Foo Bar", "poi", 0, 0, 0.1), "nearest airport", 0.6},
		{"rotterdam needs full name", place("1", "Foo", "Foo Bar", "poi", 0, 0, 0.1), "in rotterdam", 0.1},
		{"rotterdam in full name", place("1", "Foo", "Foo, Rotterdam", "address", 0, 0, 0.1), "in rotterdam", 0.4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ScorePlaces([]models.Place{tc.place}, tc.query, nil)
			require.Len(t, out, 1)
			assert.InDelta(t, tc.want, out[0].Relevance, 1e-9)
		})
	}
}

func TestScorePlacesProximityBoostFloor(t *testing.T) {
	near := place("near", "Alpha", "Alpha", "address", 51.92, 4.47, 0.1)
	far := place("far", "Beta", "Beta", "address", 40.0, -3.7, 0.1)
	bias := &models.Coordinates{Latitude: 51.92, Longitude: 4.47}

	out := ScorePlaces([]models.Place{near, far}, "zzz", bias)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.InDelta(t, 0.4, p.Relevance, 1e-9)
	}
}

func TestScorePlacesKeepsTopTen(t *testing.T) {
	var in []models.Place
	for i := 0; i < 15; i++ {
		in = append(in, place(fmt.Sprint(i), fmt.Sprint("Name", i), "Town", "address", float64(i), 0, float64(i)/100))
	}
	out := ScorePlaces(in, "zzz", nil)
	require.Len(t, out, 10)
	assert.Equal(t, "14", out[0].ID)
	assert.Equal(t, "5", out[9].ID)
}

func TestDistanceKm(t *testing.T) {
	p := models.Coordinates{Latitude: 51.92, Longitude: 4.47}
	assert.Equal(t, 0.0, DistanceKm(p, p))

	rotterdam := models.Coordinates{Latitude: 51.9244, Longitude: 4.4777}
	amsterdam := models.Coordinates{Latitude: 52.3676, Longitude: 4.9041}
	assert.InDelta(t, 57.0, DistanceKm(rotterdam, amsterdam), 1.0)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.2, RoundTo(1.24, 1))
	assert.Equal(t, 1.3, RoundTo(1.25, 1))
	assert.Equal(t, 0.0, RoundTo(0.04, 1))
}
