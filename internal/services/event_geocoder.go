package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/metrics"
	"venuemap/internal/models"
)

const (
	eventGeocodeStrategy   = "event"
	DefaultGeocodeCacheTTL = 30 * 24 * time.Hour
)

var ErrNoGeocodeMatch = errors.New("no geocoding match for location")

// TimezoneFinder resolves an IANA zone name for a point. It is satisfied by
// tzf finders.
type TimezoneFinder interface {
	GetTimezoneName(lng, lat float64) string
}

// LocationContext is an event location plus what is known about its owner.
type LocationContext struct {
	Location string
	City     string
	Country  string
	Owner    *models.Coordinates
}

// Query builds "location, city, country", dropping the parts that are blank.
// Country is only appended after a city.
func (lc LocationContext) Query() string {
	parts := []string{strings.TrimSpace(lc.Location)}
	if city := strings.TrimSpace(lc.City); city != "" {
		parts = append(parts, city)
		if country := strings.TrimSpace(lc.Country); country != "" {
			parts = append(parts, country)
		}
	}
	return strings.Join(parts, ", ")
}

// ContextForOwner builds the geocoding context for an event owned by u.
func ContextForOwner(location string, u *models.User) LocationContext {
	lc := LocationContext{Location: location}
	if u != nil {
		lc.City = u.City
		lc.Country = u.Country
		lc.Owner = u.Location()
	}
	return lc
}

// EventGeocoder turns free-text event locations into coordinates and a time
// zone. Candidate lists are cached per query string.
type EventGeocoder struct {
	geocoder Geocoder
	zones    TimezoneFinder
	cache    *cache.Cache
	log      *zap.Logger
}

func NewEventGeocoder(g Geocoder, zones TimezoneFinder, ttl time.Duration, log *zap.Logger) *EventGeocoder {
	if ttl <= 0 {
		ttl = DefaultGeocodeCacheTTL
	}
	return &EventGeocoder{
		geocoder: g,
		zones:    zones,
		cache:    cache.New(ttl, ttl/24+time.Minute),
		log:      logger.OrNop(log),
	}
}

// Locate returns the best candidate for lc: the one closest to the owner when
// the owner location is known, otherwise the first. A nil result with a nil
// error means nothing matched.
func (g *EventGeocoder) Locate(ctx context.Context, lc LocationContext) (*models.Coordinates, error) {
	query := lc.Query()
	if query == "" {
		return nil, nil
	}

	var candidates []models.Place
	if cached, ok := g.cache.Get(query); ok {
		metrics.ObserveGeocodeCache(true)
		candidates = cached.([]models.Place)
	} else {
		metrics.ObserveGeocodeCache(false)
		if !g.geocoder.Configured() {
			return nil, ErrGeocoderNotConfigured
		}
		places, err := g.geocoder.Forward(ctx, GeocodeParams{Query: query, Limit: 5})
		metrics.ObserveGeocode(eventGeocodeStrategy, err)
		if err != nil {
			return nil, err
		}
		candidates = places
		g.cache.SetDefault(query, candidates)
	}

	if len(candidates) == 0 {
		return nil, nil
	}
	best := candidates[0].Coordinates()
	if lc.Owner != nil {
		bestDist := DistanceKm(*lc.Owner, best)
		for _, c := range candidates[1:] {
			if d := DistanceKm(*lc.Owner, c.Coordinates()); d < bestDist {
				best, bestDist = c.Coordinates(), d
			}
		}
	}
	return &best, nil
}

// Timezone returns the zone name for c, or "" when no finder is configured.
func (g *EventGeocoder) Timezone(c models.Coordinates) string {
	if g.zones == nil {
		return ""
	}
	return g.zones.GetTimezoneName(c.Longitude, c.Latitude)
}

// Apply fills in the coordinates and time zone of ev. Client-supplied
// coordinates are kept; otherwise the location is geocoded. Failures are
// logged and leave the coordinates empty so the event can still be saved.
func (g *EventGeocoder) Apply(ctx context.Context, ev *models.ScheduledEvent, owner *models.User) {
	if ev.Coordinates() == nil && strings.TrimSpace(ev.Location) != "" {
		c, err := g.Locate(ctx, ContextForOwner(ev.Location, owner))
		if err != nil {
			g.log.Warn("event geocoding failed",
				zap.String("location", ev.Location),
				zap.Error(err))
		}
		ev.SetCoordinates(c)
	}
	if c := ev.Coordinates(); c != nil {
		ev.Timezone = g.Timezone(*c)
	} else {
		ev.Timezone = ""
	}
}

// Refresh re-geocodes ev regardless of stored coordinates. On failure the
// previous coordinates are restored and the error is returned.
func (g *EventGeocoder) Refresh(ctx context.Context, ev *models.ScheduledEvent, owner *models.User) error {
	previous := ev.Coordinates()
	c, err := g.Locate(ctx, ContextForOwner(ev.Location, owner))
	if err != nil || c == nil {
		ev.SetCoordinates(previous)
		if err == nil {
			err = ErrNoGeocodeMatch
		}
		return err
	}
	ev.SetCoordinates(c)
	ev.Timezone = g.Timezone(*c)
	return nil
}
