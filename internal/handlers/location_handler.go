package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/models"
	"venuemap/internal/services"
)

const missingCoordinatesMessage = "Latitude and longitude are required"

type PlaceSearcher interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.Place, error)
}

type NearbyFinder interface {
	Nearby(ctx context.Context, origin models.Coordinates) ([]models.NearbyPlace, error)
}

// LocationHandler serves the public autocomplete and nearby-places
// endpoints used by the event form.
type LocationHandler struct {
	search PlaceSearcher
	nearby NearbyFinder
	log    *zap.Logger
}

func NewLocationHandler(search PlaceSearcher, nearby NearbyFinder, log *zap.Logger) *LocationHandler {
	return &LocationHandler{search: search, nearby: nearby, log: logger.OrNop(log)}
}

// @Tags Locations
// @Summary Search places
// @Description Free-text place search with optional proximity bias.
// @Produce json
// @Param q query string true "Search text"
// @Param lat query number false "Bias latitude"
// @Param lng query number false "Bias longitude"
// @Success 200 {object} models.LocationSearchResponse
// @Failure 400 {object} models.APIFailure
// @Failure 500 {object} models.APIFailure
// @Router /api/location_search [get]
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("q"))
	if text == "" {
		writeAPIFailure(w, http.StatusBadRequest, services.ErrEmptyQuery.Error())
		return
	}

	bias, _ := parseCoordinates(q.Get("lat"), q.Get("lng"))
	places, err := h.search.Search(r.Context(), models.SearchQuery{Text: text, Bias: bias})
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			writeAPIFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("location search failed", zap.String("query", text), zap.Error(err))
		writeAPIFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	if places == nil {
		places = []models.Place{}
	}
	writeJSON(w, http.StatusOK, models.LocationSearchResponse{Success: true, Places: places})
}

// @Tags Locations
// @Summary Nearby places
// @Description Points of interest around a coordinate with distances in km.
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} models.NearbyPlacesResponse
// @Failure 400 {object} models.APIFailure
// @Failure 500 {object} models.APIFailure
// @Router /api/nearby_places [get]
func (h *LocationHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	origin, ok := parseCoordinates(r.URL.Query().Get("lat"), r.URL.Query().Get("lng"))
	if !ok {
		writeAPIFailure(w, http.StatusBadRequest, missingCoordinatesMessage)
		return
	}

	places, err := h.nearby.Nearby(r.Context(), *origin)
	if err != nil {
		h.log.Error("nearby lookup failed",
			zap.Float64("lat", origin.Latitude),
			zap.Float64("lng", origin.Longitude),
			zap.Error(err))
		writeAPIFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	if places == nil {
		places = []models.NearbyPlace{}
	}
	writeJSON(w, http.StatusOK, models.NearbyPlacesResponse{Success: true, Places: places})
}

// parseCoordinates returns a point only when both values are present and
// numeric.
func parseCoordinates(lat, lng string) (*models.Coordinates, bool) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return nil, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, false
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, false
	}
	return &models.Coordinates{Latitude: la, Longitude: lo}, true
}
