package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/models"
)

const (
	DefaultMapboxBaseURL = "https://api.mapbox.com"
	defaultGeocodeLimit  = 10
	biasBoxHalfSpan      = 0.05
)

// ErrGeocoderNotConfigured is returned before any network call when no access
// token was supplied.
var ErrGeocoderNotConfigured = errors.New("Mapbox API key not configured")

// StatusError is a non-2xx answer from the geocoding API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Mapbox API error: %d", e.StatusCode)
}

// BoundingBox limits results to a lng/lat rectangle.
type BoundingBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// BoxAround returns the square of half-side span degrees centred on c.
func BoxAround(c models.Coordinates, span float64) *BoundingBox {
	return &BoundingBox{
		MinLng: c.Longitude - span,
		MinLat: c.Latitude - span,
		MaxLng: c.Longitude + span,
		MaxLat: c.Latitude + span,
	}
}

// GeocodeParams describes one forward geocoding call. Zero values are left
// off the request.
type GeocodeParams struct {
	Query     string
	Types     []string
	Limit     int
	Language  string
	Proximity *models.Coordinates
	BBox      *BoundingBox
}

// Geocoder is the forward geocoding capability the services depend on.
type Geocoder interface {
	Forward(ctx context.Context, p GeocodeParams) ([]models.Place, error)
	Configured() bool
}

type MapboxClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

func NewMapboxClient(baseURL, token string, log *zap.Logger) *MapboxClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultMapboxBaseURL
	}
	return &MapboxClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.OrNop(log),
	}
}

func (c *MapboxClient) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// WithTimeout bounds each upstream call. Non-positive values keep the
// current client.
func (c *MapboxClient) WithTimeout(d time.Duration) *MapboxClient {
	if d > 0 {
		c.httpClient = &http.Client{Timeout: d}
	}
	return c
}

func (c *MapboxClient) Configured() bool {
	return c.token != ""
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"`
	PlaceType []string  `json:"place_type"`
	Relevance float64   `json:"relevance"`
}

// Forward runs a single forward geocoding request and maps the features to
// places in API order. Features without a usable center are skipped.
func (c *MapboxClient) Forward(ctx context.Context, p GeocodeParams) ([]models.Place, error) {
	if !c.Configured() {
		return nil, ErrGeocoderNotConfigured
	}

	u, err := url.Parse(c.baseURL + "/geocoding/v5/mapbox.places/" + url.PathEscape(p.Query) + ".json")
	if err != nil {
		return nil, fmt.Errorf("build geocoding url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", c.token)
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(p.Types) > 0 {
		q.Set("types", strings.Join(p.Types, ","))
	}
	if p.Language != "" {
		q.Set("language", p.Language)
	}
	if p.Proximity != nil {
		q.Set("proximity", formatCoord(p.Proximity.Longitude)+","+formatCoord(p.Proximity.Latitude))
	}
	if p.BBox != nil {
		q.Set("bbox", strings.Join([]string{
			formatCoord(p.BBox.MinLng),
			formatCoord(p.BBox.MinLat),
			formatCoord(p.BBox.MaxLng),
			formatCoord(p.BBox.MaxLat),
		}, ","))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var out mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("geocoding response: invalid json: %w", err)
	}

	places := make([]models.Place, 0, len(out.Features))
	for _, f := range out.Features {
		if len(f.Center) < 2 {
			c.log.Debug("skipping feature without center", zap.String("id", f.ID))
			continue
		}
		var placeType string
		if len(f.PlaceType) > 0 {
			placeType = f.PlaceType[0]
		}
		places = append(places, models.Place{
			ID:        f.ID,
			Name:      f.Text,
			FullName:  f.PlaceName,
			Address:   f.PlaceName,
			Latitude:  f.Center[1],
			Longitude: f.Center[0],
			Type:      placeType,
			Relevance: f.Relevance,
		})
	}
	return places, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
