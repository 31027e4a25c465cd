package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/metrics"
	"venuemap/internal/models"
)

// ErrEmptyQuery is returned for a blank search text.
var ErrEmptyQuery = errors.New("Query parameter is required")

var (
	primaryTypes = []string{"poi", "place", "address"}
	transitTypes = []string{"place", "address"}

	transitKeywords  = []string{"station", "train", "metro"}
	landmarkKeywords = []string{"centraal", "central"}
	landmarkToken    = regexp.MustCompile(`(?i)centraal|central`)
)

// strategyRule is one upstream query in a location search. Rules run in
// slice order and each decides independently whether it applies.
type strategyRule struct {
	name    string
	applies func(lowerQuery string) bool
	variant func(query string) string
	types   []string
}

var searchStrategies = []strategyRule{
	{
		name:    "primary",
		applies: func(string) bool { return true },
		variant: identity,
		types:   primaryTypes,
	},
	{
		name:    "transit",
		applies: containsAny(transitKeywords),
		variant: identity,
		types:   transitTypes,
	},
	{
		name:    "landmark_variant",
		applies: containsAny(landmarkKeywords),
		variant: swapLandmarkSpelling,
		types:   primaryTypes,
	},
}

func identity(s string) string { return s }

func containsAny(words []string) func(string) bool {
	return func(q string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
}

// swapLandmarkSpelling exchanges the Dutch and English spellings of
// "central" in one pass, so each occurrence is swapped exactly once.
func swapLandmarkSpelling(q string) string {
	return landmarkToken.ReplaceAllStringFunc(q, func(m string) string {
		if strings.EqualFold(m, "centraal") {
			return "central"
		}
		return "centraal"
	})
}

// LocationSearchService answers free-text place searches by running the
// applicable strategies, deduplicating and re-ranking the combined results.
type LocationSearchService struct {
	geocoder Geocoder
	log      *zap.Logger
}

func NewLocationSearchService(g Geocoder, log *zap.Logger) *LocationSearchService {
	return &LocationSearchService{geocoder: g, log: logger.OrNop(log)}
}

// Search returns up to ten places for q. A failing strategy contributes no
// results; the search only fails when it cannot start or ctx is done.
func (s *LocationSearchService) Search(ctx context.Context, q models.SearchQuery) ([]models.Place, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if !s.geocoder.Configured() {
		return nil, ErrGeocoderNotConfigured
	}

	lower := strings.ToLower(text)
	var combined []models.Place
	for _, rule := range searchStrategies {
		if !rule.applies(lower) {
			continue
		}
		params := GeocodeParams{
			Query:    rule.variant(text),
			Types:    rule.types,
			Limit:    defaultGeocodeLimit,
			Language: "en",
		}
		if q.Bias != nil {
			params.Proximity = q.Bias
			params.BBox = BoxAround(*q.Bias, biasBoxHalfSpan)
		}

		places, err := s.geocoder.Forward(ctx, params)
		metrics.ObserveGeocode(rule.name, err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.log.Warn("location search strategy failed",
				zap.String("strategy", rule.name),
				zap.String("query", params.Query),
				zap.Error(err))
			continue
		}
		combined = append(combined, places...)
	}

	return ScorePlaces(DedupePlaces(combined), text, q.Bias), nil
}

// AppliedStrategies lists the strategy names that would run for text.
func AppliedStrategies(text string) []string {
	lower := strings.ToLower(strings.TrimSpace(text))
	var names []string
	for _, rule := range searchStrategies {
		if rule.applies(lower) {
			names = append(names, rule.name)
		}
	}
	return names
}
