package services

import (
	"slices"
	"strings"

	"venuemap/internal/models"
)

const (
	maxRelevance    = 1.0
	maxSearchResult = 10

	exactMatchBoost   = 0.4
	partialMatchBoost = 0.3
	proximityFloor    = 0.3
	proximityRadiusKm = 10.0
)

// keywordBoost rewards places whose kind matches a keyword in the query. When
// anyPOI is set a poi result qualifies regardless of its name.
type keywordBoost struct {
	keyword string
	boost   float64
	anyPOI  bool
}

var keywordBoosts = []keywordBoost{
	{keyword: "station", boost: 0.5, anyPOI: true},
	{keyword: "park", boost: 0.4, anyPOI: true},
	{keyword: "airport", boost: 0.5, anyPOI: true},
	{keyword: "rotterdam", boost: 0.3},
}

// DedupePlaces keeps the first place seen for each exact coordinate pair and
// preserves input order.
func DedupePlaces(places []models.Place) []models.Place {
	seen := make(map[models.Coordinates]struct{}, len(places))
	out := make([]models.Place, 0, len(places))
	for _, p := range places {
		key := p.Coordinates()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ScorePlaces rescales relevance against the query and optional bias, then
// returns at most ten places sorted by descending relevance. Ties keep their
// input order.
func ScorePlaces(places []models.Place, query string, bias *models.Coordinates) []models.Place {
	q := strings.ToLower(query)
	scored := make([]models.Place, len(places))
	for i, p := range places {
		p.Relevance = scorePlace(p, q, bias)
		scored[i] = p
	}

	slices.SortStableFunc(scored, func(a, b models.Place) int {
		switch {
		case a.Relevance > b.Relevance:
			return -1
		case a.Relevance < b.Relevance:
			return 1
		default:
			return 0
		}
	})

	if len(scored) > maxSearchResult {
		scored = scored[:maxSearchResult]
	}
	return scored
}

func scorePlace(p models.Place, q string, bias *models.Coordinates) float64 {
	score := p.Relevance
	name := strings.ToLower(p.Name)
	fullName := strings.ToLower(p.FullName)

	if name == q || strings.Contains(fullName, q) {
		score += exactMatchBoost
	}
	if strings.Contains(name, q) || strings.Contains(q, name) {
		score += partialMatchBoost
	}

	for _, kb := range keywordBoosts {
		if !strings.Contains(q, kb.keyword) {
			continue
		}
		if (kb.anyPOI && p.Type == "poi") || strings.Contains(fullName, kb.keyword) {
			score += kb.boost
		}
	}

	if bias != nil {
		d := DistanceKm(*bias, p.Coordinates())
		score += max(proximityFloor, (proximityRadiusKm-d)/proximityRadiusKm*proximityFloor)
	}

	return min(score, maxRelevance)
}
