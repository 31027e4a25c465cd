package services

import (
	"context"
	"sync"

	"venuemap/internal/models"
)

// fakeGeocoder answers by query text and records every call.
type fakeGeocoder struct {
	mu         sync.Mutex
	configured bool
	results    map[string][]models.Place
	errs       map[string]error
	calls      []GeocodeParams
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		configured: true,
		results:    map[string][]models.Place{},
		errs:       map[string]error{},
	}
}

func (f *fakeGeocoder) Configured() bool { return f.configured }

func (f *fakeGeocoder) Forward(ctx context.Context, p GeocodeParams) ([]models.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := p.Query + "|" + joinTypes(p.Types)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.results[key], nil
}

func (f *fakeGeocoder) on(query string, types []string, places ...models.Place) {
	f.results[query+"|"+joinTypes(types)] = places
}

func (f *fakeGeocoder) fail(query string, types []string, err error) {
	f.errs[query+"|"+joinTypes(types)] = err
}

func joinTypes(types []string) string {
	out := ""
	for i, t := range types {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

func place(id, name, fullName, typ string, lat, lng, relevance float64) models.Place {
	return models.Place{
		ID:        id,
		Name:      name,
		FullName:  fullName,
		Address:   fullName,
		Latitude:  lat,
		Longitude: lng,
		Type:      typ,
		Relevance: relevance,
	}
}
