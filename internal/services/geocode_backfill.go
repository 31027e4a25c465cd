package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/models"
	"venuemap/internal/repository"
)

// BackfillStore is the event storage the backfill reads from and writes to.
type BackfillStore interface {
	ListForGeocoding(ctx context.Context, includeGeocoded bool) ([]repository.GeocodeTarget, error)
	UpdateCoordinates(ctx context.Context, ev *models.ScheduledEvent) error
}

type BackfillOptions struct {
	// Force re-geocodes events that already have coordinates.
	Force bool
	// Pace is the pause between upstream calls.
	Pace time.Duration
	// OnStart receives the number of events selected.
	OnStart func(total int)
	// OnEvent is called after each event with its outcome.
	OnEvent func(ev *models.ScheduledEvent, err error)
}

type BackfillResult struct {
	Total   int
	Updated int
	Failed  int
}

// GeocodeBackfill re-geocodes stored events in id order.
type GeocodeBackfill struct {
	store    BackfillStore
	geocoder *EventGeocoder
	log      *zap.Logger
}

func NewGeocodeBackfill(store BackfillStore, geocoder *EventGeocoder, log *zap.Logger) *GeocodeBackfill {
	return &GeocodeBackfill{store: store, geocoder: geocoder, log: logger.OrNop(log)}
}

// Run refreshes each selected event and saves the new coordinates. A failed
// event keeps its previous coordinates and is counted, not returned. Run
// stops early only when ctx is done or the listing fails.
func (b *GeocodeBackfill) Run(ctx context.Context, opts BackfillOptions) (BackfillResult, error) {
	targets, err := b.store.ListForGeocoding(ctx, opts.Force)
	if err != nil {
		return BackfillResult{}, err
	}
	res := BackfillResult{Total: len(targets)}
	if opts.OnStart != nil {
		opts.OnStart(res.Total)
	}

	for i, t := range targets {
		if i > 0 && opts.Pace > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(opts.Pace):
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := b.geocoder.Refresh(ctx, t.Event, t.Owner)
		if err == nil {
			err = b.store.UpdateCoordinates(ctx, t.Event)
		}
		if err != nil {
			res.Failed++
			b.log.Warn("event geocoding failed",
				zap.Int64("event_id", t.Event.ID),
				zap.String("location", t.Event.Location),
				zap.Error(err))
		} else {
			res.Updated++
		}
		if opts.OnEvent != nil {
			opts.OnEvent(t.Event, err)
		}
	}
	return res, nil
}
