package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"venuemap/internal/models"
)

// EventFilter narrows event listings. Zero fields do not filter.
type EventFilter struct {
	VenueID         int64
	Category        string
	From            *time.Time
	To              *time.Time
	Bounds          *Bounds
	WithCoordinates bool
	Limit           int
	Offset          int
}

// Bounds is a map viewport in decimal degrees.
type Bounds struct {
	MinLat, MinLng, MaxLat, MaxLng float64
}

// GeocodeTarget pairs an event with the owner context used to geocode it.
type GeocodeTarget struct {
	Event *models.ScheduledEvent
	Owner *models.User
}

type EventRepository interface {
	Create(ctx context.Context, ev *models.ScheduledEvent) error
	GetByID(ctx context.Context, id int64) (*models.ScheduledEvent, error)
	List(ctx context.Context, f EventFilter) ([]*models.ScheduledEvent, error)
	Count(ctx context.Context, f EventFilter) (int, error)
	Update(ctx context.Context, ev *models.ScheduledEvent, replacePhotos bool) (removedKeys []string, err error)
	Delete(ctx context.Context, id int64) (photoKeys []string, err error)
	ListForGeocoding(ctx context.Context, includeGeocoded bool) ([]GeocodeTarget, error)
	UpdateCoordinates(ctx context.Context, ev *models.ScheduledEvent) error
}

type eventRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var eventColumns = []string{
	"e.id", "e.venue_id", "e.title", "e.location", "e.category", "e.starting_time", "e.ending_time",
	"e.description", "e.price", "e.capacity", "e.latitude", "e.longitude", "e.timezone",
	"e.created_at", "e.updated_at",
}

func (r *eventRepository) Create(ctx context.Context, ev *models.ScheduledEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now

	query, args, err := r.sb.Insert("scheduled_events").
		Columns("venue_id", "title", "location", "category", "starting_time", "ending_time",
			"description", "price", "capacity", "latitude", "longitude", "timezone",
			"created_at", "updated_at").
		Values(ev.VenueID, ev.Title, ev.Location, ev.Category, ev.StartingTime, ev.EndingTime,
			ev.Description, ev.Price, ev.Capacity, ev.Latitude, ev.Longitude, nullString(ev.Timezone),
			ev.CreatedAt, ev.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&ev.ID); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	if err := r.insertPhotos(ctx, tx, ev.ID, ev.Photos); err != nil {
		return err
	}
	for i := range ev.Photos {
		ev.Photos[i].EventID = ev.ID
	}
	return tx.Commit()
}

func (r *eventRepository) insertPhotos(ctx context.Context, tx *sql.Tx, eventID int64, photos []models.EventPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	ins := r.sb.Insert("event_photos").
		Columns("id", "event_id", "file_name", "content_type", "size", "object_key", "url", "position", "created_at")
	for _, p := range photos {
		ins = ins.Values(p.ID, eventID, p.FileName, p.ContentType, p.Size, p.ObjectKey, p.URL, p.Position, p.CreatedAt)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert event photos: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledEvent, error) {
	query, args, err := r.sb.Select(eventColumns...).
		From("scheduled_events e").
		Where(sq.Eq{"e.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	ev, err := scanEvent(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := r.attachPhotos(ctx, []*models.ScheduledEvent{ev}); err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *eventRepository) filtered(b sq.SelectBuilder, f EventFilter) sq.SelectBuilder {
	if f.VenueID != 0 {
		b = b.Where(sq.Eq{"e.venue_id": f.VenueID})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"e.category": f.Category})
	}
	if f.From != nil {
		b = b.Where(sq.GtOrEq{"e.starting_time": *f.From})
	}
	if f.To != nil {
		b = b.Where(sq.LtOrEq{"e.starting_time": *f.To})
	}
	if f.WithCoordinates || f.Bounds != nil {
		b = b.Where(sq.NotEq{"e.latitude": nil}).Where(sq.NotEq{"e.longitude": nil})
	}
	if f.Bounds != nil {
		b = b.Where(sq.And{
			sq.GtOrEq{"e.latitude": f.Bounds.MinLat},
			sq.LtOrEq{"e.latitude": f.Bounds.MaxLat},
			sq.GtOrEq{"e.longitude": f.Bounds.MinLng},
			sq.LtOrEq{"e.longitude": f.Bounds.MaxLng},
		})
	}
	return b
}

func (r *eventRepository) List(ctx context.Context, f EventFilter) ([]*models.ScheduledEvent, error) {
	b := r.filtered(r.sb.Select(eventColumns...).From("scheduled_events e"), f).
		OrderBy("e.starting_time ASC", "e.id ASC")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.ScheduledEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachPhotos(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) Count(ctx context.Context, f EventFilter) (int, error) {
	query, args, err := r.filtered(r.sb.Select("COUNT(*)").From("scheduled_events e"), f).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}

// attachPhotos loads the photos of all events in one query.
func (r *eventRepository) attachPhotos(ctx context.Context, events []*models.ScheduledEvent) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]int64, len(events))
	byID := make(map[int64]*models.ScheduledEvent, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
		byID[ev.ID] = ev
		ev.Photos = []models.EventPhoto{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, file_name, content_type, size, object_key, url, position, created_at
		FROM event_photos
		WHERE event_id = ANY($1)
		ORDER BY event_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load event photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.EventPhoto
		if err := rows.Scan(&p.ID, &p.EventID, &p.FileName, &p.ContentType, &p.Size,
			&p.ObjectKey, &p.URL, &p.Position, &p.CreatedAt); err != nil {
			return err
		}
		if ev := byID[p.EventID]; ev != nil {
			ev.Photos = append(ev.Photos, p)
		}
	}
	return rows.Err()
}

// Update saves the event fields. With replacePhotos the stored photo rows are
// swapped for ev.Photos and the keys of the old ones are returned.
func (r *eventRepository) Update(ctx context.Context, ev *models.ScheduledEvent, replacePhotos bool) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ev.UpdatedAt = time.Now().UTC()
	query, args, err := r.sb.Update("scheduled_events").
		SetMap(map[string]any{
			"title":         ev.Title,
			"location":      ev.Location,
			"category":      ev.Category,
			"starting_time": ev.StartingTime,
			"ending_time":   ev.EndingTime,
			"description":   ev.Description,
			"price":         ev.Price,
			"capacity":      ev.Capacity,
			"latitude":      ev.Latitude,
			"longitude":     ev.Longitude,
			"timezone":      nullString(ev.Timezone),
			"updated_at":    ev.UpdatedAt,
		}).
		Where(sq.Eq{"id": ev.ID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}

	var removed []string
	if replacePhotos {
		removed, err = queryStrings(ctx, tx,
			`DELETE FROM event_photos WHERE event_id = $1 RETURNING object_key`, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("remove event photos: %w", err)
		}
		if err := r.insertPhotos(ctx, tx, ev.ID, ev.Photos); err != nil {
			return nil, err
		}
		for i := range ev.Photos {
			ev.Photos[i].EventID = ev.ID
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	keys, err := queryStrings(ctx, tx, `SELECT object_key FROM event_photos WHERE event_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list event photos: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scheduled_events WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

// ListForGeocoding returns events with a location together with their owner.
// Unless includeGeocoded is set only events missing coordinates are returned.
func (r *eventRepository) ListForGeocoding(ctx context.Context, includeGeocoded bool) ([]GeocodeTarget, error) {
	cols := append(append([]string{}, eventColumns...),
		"u.id", "u.city", "u.country", "u.latitude", "u.longitude")
	b := r.sb.Select(cols...).
		From("scheduled_events e").
		Join("venues v ON v.id = e.venue_id").
		Join("users u ON u.id = v.user_id").
		Where(sq.NotEq{"e.location": ""}).
		OrderBy("e.id ASC")
	if !includeGeocoded {
		b = b.Where(sq.Or{sq.Eq{"e.latitude": nil}, sq.Eq{"e.longitude": nil}})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events for geocoding: %w", err)
	}
	defer rows.Close()

	var out []GeocodeTarget
	for rows.Next() {
		var (
			owner              models.User
			city, country      sql.NullString
			ownerLat, ownerLng sql.NullFloat64
		)
		ev, err := scanEvent(rows, &owner.ID, &city, &country, &ownerLat, &ownerLng)
		if err != nil {
			return nil, err
		}
		owner.City = city.String
		owner.Country = country.String
		owner.Latitude = floatPtr(ownerLat)
		owner.Longitude = floatPtr(ownerLng)
		out = append(out, GeocodeTarget{Event: ev, Owner: &owner})
	}
	return out, rows.Err()
}

func (r *eventRepository) UpdateCoordinates(ctx context.Context, ev *models.ScheduledEvent) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_events SET latitude = $1, longitude = $2, timezone = $3, updated_at = NOW() WHERE id = $4`,
		ev.Latitude, ev.Longitude, nullString(ev.Timezone), ev.ID,
	)
	if err != nil {
		return fmt.Errorf("update event coordinates: %w", err)
	}
	return expectOneRow(res)
}

// scanEvent reads the eventColumns followed by any extra destinations.
func scanEvent(row rowScanner, extra ...any) (*models.ScheduledEvent, error) {
	var (
		ev        models.ScheduledEvent
		ending    sql.NullTime
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
		timezone  sql.NullString
	)
	dest := append([]any{
		&ev.ID, &ev.VenueID, &ev.Title, &ev.Location, &ev.Category, &ev.StartingTime, &ending,
		&ev.Description, &ev.Price, &ev.Capacity, &latitude, &longitude, &timezone,
		&ev.CreatedAt, &ev.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ev.EndingTime = timePtr(ending)
	ev.Latitude = floatPtr(latitude)
	ev.Longitude = floatPtr(longitude)
	ev.Timezone = timezone.String
	ev.Photos = []models.EventPhoto{}
	return &ev, nil
}
