package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"venuemap/internal/models"
)

type VenueRepository interface {
	Create(ctx context.Context, venue *models.Venue) error
	GetByID(ctx context.Context, id int64) (*models.Venue, error)
	GetByUserID(ctx context.Context, userID string) (*models.Venue, error)
	List(ctx context.Context, limit int, offset int) ([]*models.Venue, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, venue *models.Venue) error
	Delete(ctx context.Context, id int64) (photoKeys []string, err error)
}

type venueRepository struct {
	db *sql.DB
}

func NewVenueRepository(db *sql.DB) VenueRepository {
	return &venueRepository{db: db}
}

const venueColumns = `id, user_id, name, created_at, updated_at`

func (r *venueRepository) Create(ctx context.Context, venue *models.Venue) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO venues (user_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		venue.UserID, venue.Name, now, now,
	).Scan(&venue.ID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrVenueExists
		}
		return fmt.Errorf("create venue: %w", err)
	}
	venue.CreatedAt = now
	venue.UpdatedAt = now
	return nil
}

func (r *venueRepository) GetByID(ctx context.Context, id int64) (*models.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id)
	return scanVenue(row)
}

func (r *venueRepository) GetByUserID(ctx context.Context, userID string) (*models.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE user_id = $1`, userID)
	return scanVenue(row)
}

func (r *venueRepository) List(ctx context.Context, limit int, offset int) ([]*models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues ORDER BY name ASC, id ASC`

	args := make([]any, 0, 2)
	argPos := 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, limit)
		argPos++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func (r *venueRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count venues: %w", err)
	}
	return total, nil
}

func (r *venueRepository) Update(ctx context.Context, venue *models.Venue) error {
	venue.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE venues SET name = $1, updated_at = $2 WHERE id = $3`,
		venue.Name, venue.UpdatedAt, venue.ID,
	)
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes the venue and, through ON DELETE CASCADE, its events and
// photo rows. The stored photo keys are returned for blob cleanup.
func (r *venueRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	keys, err := queryStrings(ctx, tx, `
		SELECT p.object_key
		FROM event_photos p
		JOIN scheduled_events e ON e.id = p.event_id
		WHERE e.venue_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list venue photos: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete venue: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

func scanVenue(row rowScanner) (*models.Venue, error) {
	var v models.Venue
	if err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
