package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"venuemap/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User, venue *models.Venue) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error
	Delete(ctx context.Context, id string) (photoKeys []string, err error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, user_type, phone_number,
	address, date_of_birth, city, country, latitude, longitude, created_at, updated_at`

// Create inserts the user and, for venue owners, their venue in one
// transaction.
func (r *userRepository) Create(ctx context.Context, user *models.User, venue *models.Venue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, string(user.UserType),
		user.PhoneNumber, user.Address, user.DateOfBirth, nullString(user.City), nullString(user.Country),
		user.Latitude, user.Longitude, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_lower_idx") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}

	if venue != nil {
		venue.UserID = user.ID
		venue.CreatedAt, venue.UpdatedAt = user.CreatedAt, user.CreatedAt
		err = tx.QueryRowContext(ctx,
			`INSERT INTO venues (user_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			venue.UserID, venue.Name, venue.CreatedAt, venue.UpdatedAt,
		).Scan(&venue.ID)
		if err != nil {
			return fmt.Errorf("create venue: %w", err)
		}
	}

	return tx.Commit()
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $1,
			last_name = $2,
			phone_number = $3,
			address = $4,
			date_of_birth = $5,
			city = $6,
			country = $7,
			latitude = $8,
			longitude = $9,
			updated_at = $10
		WHERE id = $11
	`,
		user.FirstName, user.LastName, user.PhoneNumber, user.Address, user.DateOfBirth,
		nullString(user.City), nullString(user.Country), user.Latitude, user.Longitude,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOneRow(res)
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Delete removes the user; the venue, events and photo rows go with it
// through ON DELETE CASCADE. The returned keys are the stored photo objects
// that the caller should remove from blob storage.
func (r *userRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	keys, err := queryStrings(ctx, tx, `
		SELECT p.object_key
		FROM event_photos p
		JOIN scheduled_events e ON e.id = p.event_id
		JOIN venues v ON v.id = e.venue_id
		WHERE v.user_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list user photos: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		userType  string
		city      sql.NullString
		country   sql.NullString
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &userType, &u.PhoneNumber,
		&u.Address, &u.DateOfBirth, &city, &country, &latitude, &longitude, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.UserType = models.UserType(userType)
	u.City = city.String
	u.Country = country.String
	u.Latitude = floatPtr(latitude)
	u.Longitude = floatPtr(longitude)
	return &u, nil
}
