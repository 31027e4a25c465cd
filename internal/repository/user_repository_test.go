package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"venuemap/internal/models"
)

var userCols = []string{
	"id", "email", "password_hash", "first_name", "last_name", "user_type", "phone_number",
	"address", "date_of_birth", "city", "country", "latitude", "longitude", "created_at", "updated_at",
}

func sampleUser() *models.User {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Email:        "owner@example.com",
		PasswordHash: "hash",
		FirstName:    "Ana",
		LastName:     "Silva",
		UserType:     models.UserTypeVenueOwner,
		PhoneNumber:  "+31 10 123 4567",
		Address:      "Witte de Withstraat 1, Rotterdam",
		DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		City:         "Rotterdam",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserCreateWithVenue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO venues")).
		WithArgs("11111111-1111-1111-1111-111111111111", "The Blue Room", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	repo := NewUserRepository(db)
	venue := &models.Venue{Name: "The Blue Room"}
	if err := repo.Create(context.Background(), sampleUser(), venue); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if venue.ID != 7 || venue.UserID != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("unexpected venue %+v", venue)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_lower_idx"})
	mock.ExpectRollback()

	repo := NewUserRepository(db)
	err = repo.Create(context.Background(), sampleUser(), nil)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserGetByEmailIsCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	u := sampleUser()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1)")).
		WithArgs("OWNER@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, "venue", u.PhoneNumber,
			u.Address, u.DateOfBirth, "Rotterdam", nil, 51.92, 4.47, u.CreatedAt, u.UpdatedAt,
		))

	repo := NewUserRepository(db)
	got, err := repo.GetByEmail(context.Background(), "OWNER@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserType != models.UserTypeVenueOwner || got.City != "Rotterdam" || got.Country != "" {
		t.Fatalf("unexpected user %+v", got)
	}
	if got.Latitude == nil || *got.Latitude != 51.92 {
		t.Fatalf("expected latitude, got %v", got.Latitude)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err = NewUserRepository(db).GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserDeleteReturnsPhotoKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.object_key")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"object_key"}).AddRow("events/a.jpg").AddRow("events/b.jpg"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	keys, err := NewUserRepository(db).Delete(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "events/a.jpg" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT p.object_key")).
		WillReturnRows(sqlmock.NewRows([]string{"object_key"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = NewUserRepository(db).Delete(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
