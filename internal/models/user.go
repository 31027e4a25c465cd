package models

import (
	"strings"
	"time"
)

type UserType string

const (
	UserTypeAttendee   UserType = "user"
	UserTypeVenueOwner UserType = "venue"

	MinimumAge = 18
)

var UserTypes = []UserType{UserTypeAttendee, UserTypeVenueOwner}

func IsValidUserType(s string) bool {
	for _, t := range UserTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	UserType     UserType  `json:"user_type"`
	PhoneNumber  string    `json:"phone_number"`
	Address      string    `json:"address"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAttendee() bool { return u.UserType == UserTypeAttendee }

func (u *User) IsVenueOwner() bool { return u.UserType == UserTypeVenueOwner }

func (u *User) TypeDisplay() string {
	if u.IsAttendee() {
		return "Music Lover"
	}
	return "Venue Owner"
}

func (u *User) TypeDescription() string {
	if u.IsAttendee() {
		return "Find and attend events"
	}
	return "Host and manage events"
}

// Age reports the user's age in whole years on now. ok is false when no date
// of birth is set.
func (u *User) Age(now time.Time) (age int, ok bool) {
	if u.DateOfBirth.IsZero() {
		return 0, false
	}
	return AgeOn(u.DateOfBirth, now), true
}

// Location returns the user's stored coordinates, if both are present.
func (u *User) Location() *Coordinates {
	if u.Latitude == nil || u.Longitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *u.Latitude, Longitude: *u.Longitude}
}

// AgeOn counts full years between dob and now; the birthday itself counts.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// UserResponse is the public view of a user with its display helpers.
type UserResponse struct {
	*User
	FullName        string `json:"full_name"`
	TypeDisplay     string `json:"user_type_display"`
	TypeDescription string `json:"user_type_description"`
	VenueID         *int64 `json:"venue_id,omitempty"`
}

func NewUserResponse(u *User, venue *Venue) UserResponse {
	resp := UserResponse{
		User:            u,
		FullName:        u.FullName(),
		TypeDisplay:     u.TypeDisplay(),
		TypeDescription: u.TypeDescription(),
	}
	if venue != nil {
		resp.VenueID = &venue.ID
	}
	return resp
}

type SignupRequest struct {
	Email                string   `json:"email" validate:"required,email_format"`
	Password             string   `json:"password" validate:"required,min=6,max=128"`
	PasswordConfirmation string   `json:"password_confirmation" validate:"omitempty,eqfield=Password"`
	FirstName            string   `json:"first_name" validate:"required,min=2,max=50"`
	LastName             string   `json:"last_name" validate:"required,min=2,max=50"`
	UserType             string   `json:"user_type" validate:"required,user_type"`
	PhoneNumber          string   `json:"phone_number" validate:"required,phone"`
	Address              string   `json:"address" validate:"required,min=10,max=200"`
	DateOfBirth          string   `json:"date_of_birth" validate:"required,datetime=2006-01-02,notfuture,adult"`
	VenueName            string   `json:"venue_name" validate:"required_if=UserType venue,omitempty,min=2,max=100"`
	City                 string   `json:"city" validate:"omitempty,max=100"`
	Country              string   `json:"country" validate:"omitempty,max=100"`
	Latitude             *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude            *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// ToUser builds the user record; the request must already be valid.
func (r *SignupRequest) ToUser(id, passwordHash string, now time.Time) *User {
	dob, _ := time.Parse(dateLayout, r.DateOfBirth)
	return &User{
		ID:           id,
		Email:        strings.TrimSpace(r.Email),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		UserType:     UserType(r.UserType),
		PhoneNumber:  strings.TrimSpace(r.PhoneNumber),
		Address:      strings.TrimSpace(r.Address),
		DateOfBirth:  dob,
		City:         strings.TrimSpace(r.City),
		Country:      strings.TrimSpace(r.Country),
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email_format"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// UpdateUserRequest is a partial profile update; user_type cannot change
// after signup.
type UpdateUserRequest struct {
	FirstName   *string  `json:"first_name,omitempty" validate:"omitempty,min=2,max=50"`
	LastName    *string  `json:"last_name,omitempty" validate:"omitempty,min=2,max=50"`
	PhoneNumber *string  `json:"phone_number,omitempty" validate:"omitempty,phone"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,min=10,max=200"`
	DateOfBirth *string  `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02,notfuture,adult"`
	City        *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Country     *string  `json:"country,omitempty" validate:"omitempty,max=100"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Apply copies the set fields onto u.
func (r *UpdateUserRequest) Apply(u *User) {
	if r.FirstName != nil {
		u.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		u.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*r.PhoneNumber)
	}
	if r.Address != nil {
		u.Address = strings.TrimSpace(*r.Address)
	}
	if r.DateOfBirth != nil {
		if dob, err := time.Parse(dateLayout, *r.DateOfBirth); err == nil {
			u.DateOfBirth = dob
		}
	}
	if r.City != nil {
		u.City = strings.TrimSpace(*r.City)
	}
	if r.Country != nil {
		u.Country = strings.TrimSpace(*r.Country)
	}
	if r.Latitude != nil {
		u.Latitude = r.Latitude
	}
	if r.Longitude != nil {
		u.Longitude = r.Longitude
	}
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}
