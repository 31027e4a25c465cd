package models

import "time"

type Venue struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OwnedBy reports whether userID owns the venue.
func (v *Venue) OwnedBy(userID string) bool {
	return v != nil && v.UserID == userID
}

type VenueRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// VenueWithEvents is the venue detail view with its upcoming events.
type VenueWithEvents struct {
	Venue
	Events []*ScheduledEvent `json:"events"`
}
