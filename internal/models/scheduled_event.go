package models

import (
	"io"
	"strings"
	"time"
)

const (
	MinEventPhotos  = 2
	MaxEventPhotos  = 6
	MaxPhotoBytes   = 5 << 20
	DefaultCategory = "Live Music & Concerts"
	photoCountError = "must have between 2 and 6 photos"
	photoTypeError  = "must be a JPEG, PNG, JPG, or GIF"
	photoSizeError  = "must be less than 5MB each"
	photosFieldName = "photos"
)

var EventCategories = []string{
	"Art & Culture",
	"Live Music & Concerts",
	"Nightlife & Parties",
	"Education & Workshops",
	"Sports & Wellness",
	"Family & Kids",
	"Food & Drinks",
	"Business & Networking",
	"Technology & Gaming",
	"Fashion & Shopping",
	"Sustainability & Environment",
	"Personal Growth & Spirituality",
}

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/jpg":  true,
	"image/gif":  true,
}

func IsValidCategory(s string) bool {
	for _, c := range EventCategories {
		if c == s {
			return true
		}
	}
	return false
}

type ScheduledEvent struct {
	ID           int64        `json:"id"`
	VenueID      int64        `json:"venue_id"`
	Title        string       `json:"title"`
	Location     string       `json:"location"`
	Category     string       `json:"category"`
	StartingTime time.Time    `json:"starting_time"`
	EndingTime   *time.Time   `json:"ending_time,omitempty"`
	Description  string       `json:"description"`
	Price        float64      `json:"price"`
	Capacity     int          `json:"capacity"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	Timezone     string       `json:"timezone,omitempty"`
	Photos       []EventPhoto `json:"photos"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Coordinates returns the geocoded location, or nil when the event has not
// been geocoded.
func (e *ScheduledEvent) Coordinates() *Coordinates {
	if e.Latitude == nil || e.Longitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *e.Latitude, Longitude: *e.Longitude}
}

func (e *ScheduledEvent) SetCoordinates(c *Coordinates) {
	if c == nil {
		e.Latitude, e.Longitude = nil, nil
		return
	}
	lat, lng := c.Latitude, c.Longitude
	e.Latitude, e.Longitude = &lat, &lng
}

func (e *ScheduledEvent) PhotoKeys() []string {
	keys := make([]string, 0, len(e.Photos))
	for _, p := range e.Photos {
		keys = append(keys, p.ObjectKey)
	}
	return keys
}

type EventPhoto struct {
	ID          string    `json:"id"`
	EventID     int64     `json:"event_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ObjectKey   string    `json:"-"`
	URL         string    `json:"url"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventInput carries the writable event fields for create and update.
type EventInput struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Location     string     `json:"location" validate:"required,max=255"`
	Category     string     `json:"category" validate:"required,event_category"`
	StartingTime *time.Time `json:"starting_time" validate:"required"`
	EndingTime   *time.Time `json:"ending_time"`
	Description  string     `json:"description" validate:"max=5000"`
	Price        *float64   `json:"price" validate:"required,gte=0"`
	Capacity     *int       `json:"capacity" validate:"required,gt=0"`
	Latitude     *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// EventInputFromEvent seeds an input with the current values of e so a
// partial update can be validated as a whole.
func EventInputFromEvent(e *ScheduledEvent) EventInput {
	start := e.StartingTime
	price := e.Price
	capacity := e.Capacity
	in := EventInput{
		Title:        e.Title,
		Location:     e.Location,
		Category:     e.Category,
		StartingTime: &start,
		Description:  e.Description,
		Price:        &price,
		Capacity:     &capacity,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
	}
	if e.EndingTime != nil {
		end := *e.EndingTime
		in.EndingTime = &end
	}
	return in
}

// Coordinates returns the client-supplied coordinates, if both are set.
func (in *EventInput) Coordinates() *Coordinates {
	if in.Latitude == nil || in.Longitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *in.Latitude, Longitude: *in.Longitude}
}

// ApplyTo copies the input onto e. The input must already be valid.
func (in *EventInput) ApplyTo(e *ScheduledEvent) {
	e.Title = strings.TrimSpace(in.Title)
	e.Location = strings.TrimSpace(in.Location)
	e.Category = in.Category
	e.StartingTime = in.StartingTime.UTC()
	e.EndingTime = nil
	if in.EndingTime != nil {
		end := in.EndingTime.UTC()
		e.EndingTime = &end
	}
	e.Description = in.Description
	e.Price = *in.Price
	e.Capacity = *in.Capacity
	e.SetCoordinates(in.Coordinates())
}

// PhotoUpload describes an incoming photo before it is stored.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// ValidatePhotos checks count, type and size. Type and size checks stop at
// the first offending photo.
func ValidatePhotos(photos []PhotoUpload) FieldErrors {
	errs := FieldErrors{}
	if len(photos) < MinEventPhotos || len(photos) > MaxEventPhotos {
		errs.Add(photosFieldName, photoCountError)
		if len(photos) == 0 {
			return errs
		}
	}
	for _, p := range photos {
		if !allowedPhotoTypes[strings.ToLower(p.ContentType)] {
			errs.Add(photosFieldName, photoTypeError)
			break
		}
		if p.Size > MaxPhotoBytes {
			errs.Add(photosFieldName, photoSizeError)
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
