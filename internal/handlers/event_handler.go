package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/itlightning/dateparse"
	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/models"
	"venuemap/internal/repository"
)

const (
	maxMultipartMemory = 32 << 20
	mapEventsLimit     = 500
	invalidValue       = "is invalid"
)

// EventLocator fills in the coordinates and time zone of an event.
type EventLocator interface {
	Apply(ctx context.Context, ev *models.ScheduledEvent, owner *models.User)
}

// PhotoUploader stores event photos and removes them again.
type PhotoUploader interface {
	Upload(ctx context.Context, uploads []models.PhotoUpload) ([]models.EventPhoto, error)
	PhotoDiscarder
}

type EventHandler struct {
	events  repository.EventRepository
	venues  repository.VenueRepository
	users   repository.UserRepository
	locator EventLocator
	photos  PhotoUploader
	v       *validator.Validate
	log     *zap.Logger
}

func NewEventHandler(
	events repository.EventRepository,
	venues repository.VenueRepository,
	users repository.UserRepository,
	locator EventLocator,
	photos PhotoUploader,
	log *zap.Logger,
) *EventHandler {
	return &EventHandler{
		events:  events,
		venues:  venues,
		users:   users,
		locator: locator,
		photos:  photos,
		v:       models.NewValidator(),
		log:     logger.OrNop(log),
	}
}

// eventForm is the raw request body before validation. Times stay strings
// so free-form values can be parsed and reported per field.
type eventForm struct {
	Title        *string  `json:"title"`
	Location     *string  `json:"location"`
	Category     *string  `json:"category"`
	StartingTime *string  `json:"starting_time"`
	EndingTime   *string  `json:"ending_time"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	Capacity     *int     `json:"capacity"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`

	photos []models.PhotoUpload
	errs   models.FieldErrors
}

// @Tags Events
// @Summary List events
// @Description Upcoming and past events for the list view. Passing all four bounds limits results to a map viewport.
// @Produce json
// @Param category query string false "Category"
// @Param from query string false "Earliest start time"
// @Param to query string false "Latest start time"
// @Param min_lat query number false "Viewport south"
// @Param min_lng query number false "Viewport west"
// @Param max_lat query number false "Viewport north"
// @Param max_lng query number false "Viewport east"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/events [get]
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseEventFilter(w, r)
	if !ok {
		return
	}
	p := parsePaginationParams(r, 20, 100)
	filter.Limit, filter.Offset = p.limit, p.offset

	events, err := h.events.List(r.Context(), filter)
	if err != nil {
		h.log.Error("list events", zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list events")
		return
	}
	total, err := h.events.Count(r.Context(), filter)
	if err != nil {
		h.log.Error("count events", zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to count events")
		return
	}
	if events == nil {
		events = []*models.ScheduledEvent{}
	}
	writePaginatedResponse(w, http.StatusOK, events, p.page, p.pageSize, total)
}

// @Tags Events
// @Summary Events for the map view
// @Description Only events with coordinates are returned.
// @Produce json
// @Param category query string false "Category"
// @Param from query string false "Earliest start time"
// @Param to query string false "Latest start time"
// @Param min_lat query number false "Viewport south"
// @Param min_lng query number false "Viewport west"
// @Param max_lat query number false "Viewport north"
// @Param max_lng query number false "Viewport east"
// @Success 200 {array} models.ScheduledEvent
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/events/map [get]
func (h *EventHandler) Map(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseEventFilter(w, r)
	if !ok {
		return
	}
	filter.WithCoordinates = true
	filter.Limit = mapEventsLimit

	events, err := h.events.List(r.Context(), filter)
	if err != nil {
		h.log.Error("list map events", zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list events")
		return
	}
	if events == nil {
		events = []*models.ScheduledEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// @Tags Events
// @Summary Event categories
// @Produce json
// @Success 200 {array} string
// @Router /api/v1/events/categories [get]
func (h *EventHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.EventCategories)
}

// @Tags Events
// @Summary Get event
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.ScheduledEvent
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/events/{id} [get]
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// @Tags Events
// @Summary Create event
// @Description Multipart form with the event fields and 2 to 6 photos (JPEG, PNG or GIF, 5MB each).
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param location formData string true "Location"
// @Param category formData string false "Category"
// @Param starting_time formData string true "Start time"
// @Param ending_time formData string false "End time"
// @Param description formData string false "Description"
// @Param price formData number true "Price"
// @Param capacity formData int true "Capacity"
// @Param latitude formData number false "Latitude from autocomplete"
// @Param longitude formData number false "Longitude from autocomplete"
// @Param photos formData file true "Photos"
// @Success 201 {object} models.ScheduledEvent
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := loadCurrentUser(w, r, h.users, h.log)
	if !ok {
		return
	}
	if !u.IsVenueOwner() {
		writeJSONErrorResponse(w, http.StatusForbidden, "forbidden", "Only venue owners can create events")
		return
	}
	venue, err := ownedVenue(r.Context(), h.venues, u)
	if err != nil {
		h.log.Error("load venue for event", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create event")
		return
	}
	if venue == nil {
		writeJSONErrorResponse(w, http.StatusForbidden, "forbidden", "Create your venue before adding events")
		return
	}

	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	in := models.EventInput{Category: models.DefaultCategory}
	form.applyTo(&in)
	fields, ok := h.validateInput(w, in)
	if !ok {
		return
	}
	fields.Merge(form.errs)
	fields.Merge(models.ValidatePhotos(form.photos))
	if len(fields) > 0 {
		writeValidationErrors(w, fields)
		return
	}

	ev := &models.ScheduledEvent{VenueID: venue.ID}
	in.ApplyTo(ev)
	h.locator.Apply(r.Context(), ev, u)

	photos, err := h.photos.Upload(r.Context(), form.photos)
	if err != nil {
		h.log.Error("upload event photos", zap.Int64("venue_id", venue.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "upload_failed", "Failed to upload photos")
		return
	}
	ev.Photos = photos

	if err := h.events.Create(r.Context(), ev); err != nil {
		h.photos.Discard(context.WithoutCancel(r.Context()), ev.PhotoKeys())
		h.log.Error("create event", zap.Int64("venue_id", venue.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create event")
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// @Tags Events
// @Summary Update event
// @Description Multipart or JSON. Sending photos replaces the whole photo set.
// @Security BearerAuth
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} models.ScheduledEvent
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/events/{id} [put]
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ev, ok := h.loadOwnedEvent(w, r)
	if !ok {
		return
	}

	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	in := models.EventInputFromEvent(ev)
	previousLocation := ev.Location
	form.applyTo(&in)
	if strings.TrimSpace(in.Location) != previousLocation && form.Latitude == nil && form.Longitude == nil {
		in.Latitude, in.Longitude = nil, nil
	}

	fields, ok := h.validateInput(w, in)
	if !ok {
		return
	}
	fields.Merge(form.errs)
	replacePhotos := len(form.photos) > 0
	if replacePhotos {
		fields.Merge(models.ValidatePhotos(form.photos))
	}
	if len(fields) > 0 {
		writeValidationErrors(w, fields)
		return
	}

	in.ApplyTo(ev)
	h.locator.Apply(r.Context(), ev, u)

	if replacePhotos {
		photos, err := h.photos.Upload(r.Context(), form.photos)
		if err != nil {
			h.log.Error("upload event photos", zap.Int64("event_id", ev.ID), zap.Error(err))
			writeJSONErrorResponse(w, http.StatusInternalServerError, "upload_failed", "Failed to upload photos")
			return
		}
		ev.Photos = photos
	}

	removed, err := h.events.Update(r.Context(), ev, replacePhotos)
	if err != nil {
		if replacePhotos {
			h.photos.Discard(context.WithoutCancel(r.Context()), ev.PhotoKeys())
		}
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Event not found")
			return
		}
		h.log.Error("update event", zap.Int64("event_id", ev.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to update event")
		return
	}
	h.photos.Discard(context.WithoutCancel(r.Context()), removed)
	writeJSON(w, http.StatusOK, ev)
}

// @Tags Events
// @Summary Delete event
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/events/{id} [delete]
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, ev, ok := h.loadOwnedEvent(w, r)
	if !ok {
		return
	}

	keys, err := h.events.Delete(r.Context(), ev.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Event not found")
			return
		}
		h.log.Error("delete event", zap.Int64("event_id", ev.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete event")
		return
	}
	h.photos.Discard(context.WithoutCancel(r.Context()), keys)
	w.WriteHeader(http.StatusNoContent)
}

// validateInput returns the field errors of in, empty when it is valid. ok is
// false after a 400 was written for an unexpected validator failure.
func (h *EventHandler) validateInput(w http.ResponseWriter, in models.EventInput) (models.FieldErrors, bool) {
	fields, err := models.Validate(h.v, in)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return nil, false
	}
	if fields == nil {
		fields = models.FieldErrors{}
	}
	return fields, true
}

func (h *EventHandler) loadEvent(w http.ResponseWriter, r *http.Request) (*models.ScheduledEvent, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid event ID")
		return nil, false
	}
	ev, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Event not found")
			return nil, false
		}
		h.log.Error("get event", zap.Int64("event_id", id), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get event")
		return nil, false
	}
	return ev, true
}

// loadOwnedEvent loads the event and checks that the current user owns its
// venue.
func (h *EventHandler) loadOwnedEvent(w http.ResponseWriter, r *http.Request) (*models.User, *models.ScheduledEvent, bool) {
	u, ok := loadCurrentUser(w, r, h.users, h.log)
	if !ok {
		return nil, nil, false
	}
	ev, ok := h.loadEvent(w, r)
	if !ok {
		return nil, nil, false
	}
	venue, err := h.venues.GetByID(r.Context(), ev.VenueID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.log.Error("load event venue", zap.Int64("event_id", ev.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load event")
		return nil, nil, false
	}
	if !venue.OwnedBy(u.ID) {
		writeJSONErrorResponse(w, http.StatusForbidden, "forbidden", "You can only manage events of your own venue")
		return nil, nil, false
	}
	return u, ev, true
}

// readForm decodes a multipart or JSON event body.
func (h *EventHandler) readForm(w http.ResponseWriter, r *http.Request) (*eventForm, bool) {
	form := &eventForm{errs: models.FieldErrors{}}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid multipart body")
			return nil, false
		}
		form.readMultipart(r)
		return form, true
	}

	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return nil, false
	}
	return form, true
}

func (f *eventForm) readMultipart(r *http.Request) {
	values := r.MultipartForm.Value
	str := func(name string) *string {
		if v, ok := values[name]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}
	f.Title = str("title")
	f.Location = str("location")
	f.Category = str("category")
	f.StartingTime = str("starting_time")
	f.EndingTime = str("ending_time")
	f.Description = str("description")
	f.Price = f.float("price", str("price"))
	f.Latitude = f.float("latitude", str("latitude"))
	f.Longitude = f.float("longitude", str("longitude"))
	if s := str("capacity"); s != nil && strings.TrimSpace(*s) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(*s))
		if err != nil {
			f.errs.Add("capacity", invalidValue)
		} else {
			f.Capacity = &n
		}
	}

	for _, fh := range r.MultipartForm.File["photos"] {
		f.photos = append(f.photos, models.PhotoUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
}

func (f *eventForm) float(field string, s *string) *float64 {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		f.errs.Add(field, invalidValue)
		return nil
	}
	return &v
}

// applyTo copies the fields present in the form onto in. Unparseable times
// are recorded in f.errs.
func (f *eventForm) applyTo(in *models.EventInput) {
	if f.Title != nil {
		in.Title = *f.Title
	}
	if f.Location != nil {
		in.Location = *f.Location
	}
	if f.Category != nil && strings.TrimSpace(*f.Category) != "" {
		in.Category = strings.TrimSpace(*f.Category)
	}
	if f.Description != nil {
		in.Description = *f.Description
	}
	if f.StartingTime != nil {
		in.StartingTime = f.time("starting_time", *f.StartingTime)
	}
	if f.EndingTime != nil {
		in.EndingTime = f.time("ending_time", *f.EndingTime)
	}
	if f.Price != nil {
		in.Price = f.Price
	}
	if f.Capacity != nil {
		in.Capacity = f.Capacity
	}
	if f.Latitude != nil || f.Longitude != nil {
		in.Latitude, in.Longitude = f.Latitude, f.Longitude
	}
}

func (f *eventForm) time(field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		f.errs.Add(field, invalidValue)
		return nil
	}
	return &t
}

// parseEventFilter reads the shared list filters. Bounds apply only when all
// four are given.
func parseEventFilter(w http.ResponseWriter, r *http.Request) (repository.EventFilter, bool) {
	q := r.URL.Query()
	filter := repository.EventFilter{Category: strings.TrimSpace(q.Get("category"))}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		t, err := dateparse.ParseIn(raw, time.UTC)
		if err != nil {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid "+p.name+" time")
			return filter, false
		}
		*p.dst = &t
	}

	names := []string{"min_lat", "min_lng", "max_lat", "max_lng"}
	var vals [4]float64
	given := 0
	for i, name := range names {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid "+name)
			return filter, false
		}
		vals[i] = v
		given++
	}
	switch given {
	case 0:
	case len(names):
		filter.Bounds = &repository.Bounds{MinLat: vals[0], MinLng: vals[1], MaxLat: vals[2], MaxLng: vals[3]}
	default:
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "min_lat, min_lng, max_lat and max_lng must be given together")
		return filter, false
	}
	return filter, true
}
