package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"venuemap/internal/logger"
	"venuemap/internal/models"
	"venuemap/internal/repository"
)

const venueEventsLimit = 50

type VenueHandler struct {
	venues repository.VenueRepository
	events repository.EventRepository
	users  repository.UserRepository
	photos PhotoDiscarder
	v      *validator.Validate
	log    *zap.Logger
	now    func() time.Time
}

func NewVenueHandler(
	venues repository.VenueRepository,
	events repository.EventRepository,
	users repository.UserRepository,
	photos PhotoDiscarder,
	log *zap.Logger,
) *VenueHandler {
	return &VenueHandler{
		venues: venues,
		events: events,
		users:  users,
		photos: photos,
		v:      models.NewValidator(),
		log:    logger.OrNop(log),
		now:    time.Now,
	}
}

// @Tags Venues
// @Summary List venues
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/venues [get]
func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePaginationParams(r, 20, 100)

	venues, err := h.venues.List(r.Context(), p.limit, p.offset)
	if err != nil {
		h.log.Error("list venues", zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list venues")
		return
	}
	total, err := h.venues.Count(r.Context())
	if err != nil {
		h.log.Error("count venues", zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to count venues")
		return
	}
	if venues == nil {
		venues = []*models.Venue{}
	}
	writePaginatedResponse(w, http.StatusOK, venues, p.page, p.pageSize, total)
}

// @Tags Venues
// @Summary Get venue with upcoming events
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {object} models.VenueWithEvents
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/venues/{id} [get]
func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	venue, ok := h.loadVenue(w, r)
	if !ok {
		return
	}

	from := h.now().UTC()
	events, err := h.events.List(r.Context(), repository.EventFilter{
		VenueID: venue.ID,
		From:    &from,
		Limit:   venueEventsLimit,
	})
	if err != nil {
		h.log.Error("list venue events", zap.Int64("venue_id", venue.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load venue events")
		return
	}
	if events == nil {
		events = []*models.ScheduledEvent{}
	}
	writeJSON(w, http.StatusOK, models.VenueWithEvents{Venue: *venue, Events: events})
}

// @Tags Venues
// @Summary Create venue
// @Description Venue owners who do not have a venue yet can create one.
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.VenueRequest true "Venue"
// @Success 201 {object} models.Venue
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/venues [post]
func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := loadCurrentUser(w, r, h.users, h.log)
	if !ok {
		return
	}
	if !u.IsVenueOwner() {
		writeJSONErrorResponse(w, http.StatusForbidden, "forbidden", "Only venue owners can create venues")
		return
	}

	req, ok := h.decodeVenue(w, r)
	if !ok {
		return
	}

	venue := &models.Venue{UserID: u.ID, Name: strings.TrimSpace(req.Name)}
	if err := h.venues.Create(r.Context(), venue); err != nil {
		if errors.Is(err, repository.ErrVenueExists) {
			writeJSONErrorResponse(w, http.StatusConflict, "venue_exists", "You already have a venue")
			return
		}
		h.log.Error("create venue", zap.String("user_id", u.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create venue")
		return
	}
	writeJSON(w, http.StatusCreated, venue)
}

// @Tags Venues
// @Summary Update venue
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Venue ID"
// @Param body body models.VenueRequest true "Venue"
// @Success 200 {object} models.Venue
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/venues/{id} [put]
func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request) {
	venue, ok := h.loadOwnedVenue(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeVenue(w, r)
	if !ok {
		return
	}

	venue.Name = strings.TrimSpace(req.Name)
	if err := h.venues.Update(r.Context(), venue); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Venue not found")
			return
		}
		h.log.Error("update venue", zap.Int64("venue_id", venue.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to update venue")
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

// @Tags Venues
// @Summary Delete venue
// @Description Deletes the venue with its events and their photos.
// @Security BearerAuth
// @Param id path int true "Venue ID"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/venues/{id} [delete]
func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	venue, ok := h.loadOwnedVenue(w, r)
	if !ok {
		return
	}

	keys, err := h.venues.Delete(r.Context(), venue.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Venue not found")
			return
		}
		h.log.Error("delete venue", zap.Int64("venue_id", venue.ID), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete venue")
		return
	}
	h.photos.Discard(context.WithoutCancel(r.Context()), keys)
	w.WriteHeader(http.StatusNoContent)
}

func (h *VenueHandler) decodeVenue(w http.ResponseWriter, r *http.Request) (models.VenueRequest, bool) {
	var req models.VenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid JSON: "+err.Error())
		return req, false
	}
	fields, err := models.Validate(h.v, req)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		return req, false
	}
	if fields != nil {
		writeValidationErrors(w, fields)
		return req, false
	}
	return req, true
}

func (h *VenueHandler) loadVenue(w http.ResponseWriter, r *http.Request) (*models.Venue, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid venue ID")
		return nil, false
	}
	venue, err := h.venues.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "Venue not found")
			return nil, false
		}
		h.log.Error("get venue", zap.Int64("venue_id", id), zap.Error(err))
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get venue")
		return nil, false
	}
	return venue, true
}

func (h *VenueHandler) loadOwnedVenue(w http.ResponseWriter, r *http.Request) (*models.Venue, bool) {
	u, ok := loadCurrentUser(w, r, h.users, h.log)
	if !ok {
		return nil, false
	}
	venue, ok := h.loadVenue(w, r)
	if !ok {
		return nil, false
	}
	if !venue.OwnedBy(u.ID) {
		writeJSONErrorResponse(w, http.StatusForbidden, "forbidden", "You can only manage your own venue")
		return nil, false
	}
	return venue, true
}
